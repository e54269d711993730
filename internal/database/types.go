package database

import (
	"time"
)

// StoredIdentity represents one registered person with all face encodings.
type StoredIdentity struct {
	Roll             string
	Name             string
	Role             string
	RegistrationDate string
	Embeddings       [][]float32
	Dim              int
	CreatedAt        time.Time
}

// CalibrationRecord is a persisted calibration result, keyed by timestamp.
// Rows form the audit/replay history of threshold changes.
type CalibrationRecord struct {
	ID                  int64
	Timestamp           time.Time
	DistanceThreshold   float64
	ConfidenceThreshold float64
	QualityThreshold    float64
	DetectorMode        string
	EmbeddingsUsed      int
	UniqueIdentities    int
	AvgIntraClass       float64
	AvgInterClass       float64
	StdIntraClass       float64
}

// AttendanceRecord marks one person present on one day. At most one record
// exists per (roll, day); later sightings on the same day are ignored.
type AttendanceRecord struct {
	ID         string // UUID
	Roll       string
	Name       string
	Day        string // YYYY-MM-DD
	MarkedAt   time.Time
	Confidence float64
}
