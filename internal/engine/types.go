package engine

import (
	"time"
)

// DefaultDim is the fixed dimension for face embeddings (dlib ResNet face encodings).
const DefaultDim = 128

// Embedding is a single face embedding vector. All embeddings held by one
// store share the same dimension.
type Embedding []float32

// Metadata carries opaque identity attributes (name, role, registration
// date). The engine never interprets these, it only passes them through.
type Metadata struct {
	Name             string `json:"name"`
	Role             string `json:"role"`
	RegistrationDate string `json:"registration_date"`
}

// Identity is a labeled entity (roll number) owning one or more embeddings.
type Identity struct {
	Roll       string
	Embeddings []Embedding
	Meta       Metadata
}

// Entry is one (identity, embedding) pair inside a snapshot.
type Entry struct {
	Roll      string
	Embedding Embedding
	Meta      Metadata
}

// Snapshot is an immutable point-in-time view of the store. Mutations of
// the store publish a new snapshot; a snapshot handed out is never changed.
type Snapshot struct {
	entries    []Entry
	dim        int
	identities int
}

// Entries returns the snapshot's (identity, embedding) pairs. Callers must
// not modify the returned slice.
func (s *Snapshot) Entries() []Entry { return s.entries }

// Len returns the number of embeddings in the snapshot.
func (s *Snapshot) Len() int { return len(s.entries) }

// Identities returns the number of distinct identities in the snapshot.
func (s *Snapshot) Identities() int { return s.identities }

// Dim returns the embedding dimension of the snapshot.
func (s *Snapshot) Dim() int { return s.dim }

// DetectorMode selects the upstream face detector variant. Fast trades
// accuracy for latency, Accurate the other way around.
type DetectorMode string

const (
	DetectorFast     DetectorMode = "fast"
	DetectorAccurate DetectorMode = "accurate"
)

// Thresholds is the active acceptance threshold set consumed by the matcher.
// Distance and confidence are independently configurable gates even though
// calibration derives one from the other; manual overrides may diverge them.
type Thresholds struct {
	Distance   float64 `json:"distance_threshold"`
	Confidence float64 `json:"confidence_threshold"`
	Quality    float64 `json:"quality_threshold"`
}

// DefaultThresholds are used until the first successful calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Distance:   0.4,
		Confidence: 0.65,
		Quality:    0.7,
	}
}

// CalibrationResult is the immutable outcome of one calibration run. The
// next run supersedes it entirely; results are never merged.
type CalibrationResult struct {
	Timestamp           time.Time    `json:"timestamp"`
	DistanceThreshold   float64      `json:"distance_threshold"`
	ConfidenceThreshold float64      `json:"confidence_threshold"`
	QualityThreshold    float64      `json:"quality_threshold"`
	DetectorMode        DetectorMode `json:"detector_mode"`
	EmbeddingsUsed      int          `json:"embeddings_used"`
	UniqueIdentities    int          `json:"unique_identities"`

	// Distribution diagnostics. Inter-class statistics are computed but
	// intentionally unused by the threshold formula.
	AvgIntraClass float64 `json:"avg_intra_class"`
	AvgInterClass float64 `json:"avg_inter_class"`
	StdIntraClass float64 `json:"std_intra_class"`
}

// Box is a detected face region in frame pixel coordinates, using the
// (top, right, bottom, left) convention of the upstream detector.
type Box struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Width returns the box width in pixels.
func (b Box) Width() int { return b.Right - b.Left }

// Height returns the box height in pixels.
func (b Box) Height() int { return b.Bottom - b.Top }

// Empty reports whether the box has zero area.
func (b Box) Empty() bool { return b.Width() <= 0 || b.Height() <= 0 }

// QualityReport rates a face crop's suitability for matching. It is
// informational: callers compare OverallScore against the quality
// threshold to flag a capture, not to reject it.
type QualityReport struct {
	OverallScore float64        `json:"overall_score"`
	Metrics      QualityMetrics `json:"metrics"`
	Issues       []string       `json:"issues,omitempty"`
}

// QualityMetrics holds the individual quality scores, each in [0, 1].
type QualityMetrics struct {
	SizeScore        float64 `json:"size_score"`
	BlurScore        float64 `json:"blur_score"`
	BrightnessScore  float64 `json:"brightness_score"`
	OrientationScore float64 `json:"orientation_score"`
}

// MatchResult is the decision for one queried embedding.
type MatchResult struct {
	Matched    bool           `json:"matched"`
	Roll       string         `json:"roll,omitempty"`
	Name       string         `json:"name,omitempty"`
	Meta       Metadata       `json:"metadata,omitempty"`
	Distance   float64        `json:"distance"`
	Confidence float64        `json:"confidence"`
	Quality    *QualityReport `json:"quality,omitempty"`
}

// PerformanceStats is a point-in-time copy of the collector's counters
// together with its derived values.
type PerformanceStats struct {
	Attempts        int64   `json:"total_attempts"`
	Successes       int64   `json:"successful_recognitions"`
	RecognitionRate float64 `json:"recognition_rate"`
	AvgLatency      float64 `json:"avg_processing_time,omitempty"`
	MaxLatency      float64 `json:"max_processing_time,omitempty"`
	AvgConfidence   float64 `json:"avg_confidence,omitempty"`
	MinConfidence   float64 `json:"min_confidence,omitempty"`
}
