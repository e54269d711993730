package database

import (
	"context"

	"github.com/kozaktomas/face-attend/internal/engine"
)

// IdentityReader provides read access to registered identities.
type IdentityReader interface {
	// LoadIdentities returns all identities with their encodings, ordered
	// by roll with encodings in capture order.
	LoadIdentities(ctx context.Context) ([]StoredIdentity, error)
	// GetIdentity retrieves one identity by roll, nil if not found.
	GetIdentity(ctx context.Context, roll string) (*StoredIdentity, error)
	// FindByName retrieves identities whose normalized name matches.
	FindByName(ctx context.Context, name string) ([]StoredIdentity, error)
	// CountIdentities returns the number of registered identities.
	CountIdentities(ctx context.Context) (int, error)
	// CountEncodings returns the total number of stored encodings.
	CountEncodings(ctx context.Context) (int, error)
}

// IdentityWriter provides write access to registered identities.
type IdentityWriter interface {
	IdentityReader

	// SaveIdentity stores an identity and its encodings, replacing any
	// existing encodings for the same roll.
	SaveIdentity(ctx context.Context, id StoredIdentity) error
	// DeleteIdentity removes an identity and its encodings.
	DeleteIdentity(ctx context.Context, roll string) error
}

// CalibrationStore persists calibration results and serves their history.
// SaveCalibration satisfies engine.CalibrationWriter.
type CalibrationStore interface {
	SaveCalibration(ctx context.Context, result *engine.CalibrationResult) error
	// LatestCalibration returns the most recent record, nil if none exists.
	LatestCalibration(ctx context.Context) (*CalibrationRecord, error)
	// ListCalibrations returns records newest first, up to limit.
	ListCalibrations(ctx context.Context, limit int) ([]CalibrationRecord, error)
}

// AttendanceStore records daily attendance.
type AttendanceStore interface {
	// MarkPresent records a sighting. Returns the stored record and true
	// when this is the first sighting of the roll on that day; the
	// existing record and false otherwise.
	MarkPresent(ctx context.Context, rec AttendanceRecord) (*AttendanceRecord, bool, error)
	// ListByDay returns all records for a day (YYYY-MM-DD), oldest first.
	ListByDay(ctx context.Context, day string) ([]AttendanceRecord, error)
	// ClearDay removes all records for a day. Explicit collaborator
	// action, never done implicitly.
	ClearDay(ctx context.Context, day string) error
}
