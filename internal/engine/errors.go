package engine

import "errors"

// Sentinel errors for the non-fatal failure modes of the engine. None of
// these abort the engine; it keeps running on its last-known-good (or
// default) thresholds.
var (
	// ErrInsufficientData means calibration input was too small or not
	// diverse enough. Thresholds are left unchanged.
	ErrInsufficientData = errors.New("insufficient data for calibration")

	// ErrDimensionMismatch marks an embedding whose length differs from
	// the store dimension. The offending embedding is skipped.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyRegion marks a zero-area crop passed to quality assessment.
	ErrEmptyRegion = errors.New("empty face region")
)
