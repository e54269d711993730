package engine

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// CalibrationWriter persists calibration results for audit and replay.
// Implemented by the database backends; a nil writer disables persistence.
type CalibrationWriter interface {
	SaveCalibration(ctx context.Context, result *CalibrationResult) error
}

// Options configures a new Engine.
type Options struct {
	Dim          int
	Thresholds   Thresholds    // zero value falls back to DefaultThresholds
	Quality      QualityConfig // zero value falls back to DefaultQualityConfig
	DetectorMode DetectorMode
	Calibrations CalibrationWriter // optional
	UseIndex     bool              // approximate NN index over snapshots
}

// Engine ties the store, matcher, calibrator, quality assessor, adaptive
// selector and stats collector together behind the recognition API. It is
// an explicitly constructed, dependency-injected object; there is no
// package-level singleton.
type Engine struct {
	store        *Store
	matcher      *Matcher
	calibrator   *Calibrator
	quality      *QualityAssessor
	adaptive     *AdaptiveSelector
	stats        *StatsCollector
	calibrations CalibrationWriter

	useIndex bool
	indexMu  sync.Mutex
	index    atomic.Pointer[Index]
}

// New creates an engine from options.
func New(opts Options) *Engine {
	thresholds := opts.Thresholds
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	quality := opts.Quality
	if quality == (QualityConfig{}) {
		quality = DefaultQualityConfig()
	}

	calibrator := NewCalibrator()
	calibrator.QualityThreshold = thresholds.Quality

	return &Engine{
		store:        NewStore(opts.Dim),
		matcher:      NewMatcher(thresholds),
		calibrator:   calibrator,
		quality:      NewQualityAssessor(quality),
		adaptive:     NewAdaptiveSelector(opts.DetectorMode),
		stats:        NewStatsCollector(),
		calibrations: opts.Calibrations,
		useIndex:     opts.UseIndex,
	}
}

// Store returns the engine's embedding store.
func (e *Engine) Store() *Store { return e.store }

// Load replaces the store contents and refreshes the index if enabled.
func (e *Engine) Load(identities []Identity) {
	e.store.Load(identities)
	e.refreshIndex()
}

// Add appends one identity's embeddings and refreshes the index if enabled.
func (e *Engine) Add(id Identity) {
	e.store.Add(id)
	e.refreshIndex()
}

// Recognize matches one detected face against the store. The frame may be
// nil when no quality report is requested; with withQuality set and a
// frame present, the result carries a QualityReport for the cropped box.
// Low quality is flagged, never used to reject the match.
func (e *Engine) Recognize(box Box, embedding Embedding, frame image.Image, withQuality bool) MatchResult {
	start := time.Now()
	snap := e.store.Snapshot()

	var result MatchResult
	if idx := e.currentIndex(snap); idx != nil {
		result = e.matcher.MatchIndexed(embedding, snap, idx)
	} else {
		result = e.matcher.Match(embedding, snap)
	}

	if withQuality {
		report := e.quality.Assess(frame, box)
		result.Quality = &report
		if report.OverallScore < e.matcher.Thresholds().Quality {
			log.Printf("engine: low quality face detected: %v", report.Issues)
		}
	}

	latency := time.Since(start)
	e.stats.RecordAttempt(latency)
	if result.Matched {
		e.stats.RecordSuccess(result.Confidence)
	}
	e.adaptive.Observe(latency)

	return result
}

// Calibrate derives new thresholds from the current snapshot and installs
// them. ErrInsufficientData leaves the active thresholds untouched. A
// persistence failure is returned to the caller, but the freshly computed
// thresholds stay installed and usable.
func (e *Engine) Calibrate(ctx context.Context) (*CalibrationResult, error) {
	snap := e.store.Snapshot()

	result, err := e.calibrator.Calibrate(ctx, snap, e.adaptive.Mode())
	if err != nil {
		return nil, err
	}

	e.matcher.SetThresholds(Thresholds{
		Distance:   result.DistanceThreshold,
		Confidence: result.ConfidenceThreshold,
		Quality:    result.QualityThreshold,
	})

	if e.calibrations != nil {
		if err := e.calibrations.SaveCalibration(ctx, result); err != nil {
			return result, fmt.Errorf("saving calibration result: %w", err)
		}
	}
	return result, nil
}

// SetThresholds installs a manual threshold override.
func (e *Engine) SetThresholds(t Thresholds) {
	e.matcher.SetThresholds(t)
}

// CurrentThresholds returns the active thresholds and detector mode.
func (e *Engine) CurrentThresholds() (Thresholds, DetectorMode) {
	return e.matcher.Thresholds(), e.adaptive.Mode()
}

// RecordLatency feeds an externally measured latency sample (seconds)
// into the stats collector.
func (e *Engine) RecordLatency(seconds float64) {
	e.stats.RecordLatency(seconds)
}

// Stats returns a snapshot of the performance counters.
func (e *Engine) Stats() PerformanceStats {
	return e.stats.Snapshot()
}

// ResetStats clears the performance counters.
func (e *Engine) ResetStats() {
	e.stats.Reset()
}

// DetectorMode returns the adaptive selector's current mode.
func (e *Engine) DetectorMode() DetectorMode {
	return e.adaptive.Mode()
}

// ObserveDetection forwards a detection latency to the adaptive selector.
// Used by capture loops that time the upstream detector separately from
// the matching call.
func (e *Engine) ObserveDetection(latency time.Duration) {
	e.adaptive.Observe(latency)
}

// currentIndex returns the index when it is enabled and matches the given
// snapshot, nil otherwise (the matcher then falls back to a linear scan).
func (e *Engine) currentIndex(snap *Snapshot) *Index {
	if !e.useIndex {
		return nil
	}
	idx := e.index.Load()
	if idx == nil || idx.Snapshot() != snap {
		return nil
	}
	return idx
}

// refreshIndex rebuilds the approximate index for the latest snapshot.
func (e *Engine) refreshIndex() {
	if !e.useIndex {
		return
	}
	e.indexMu.Lock()
	defer e.indexMu.Unlock()
	e.index.Store(BuildIndex(e.store.Snapshot()))
}
