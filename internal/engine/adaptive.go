package engine

import (
	"log"
	"sync"
	"time"
)

// Adaptive selection parameters. The window is the number of recent
// latency samples averaged at each checkpoint; the band between the two
// latency bounds is the hysteresis region where no transition happens.
const (
	adaptiveCheckInterval = 100
	adaptiveWindow        = 10
	slowLatency           = 500 * time.Millisecond
	fastLatency           = 200 * time.Millisecond
)

// AdaptiveSelector is a two-state controller that trades detector accuracy
// for latency. It watches per-attempt processing latency and, at every
// checkpoint, downgrades to the fast detector when the accurate one is too
// slow, or upgrades back when there is headroom. Evaluation happens only
// at the checkpoint, never per attempt.
//
// The selector expects a single-writer discipline: one recognition loop
// owns it and calls Observe; Mode may be read from anywhere.
type AdaptiveSelector struct {
	mu       sync.Mutex
	mode     DetectorMode
	attempts int
	recent   []time.Duration // last adaptiveWindow latencies
}

// NewAdaptiveSelector creates a selector starting in the given mode.
func NewAdaptiveSelector(mode DetectorMode) *AdaptiveSelector {
	if mode == "" {
		mode = DetectorFast
	}
	return &AdaptiveSelector{mode: mode}
}

// Mode returns the currently selected detector mode.
func (a *AdaptiveSelector) Mode() DetectorMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Observe records one processed attempt and its latency, and runs the
// checkpoint evaluation every 100 attempts once at least 10 samples exist.
func (a *AdaptiveSelector) Observe(latency time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.attempts++
	a.recent = append(a.recent, latency)
	if len(a.recent) > adaptiveWindow {
		a.recent = a.recent[len(a.recent)-adaptiveWindow:]
	}

	if a.attempts%adaptiveCheckInterval != 0 || len(a.recent) < adaptiveWindow {
		return
	}

	var sum time.Duration
	for _, l := range a.recent {
		sum += l
	}
	avg := sum / time.Duration(len(a.recent))

	switch {
	case avg > slowLatency && a.mode == DetectorAccurate:
		a.mode = DetectorFast
		log.Printf("adaptive: avg latency %v, switching to fast detector", avg)
	case avg < fastLatency && a.mode == DetectorFast:
		a.mode = DetectorAccurate
		log.Printf("adaptive: avg latency %v, switching to accurate detector", avg)
	}
}
