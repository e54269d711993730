package engine

import (
	"testing"
	"time"
)

// observeAttempts feeds count attempts with the head latency, then tail
// attempts with the tail latency, so the last samples dominate the window.
func observeAttempts(a *AdaptiveSelector, count int, head time.Duration, tail int, tailLatency time.Duration) {
	for i := 0; i < count-tail; i++ {
		a.Observe(head)
	}
	for i := 0; i < tail; i++ {
		a.Observe(tailLatency)
	}
}

func TestAdaptive_SlowAccurateDowngradesToFast(t *testing.T) {
	a := NewAdaptiveSelector(DetectorAccurate)
	observeAttempts(a, 100, 300*time.Millisecond, 10, 600*time.Millisecond)

	if a.Mode() != DetectorFast {
		t.Errorf("expected downgrade to fast at 0.6s average, got %s", a.Mode())
	}
}

func TestAdaptive_FastUpgradesToAccurate(t *testing.T) {
	a := NewAdaptiveSelector(DetectorFast)
	observeAttempts(a, 100, 300*time.Millisecond, 10, 100*time.Millisecond)

	if a.Mode() != DetectorAccurate {
		t.Errorf("expected upgrade to accurate at 0.1s average, got %s", a.Mode())
	}
}

func TestAdaptive_HysteresisBandHolds(t *testing.T) {
	for _, start := range []DetectorMode{DetectorFast, DetectorAccurate} {
		a := NewAdaptiveSelector(start)
		observeAttempts(a, 100, 350*time.Millisecond, 10, 350*time.Millisecond)

		if a.Mode() != start {
			t.Errorf("0.35s average inside the hysteresis band should keep mode %s, got %s",
				start, a.Mode())
		}
	}
}

func TestAdaptive_NoEvaluationBeforeCheckpoint(t *testing.T) {
	a := NewAdaptiveSelector(DetectorAccurate)
	// 99 slow attempts: well past the latency bound but one short of the
	// checkpoint.
	observeAttempts(a, 99, 600*time.Millisecond, 10, 600*time.Millisecond)

	if a.Mode() != DetectorAccurate {
		t.Errorf("mode must only change at the 100-attempt checkpoint, got %s", a.Mode())
	}

	a.Observe(600 * time.Millisecond)
	if a.Mode() != DetectorFast {
		t.Errorf("expected downgrade exactly at the checkpoint, got %s", a.Mode())
	}
}

func TestAdaptive_DefaultsToFast(t *testing.T) {
	a := NewAdaptiveSelector("")
	if a.Mode() != DetectorFast {
		t.Errorf("expected fast default, got %s", a.Mode())
	}
}
