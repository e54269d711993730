package engine

import (
	"math"
	"testing"
	"time"
)

func TestStats_ZeroAttempts(t *testing.T) {
	s := NewStatsCollector().Snapshot()
	if s.RecognitionRate != 0.0 {
		t.Errorf("recognition rate with zero attempts must be 0.0, got %f", s.RecognitionRate)
	}
	if s.Attempts != 0 || s.Successes != 0 {
		t.Errorf("expected empty counters, got %+v", s)
	}
}

func TestStats_RecognitionRate(t *testing.T) {
	c := NewStatsCollector()
	for i := 0; i < 4; i++ {
		c.RecordAttempt(10 * time.Millisecond)
	}
	c.RecordSuccess(0.9)

	s := c.Snapshot()
	if s.Attempts != 4 || s.Successes != 1 {
		t.Fatalf("expected 4 attempts / 1 success, got %d / %d", s.Attempts, s.Successes)
	}
	if math.Abs(s.RecognitionRate-0.25) > 1e-9 {
		t.Errorf("expected rate 0.25, got %f", s.RecognitionRate)
	}
}

func TestStats_DerivedLatencyAndConfidence(t *testing.T) {
	c := NewStatsCollector()
	c.RecordAttempt(100 * time.Millisecond)
	c.RecordAttempt(300 * time.Millisecond)
	c.RecordSuccess(0.8)
	c.RecordSuccess(0.6)

	s := c.Snapshot()
	if math.Abs(s.AvgLatency-0.2) > 1e-9 {
		t.Errorf("expected avg latency 0.2s, got %f", s.AvgLatency)
	}
	if math.Abs(s.MaxLatency-0.3) > 1e-9 {
		t.Errorf("expected max latency 0.3s, got %f", s.MaxLatency)
	}
	if math.Abs(s.AvgConfidence-0.7) > 1e-9 {
		t.Errorf("expected avg confidence 0.7, got %f", s.AvgConfidence)
	}
	if math.Abs(s.MinConfidence-0.6) > 1e-9 {
		t.Errorf("expected min confidence 0.6, got %f", s.MinConfidence)
	}
}

func TestStats_RecordLatencyWithoutAttempt(t *testing.T) {
	c := NewStatsCollector()
	c.RecordLatency(0.5)

	s := c.Snapshot()
	if s.Attempts != 0 {
		t.Errorf("RecordLatency must not count an attempt, got %d", s.Attempts)
	}
	if s.AvgLatency != 0.5 {
		t.Errorf("expected latency sample recorded, got %f", s.AvgLatency)
	}
}

func TestStats_Reset(t *testing.T) {
	c := NewStatsCollector()
	c.RecordAttempt(time.Millisecond)
	c.RecordSuccess(0.9)
	c.Reset()

	s := c.Snapshot()
	if s.Attempts != 0 || s.Successes != 0 || s.AvgLatency != 0 || s.AvgConfidence != 0 {
		t.Errorf("expected cleared stats after reset, got %+v", s)
	}
}
