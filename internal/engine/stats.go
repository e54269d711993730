package engine

import (
	"sync"
	"time"
)

// StatsCollector aggregates attempt, success, latency and confidence
// counters over the engine's lifetime. Counters only grow; Reset is an
// explicit caller action.
type StatsCollector struct {
	mu          sync.Mutex
	attempts    int64
	successes   int64
	latencies   []float64 // seconds
	confidences []float64
}

// NewStatsCollector creates an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{}
}

// RecordAttempt counts one matching call and its processing latency.
func (s *StatsCollector) RecordAttempt(latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	s.latencies = append(s.latencies, latency.Seconds())
}

// RecordSuccess counts one accepted match and its confidence.
func (s *StatsCollector) RecordSuccess(confidence float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes++
	s.confidences = append(s.confidences, confidence)
}

// RecordLatency appends a latency sample without counting an attempt.
// Used by collaborators that time work outside the matching call.
func (s *StatsCollector) RecordLatency(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latencies = append(s.latencies, seconds)
}

// Reset clears all counters.
func (s *StatsCollector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = 0
	s.successes = 0
	s.latencies = nil
	s.confidences = nil
}

// Snapshot returns a copy of the counters with derived values filled in.
// The recognition rate is 0.0 with zero attempts, never a division by zero.
func (s *StatsCollector) Snapshot() PerformanceStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := PerformanceStats{
		Attempts:  s.attempts,
		Successes: s.successes,
	}
	if s.attempts > 0 {
		stats.RecognitionRate = float64(s.successes) / float64(s.attempts)
	}
	if len(s.latencies) > 0 {
		stats.AvgLatency = mean(s.latencies)
		stats.MaxLatency = maxOf(s.latencies)
	}
	if len(s.confidences) > 0 {
		stats.AvgConfidence = mean(s.confidences)
		stats.MinConfidence = minOf(s.confidences)
	}
	return stats
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
