package engine

import (
	"log"
	"math"
	"sync/atomic"
)

// Matcher makes nearest-neighbor accept/reject decisions against store
// snapshots using the active threshold set. Thresholds are swapped
// atomically, so a calibration can retarget a matcher that is being used
// concurrently by recognition workers.
type Matcher struct {
	thresholds atomic.Pointer[Thresholds]
}

// NewMatcher creates a matcher with the given initial thresholds.
func NewMatcher(t Thresholds) *Matcher {
	m := &Matcher{}
	m.thresholds.Store(&t)
	return m
}

// Thresholds returns the active threshold set.
func (m *Matcher) Thresholds() Thresholds {
	return *m.thresholds.Load()
}

// SetThresholds replaces the active threshold set.
func (m *Matcher) SetThresholds(t Thresholds) {
	m.thresholds.Store(&t)
}

// Match finds the nearest stored embedding to the query and applies both
// acceptance gates: distance at or below the distance threshold AND
// confidence (1 - distance) at or above the confidence threshold. The two
// gates are redundant while the calibration formula ties them together,
// but they are kept independent so a manual override of one does not
// silently move the other.
//
// An empty snapshot yields an unmatched result with distance +Inf. Ties go
// to the first entry in snapshot order.
func (m *Matcher) Match(query Embedding, snap *Snapshot) MatchResult {
	return m.match(query, snap, nil)
}

// MatchIndexed is Match using a prebuilt approximate index for the
// candidate search. The accept decision is identical; only the nearest
// neighbor search is approximate.
func (m *Matcher) MatchIndexed(query Embedding, snap *Snapshot, idx *Index) MatchResult {
	return m.match(query, snap, idx)
}

func (m *Matcher) match(query Embedding, snap *Snapshot, idx *Index) MatchResult {
	result := MatchResult{Distance: math.Inf(1)}
	if snap == nil || snap.Len() == 0 {
		return result
	}

	var best *Entry
	bestDist := math.Inf(1)

	if idx != nil && idx.Snapshot() == snap {
		best, bestDist = idx.Nearest(query)
	}
	if best == nil {
		entries := snap.Entries()
		for i := range entries {
			d := EuclideanDistance(query, entries[i].Embedding)
			if d < bestDist {
				bestDist = d
				best = &entries[i]
			}
		}
	}
	if best == nil {
		return result
	}

	confidence := 1.0 - bestDist
	result.Distance = bestDist
	result.Confidence = confidence

	t := m.Thresholds()
	if bestDist <= t.Distance && confidence >= t.Confidence {
		result.Matched = true
		result.Roll = best.Roll
		result.Name = best.Meta.Name
		result.Meta = best.Meta
		return result
	}

	// Rejected. The best candidate is logged for diagnostics but never
	// surfaced in the result.
	log.Printf("matcher: unknown face, closest %s at distance %.3f (confidence %.3f)",
		best.Roll, bestDist, confidence)
	return result
}
