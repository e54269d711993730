package engine

import (
	"fmt"
	"testing"
)

func TestIndex_EmptySnapshot(t *testing.T) {
	store := NewStore(3)
	if idx := BuildIndex(store.Snapshot()); idx != nil {
		t.Error("expected nil index for an empty snapshot")
	}
	if idx := BuildIndex(nil); idx != nil {
		t.Error("expected nil index for a nil snapshot")
	}
}

func TestIndex_NearestAgreesWithLinearScan(t *testing.T) {
	store := NewStore(4)
	var identities []Identity
	for i := 0; i < 20; i++ {
		center := Embedding{float32(i), float32(i % 5), float32(i % 3), 0}
		identities = append(identities,
			testIdentity(fmt.Sprintf("%03d", i), fmt.Sprintf("person-%d", i), center))
	}
	store.Load(identities)
	snap := store.Snapshot()

	idx := BuildIndex(snap)
	if idx == nil {
		t.Fatal("expected an index")
	}
	if idx.Len() != 20 {
		t.Fatalf("expected 20 indexed embeddings, got %d", idx.Len())
	}

	query := Embedding{7.1, 2.05, 1.02, 0}
	entry, dist := idx.Nearest(query)
	if entry == nil {
		t.Fatal("expected a nearest entry")
	}

	// Linear reference.
	bestDist := dist + 1
	var bestRoll string
	for _, e := range snap.Entries() {
		if d := EuclideanDistance(query, e.Embedding); d < bestDist {
			bestDist = d
			bestRoll = e.Roll
		}
	}
	if entry.Roll != bestRoll {
		t.Errorf("index picked %s, linear scan picked %s", entry.Roll, bestRoll)
	}
	if dist != bestDist {
		t.Errorf("index distance %f, linear distance %f", dist, bestDist)
	}
}

func TestMatcher_IndexedMatch(t *testing.T) {
	store := NewStore(3)
	store.Load([]Identity{
		testIdentity("101", "Alice", Embedding{1, 0, 0}),
		testIdentity("102", "Bob", Embedding{0, 1, 0}),
	})
	snap := store.Snapshot()
	idx := BuildIndex(snap)

	m := NewMatcher(DefaultThresholds())
	result := m.MatchIndexed(Embedding{0.98, 0.02, 0}, snap, idx)
	if !result.Matched || result.Roll != "101" {
		t.Errorf("expected indexed match to Alice, got %+v", result)
	}
}

func TestMatcher_StaleIndexFallsBackToScan(t *testing.T) {
	store := NewStore(3)
	store.Load([]Identity{testIdentity("101", "Alice", Embedding{1, 0, 0})})
	idx := BuildIndex(store.Snapshot())

	// New snapshot; the old index no longer applies.
	store.Add(testIdentity("102", "Bob", Embedding{0, 1, 0}))
	snap := store.Snapshot()

	m := NewMatcher(DefaultThresholds())
	result := m.MatchIndexed(Embedding{0, 1, 0}, snap, idx)
	if !result.Matched || result.Roll != "102" {
		t.Errorf("expected fallback scan to find Bob in the new snapshot, got %+v", result)
	}
}
