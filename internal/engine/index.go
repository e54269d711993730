package engine

import (
	"math"

	"github.com/coder/hnsw"
)

// HNSW parameters for 128-dim face embeddings.
const (
	indexMaxNeighbors = 16
)

// Index is an approximate nearest-neighbor index over one snapshot. It is
// tied to the snapshot it was built from; when the store publishes a new
// snapshot the index must be rebuilt. Exact linear scan stays the
// reference behavior, the index is an opt-in for large stores.
type Index struct {
	snap  *Snapshot
	graph *hnsw.Graph[int]
}

// BuildIndex builds an HNSW graph over all embeddings in the snapshot.
// Returns nil for an empty snapshot.
func BuildIndex(snap *Snapshot) *Index {
	if snap == nil || snap.Len() == 0 {
		return nil
	}

	g := hnsw.NewGraph[int]()
	g.M = indexMaxNeighbors
	g.Ml = 1.0 / float64(indexMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	entries := snap.Entries()
	for i := range entries {
		g.Add(hnsw.MakeNode(i, entries[i].Embedding))
	}

	return &Index{snap: snap, graph: g}
}

// Snapshot returns the snapshot this index was built from.
func (ix *Index) Snapshot() *Snapshot { return ix.snap }

// Len returns the number of indexed embeddings.
func (ix *Index) Len() int { return ix.snap.Len() }

// Nearest returns the closest stored entry to the query and its exact
// Euclidean distance. The graph search is approximate; the distance is
// recomputed from the embedding so thresholds apply to the true value.
func (ix *Index) Nearest(query Embedding) (*Entry, float64) {
	nodes := ix.graph.Search(query, 1)
	if len(nodes) == 0 {
		return nil, math.Inf(1)
	}

	entry := &ix.snap.Entries()[nodes[0].Key]
	return entry, EuclideanDistance(query, entry.Embedding)
}
