package engine

import (
	"log"
	"sync"
	"sync/atomic"
)

// Store holds identity → embedding-set data and publishes immutable
// snapshots for the calibrator and matcher. Readers grab the current
// snapshot without locking; Load and Add build a fresh snapshot and swap
// it in atomically, so in-flight matching always sees one consistent view.
type Store struct {
	dim      int
	mu       sync.Mutex // serializes writers only
	snapshot atomic.Pointer[Snapshot]
}

// NewStore creates an empty store for embeddings of the given dimension.
// A dim of 0 falls back to DefaultDim.
func NewStore(dim int) *Store {
	if dim <= 0 {
		dim = DefaultDim
	}
	s := &Store{dim: dim}
	s.snapshot.Store(&Snapshot{dim: dim})
	return s
}

// Dim returns the store's embedding dimension.
func (s *Store) Dim() int { return s.dim }

// Snapshot returns the current immutable view of the store.
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Load replaces the store contents with the given identities. Embeddings
// whose length does not match the store dimension are skipped with a log
// line; the rest of the load proceeds.
func (s *Store) Load(identities []Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{dim: s.dim}
	seen := make(map[string]bool)
	for _, id := range identities {
		kept := s.appendIdentity(snap, id)
		if kept > 0 && !seen[id.Roll] {
			seen[id.Roll] = true
			snap.identities++
		}
	}
	s.snapshot.Store(snap)
}

// Add appends embeddings for one identity and republishes a new snapshot.
// The previous snapshot is left untouched for readers still holding it.
func (s *Store) Add(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.snapshot.Load()
	snap := &Snapshot{
		dim:        s.dim,
		entries:    make([]Entry, len(old.entries), len(old.entries)+len(id.Embeddings)),
		identities: old.identities,
	}
	copy(snap.entries, old.entries)

	existing := false
	for i := range old.entries {
		if old.entries[i].Roll == id.Roll {
			existing = true
			break
		}
	}

	kept := s.appendIdentity(snap, id)
	if kept > 0 && !existing {
		snap.identities++
	}
	s.snapshot.Store(snap)
}

// appendIdentity copies one identity's valid embeddings into the snapshot
// being built and returns how many were kept.
func (s *Store) appendIdentity(snap *Snapshot, id Identity) int {
	kept := 0
	for i, emb := range id.Embeddings {
		if len(emb) != s.dim {
			log.Printf("store: skipping embedding %d of %s: dimension %d, want %d",
				i, id.Roll, len(emb), s.dim)
			continue
		}
		snap.entries = append(snap.entries, Entry{
			Roll:      id.Roll,
			Embedding: emb,
			Meta:      id.Meta,
		})
		kept++
	}
	return kept
}
