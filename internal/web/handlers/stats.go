package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-attend/internal/engine"
)

// StatsHandler serves the recognition performance counters.
type StatsHandler struct {
	engine *engine.Engine
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(eng *engine.Engine) *StatsHandler {
	return &StatsHandler{engine: eng}
}

// StatsResponse combines performance counters with store totals.
type StatsResponse struct {
	engine.PerformanceStats
	RegisteredIdentities int                 `json:"registered_identities"`
	StoredEmbeddings     int                 `json:"stored_embeddings"`
	DetectorMode         engine.DetectorMode `json:"detector_mode"`
}

// Get returns a point-in-time view of the counters.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Store().Snapshot()
	respondJSON(w, http.StatusOK, StatsResponse{
		PerformanceStats:     h.engine.Stats(),
		RegisteredIdentities: snap.Identities(),
		StoredEmbeddings:     snap.Len(),
		DetectorMode:         h.engine.DetectorMode(),
	})
}

// Reset clears the counters. Thresholds and the store are untouched.
func (h *StatsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.engine.ResetStats()
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
