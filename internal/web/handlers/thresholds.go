package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kozaktomas/face-attend/internal/engine"
)

// ThresholdsHandler exposes the active acceptance thresholds.
type ThresholdsHandler struct {
	engine *engine.Engine
}

// NewThresholdsHandler creates a new thresholds handler.
func NewThresholdsHandler(eng *engine.Engine) *ThresholdsHandler {
	return &ThresholdsHandler{engine: eng}
}

// ThresholdsResponse is the active threshold set plus the detector mode.
type ThresholdsResponse struct {
	engine.Thresholds
	DetectorMode engine.DetectorMode `json:"detector_mode"`
}

// Get returns the currently active thresholds.
func (h *ThresholdsHandler) Get(w http.ResponseWriter, r *http.Request) {
	thresholds, mode := h.engine.CurrentThresholds()
	respondJSON(w, http.StatusOK, ThresholdsResponse{
		Thresholds:   thresholds,
		DetectorMode: mode,
	})
}

// Update installs a manual threshold override. The next calibration run
// replaces it again.
func (h *ThresholdsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req engine.Thresholds
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Distance <= 0 || req.Distance > 1 ||
		req.Confidence <= 0 || req.Confidence > 1 ||
		req.Quality <= 0 || req.Quality > 1 {
		respondError(w, http.StatusBadRequest, "thresholds must be in (0, 1]")
		return
	}

	h.engine.SetThresholds(req)

	thresholds, mode := h.engine.CurrentThresholds()
	respondJSON(w, http.StatusOK, ThresholdsResponse{
		Thresholds:   thresholds,
		DetectorMode: mode,
	})
}
