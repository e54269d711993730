package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/kozaktomas/face-attend/internal/database"
	"github.com/kozaktomas/face-attend/internal/engine"
)

// CalibrateHandler triggers calibration runs and serves their history.
type CalibrateHandler struct {
	engine       *engine.Engine
	calibrations database.CalibrationStore // optional, nil disables history
}

// NewCalibrateHandler creates a new calibrate handler.
func NewCalibrateHandler(eng *engine.Engine, calibrations database.CalibrationStore) *CalibrateHandler {
	return &CalibrateHandler{engine: eng, calibrations: calibrations}
}

// CalibrateResponse is the calibration outcome. Warning is set when the
// thresholds were installed but persisting the record failed.
type CalibrateResponse struct {
	*engine.CalibrationResult
	Warning string `json:"warning,omitempty"`
}

// Run performs a calibration over the current store snapshot.
func (h *CalibrateHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Calibrate(r.Context())
	if errors.Is(err, engine.ErrInsufficientData) {
		respondError(w, http.StatusUnprocessableEntity, "not enough embeddings to calibrate")
		return
	}
	if err != nil && result == nil {
		respondError(w, http.StatusInternalServerError, "calibration failed")
		return
	}

	resp := CalibrateResponse{CalibrationResult: result}
	if err != nil {
		// Thresholds are installed, only the history write failed.
		log.Printf("failed to persist calibration result: %v", err)
		resp.Warning = "thresholds installed but calibration record was not persisted"
	}
	respondJSON(w, http.StatusOK, resp)
}

// History lists persisted calibration records, newest first.
func (h *CalibrateHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.calibrations == nil {
		respondError(w, http.StatusNotImplemented, "calibration history is not configured")
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	records, err := h.calibrations.ListCalibrations(r.Context(), limit)
	if err != nil {
		log.Printf("failed to list calibrations: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list calibrations")
		return
	}
	if records == nil {
		records = []database.CalibrationRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}
