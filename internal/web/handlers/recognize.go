package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-attend/internal/database"
	"github.com/kozaktomas/face-attend/internal/engine"
)

// RecognizeHandler handles recognition requests.
type RecognizeHandler struct {
	engine     *engine.Engine
	attendance database.AttendanceStore // optional, nil disables attendance marking
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(eng *engine.Engine, attendance database.AttendanceStore) *RecognizeHandler {
	return &RecognizeHandler{engine: eng, attendance: attendance}
}

// RecognizeRequest is one face to identify. The embedding comes from the
// detector sidecar; the box is optional and only used for reporting.
type RecognizeRequest struct {
	Embedding      []float32  `json:"embedding"`
	Box            engine.Box `json:"box"`
	MarkAttendance bool       `json:"mark_attendance"`
	LatencyMs      float64    `json:"latency_ms,omitempty"`
}

// RecognizeResponse wraps the match decision with optional attendance info.
type RecognizeResponse struct {
	engine.MatchResult
	AttendanceMarked bool   `json:"attendance_marked,omitempty"`
	AttendanceID     string `json:"attendance_id,omitempty"`
}

// Recognize runs one embedding through the matcher.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var req RecognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Embedding) == 0 {
		respondError(w, http.StatusBadRequest, "embedding is required")
		return
	}

	result := h.engine.Recognize(req.Box, req.Embedding, nil, false)
	if req.LatencyMs > 0 {
		h.engine.RecordLatency(req.LatencyMs / 1000.0)
	}

	resp := RecognizeResponse{MatchResult: result}

	if result.Matched && req.MarkAttendance && h.attendance != nil {
		now := time.Now()
		rec := database.AttendanceRecord{
			ID:         uuid.New().String(),
			Roll:       result.Roll,
			Name:       result.Name,
			Day:        now.Format("2006-01-02"),
			MarkedAt:   now,
			Confidence: result.Confidence,
		}
		stored, created, err := h.attendance.MarkPresent(r.Context(), rec)
		if err != nil {
			// Recognition itself succeeded, report it with the marking failure logged.
			log.Printf("failed to mark attendance for %s: %v", sanitizeForLog(result.Roll), err)
		} else {
			resp.AttendanceMarked = created
			resp.AttendanceID = stored.ID
		}
	}

	respondJSON(w, http.StatusOK, resp)
}
