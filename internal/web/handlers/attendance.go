package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attend/internal/database"
)

// AttendanceHandler serves the daily attendance records.
type AttendanceHandler struct {
	store database.AttendanceStore
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(store database.AttendanceStore) *AttendanceHandler {
	return &AttendanceHandler{store: store}
}

// dayParam extracts and validates the {day} URL parameter.
func dayParam(r *http.Request) (string, bool) {
	day := chi.URLParam(r, "day")
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return "", false
	}
	return day, true
}

// ListDay returns all attendance records for one day.
func (h *AttendanceHandler) ListDay(w http.ResponseWriter, r *http.Request) {
	day, ok := dayParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}

	records, err := h.store.ListByDay(r.Context(), day)
	if err != nil {
		log.Printf("failed to list attendance for %s: %v", day, err)
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}
	if records == nil {
		records = []database.AttendanceRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}

// ClearDay removes all attendance records for one day.
func (h *AttendanceHandler) ClearDay(w http.ResponseWriter, r *http.Request) {
	day, ok := dayParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}

	if err := h.store.ClearDay(r.Context(), day); err != nil {
		log.Printf("failed to clear attendance for %s: %v", day, err)
		respondError(w, http.StatusInternalServerError, "failed to clear attendance")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared", "day": day})
}
