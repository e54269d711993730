package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kozaktomas/face-attend/internal/database"
	"github.com/kozaktomas/face-attend/internal/engine"
)

// IdentitiesHandler manages the registered identities.
type IdentitiesHandler struct {
	engine *engine.Engine
	repo   database.IdentityWriter // optional, nil keeps identities in-memory only
}

// NewIdentitiesHandler creates a new identities handler.
func NewIdentitiesHandler(eng *engine.Engine, repo database.IdentityWriter) *IdentitiesHandler {
	return &IdentitiesHandler{engine: eng, repo: repo}
}

// IdentitySummary is the listing view of one registered identity.
type IdentitySummary struct {
	Roll       string          `json:"roll"`
	Name       string          `json:"name"`
	Meta       engine.Metadata `json:"metadata"`
	Embeddings int             `json:"embeddings"`
}

// RegisterRequest registers one identity with its face encodings.
type RegisterRequest struct {
	Roll       string          `json:"roll"`
	Meta       engine.Metadata `json:"metadata"`
	Embeddings [][]float32     `json:"embeddings"`
}

// List returns all identities in the current snapshot.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Store().Snapshot()

	byRoll := make(map[string]*IdentitySummary)
	var order []string
	for _, entry := range snap.Entries() {
		summary, ok := byRoll[entry.Roll]
		if !ok {
			summary = &IdentitySummary{Roll: entry.Roll, Name: entry.Meta.Name, Meta: entry.Meta}
			byRoll[entry.Roll] = summary
			order = append(order, entry.Roll)
		}
		summary.Embeddings++
	}

	out := make([]IdentitySummary, 0, len(order))
	for _, roll := range order {
		out = append(out, *byRoll[roll])
	}
	respondJSON(w, http.StatusOK, out)
}

// Register adds one identity to the store and, when persistence is
// configured, saves it. The new embeddings take part in matching
// immediately; thresholds only move on the next calibration run.
func (h *IdentitiesHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Roll == "" {
		respondError(w, http.StatusBadRequest, "roll is required")
		return
	}
	if len(req.Embeddings) == 0 {
		respondError(w, http.StatusBadRequest, "at least one embedding is required")
		return
	}

	dim := h.engine.Store().Dim()
	for _, emb := range req.Embeddings {
		if len(emb) != dim {
			respondError(w, http.StatusBadRequest, "embedding dimension mismatch")
			return
		}
	}

	identity := engine.Identity{
		Roll: req.Roll,
		Meta: req.Meta,
	}
	for _, emb := range req.Embeddings {
		identity.Embeddings = append(identity.Embeddings, engine.Embedding(emb))
	}
	h.engine.Add(identity)

	if h.repo != nil {
		stored := database.StoredIdentity{
			Roll:             req.Roll,
			Name:             req.Meta.Name,
			Role:             req.Meta.Role,
			RegistrationDate: req.Meta.RegistrationDate,
			Embeddings:       req.Embeddings,
			Dim:              dim,
		}
		if err := h.repo.SaveIdentity(r.Context(), stored); err != nil {
			log.Printf("failed to persist identity %s: %v", sanitizeForLog(req.Roll), err)
			respondError(w, http.StatusInternalServerError, "identity added to store but not persisted")
			return
		}
	}

	respondJSON(w, http.StatusCreated, IdentitySummary{
		Roll:       req.Roll,
		Name:       req.Meta.Name,
		Meta:       req.Meta,
		Embeddings: len(req.Embeddings),
	})
}
