package gamification

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/taskventure/backend/internal/models"
)

type Handler struct {
	ledger *Ledger
}

func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// Register mounts the progress routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/progress", h.GetProgress).Methods("GET")
	r.HandleFunc("/progression/table", h.GetProgressionTable).Methods("GET")
}

// ── Progress ────────────────────────────────────────────

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.Progress())
}

func (h *Handler) GetProgressionTable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ProgressionTableResponse{
		MaxLevel:   MaxLevel,
		Thresholds: Thresholds(),
	})
}

// ── Helpers ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
