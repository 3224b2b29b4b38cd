package quests

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the quest routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/quests", h.ListQuests).Methods("GET")
	r.HandleFunc("/quests", h.ClearQuests).Methods("DELETE")
	r.HandleFunc("/quests/generate", h.GenerateQuests).Methods("POST")
	r.HandleFunc("/quests/{id}", h.GetQuest).Methods("GET")
	r.HandleFunc("/quests/{id}", h.RemoveQuest).Methods("DELETE")
	r.HandleFunc("/quests/{id}/tasks/{index:[0-9]+}/toggle", h.ToggleTask).Methods("POST")

	r.HandleFunc("/view/current-quest", h.GetCurrentQuest).Methods("GET")
	r.HandleFunc("/view/current-quest", h.SetCurrentQuest).Methods("PUT")

	r.HandleFunc("/export", h.Export).Methods("GET")
	r.HandleFunc("/import", h.Import).Methods("POST")
}

// ── Quests ──────────────────────────────────────────────

func (h *Handler) ListQuests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.List())
}

func (h *Handler) GetQuest(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) GenerateQuests(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuestsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body", Code: qerrors.CodeInvalidArgument})
		return
	}

	resp, err := h.service.Generate(r.Context(), req.Input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid task index", Code: qerrors.CodeInvalidArgument})
		return
	}

	resp, err := h.service.ToggleTask(r.Context(), vars["id"], index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RemoveQuest(w http.ResponseWriter, r *http.Request) {
	warnings, err := h.service.RemoveQuest(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.WarningsResponse{Warnings: warnings})
}

func (h *Handler) ClearQuests(w http.ResponseWriter, r *http.Request) {
	warnings, err := h.service.ClearQuests(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.WarningsResponse{Warnings: warnings})
}

// ── View ────────────────────────────────────────────────

func (h *Handler) GetCurrentQuest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.CurrentQuestResponse{Index: h.service.CurrentQuest()})
}

func (h *Handler) SetCurrentQuest(w http.ResponseWriter, r *http.Request) {
	var req models.SetCurrentQuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body", Code: qerrors.CodeInvalidArgument})
		return
	}

	resp, err := h.service.SetCurrentQuest(r.Context(), req.Index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ── Export / Import ─────────────────────────────────────

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="taskventure-export.json"`)
	writeJSON(w, http.StatusOK, h.service.Export())
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var snap models.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid snapshot", Code: qerrors.CodeInvalidArgument})
		return
	}

	warnings, err := h.service.Restore(r.Context(), snap)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.WarningsResponse{Warnings: warnings})
}

// ── Helpers ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, qerrors.HTTPStatus(err), models.ErrorResponse{
		Error: qerrors.Message(err),
		Code:  qerrors.CodeOf(err),
	})
}
