package credentials

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/models"
)

type Handler struct {
	vault *Vault
}

func NewHandler(vault *Vault) *Handler {
	return &Handler{vault: vault}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/settings", h.GetSettings).Methods("GET")
	r.HandleFunc("/settings/api-key", h.SaveAPIKeys).Methods("PUT")
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	providers := h.vault.Providers()
	writeJSON(w, http.StatusOK, models.SettingsResponse{
		HasKeys:   len(providers) > 0,
		Providers: providers,
	})
}

func (h *Handler) SaveAPIKeys(w http.ResponseWriter, r *http.Request) {
	var req models.SaveAPIKeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body", Code: qerrors.CodeInvalidArgument})
		return
	}
	if len(req.Keys) == 0 {
		writeError(w, qerrors.ErrInvalidArgument("keys", "at least one key is required"))
		return
	}

	var warnings []string
	if err := h.vault.Save(r.Context(), req.Keys); err != nil {
		if !qerrors.IsPersistence(err) {
			writeError(w, err)
			return
		}
		warnings = append(warnings, qerrors.Message(err))
	}

	providers := h.vault.Providers()
	writeJSON(w, http.StatusOK, models.SettingsResponse{
		HasKeys:   len(providers) > 0,
		Providers: providers,
		Warnings:  warnings,
	})
}

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
