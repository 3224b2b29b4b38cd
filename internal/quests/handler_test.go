package quests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/kv"
	"github.com/taskventure/backend/internal/models"
)

func setupRouter(t *testing.T, ledger Ledger, gen QuestGenerator) (*mux.Router, *Service) {
	t.Helper()
	svc := newTestService(t, kv.NewMemoryStore(), ledger, gen)
	r := mux.NewRouter()
	NewHandler(svc).Register(r)
	return r, svc
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandler_GenerateAndToggle(t *testing.T) {
	ledger := &MockLedger{}
	gen := &stubGenerator{quests: []models.Quest{quest("Wash car", 1, 100)}}
	r, _ := setupRouter(t, ledger, gen)

	rec := do(r, http.MethodPost, "/quests/generate", `{"input":"wash the car"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var generated models.GenerateQuestsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &generated))
	require.Len(t, generated.Quests, 1)
	id := generated.Quests[0].ID

	ledger.On("Award", mock.Anything, "Wash car", models.ComplexityEasy, 100).Return(awardResult(100, 100), nil)

	rec = do(r, http.MethodPost, "/quests/"+id+"/tasks/0/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var toggled models.ToggleTaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toggled))
	require.NotNil(t, toggled.Reward)
	assert.Equal(t, 100, toggled.Reward.XPGained)
	assert.Equal(t, []int{0}, toggled.Quest.Completed)

	rec = do(r, http.MethodGet, "/quests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.QuestsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Quests, 1)
}

func TestHandler_ErrorMapping(t *testing.T) {
	r, _ := setupRouter(t, &MockLedger{}, &stubGenerator{err: qerrors.ErrGeneration("upstream failed", nil)})

	tests := []struct {
		method, path, body string
		status             int
		code               string
	}{
		{http.MethodGet, "/quests/missing", "", http.StatusNotFound, qerrors.CodeNotFound},
		{http.MethodPost, "/quests/missing/tasks/0/toggle", "", http.StatusNotFound, qerrors.CodeNotFound},
		{http.MethodPost, "/quests/generate", `{"input":""}`, http.StatusBadRequest, qerrors.CodeInvalidArgument},
		{http.MethodPost, "/quests/generate", `not json`, http.StatusBadRequest, qerrors.CodeInvalidArgument},
		{http.MethodPost, "/quests/generate", `{"input":"do it"}`, http.StatusBadGateway, qerrors.CodeGeneration},
		{http.MethodPut, "/view/current-quest", `{"index":-1}`, http.StatusBadRequest, qerrors.CodeInvalidArgument},
	}

	for _, tt := range tests {
		rec := do(r, tt.method, tt.path, tt.body)
		assert.Equal(t, tt.status, rec.Code, "%s %s", tt.method, tt.path)

		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, tt.code, resp.Code, "%s %s", tt.method, tt.path)
	}
}

func TestHandler_ExportImport(t *testing.T) {
	ledger := &MockLedger{}
	ledger.On("Snapshot").Return(models.LedgerState{TotalXP: 40, History: []models.LedgerEntry{}})
	ledger.On("Restore", mock.Anything, mock.Anything).Return(nil)
	r, svc := setupRouter(t, ledger, nil)
	seedQuests(t, svc, quest("A", 1, 100))

	rec := do(r, http.MethodGet, "/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "taskventure-export.json")

	rec = do(r, http.MethodPost, "/import", rec.Body.String())
	require.Equal(t, http.StatusOK, rec.Code)
	ledger.AssertCalled(t, "Restore", mock.Anything, models.LedgerState{TotalXP: 40, History: []models.LedgerEntry{}})
}
