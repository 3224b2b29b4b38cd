package gamification

import (
	"context"

	"github.com/taskventure/backend/internal/kv"
	"github.com/taskventure/backend/internal/models"
)

// Store persists the ledger as one blob under kv.KeyXP.
type Store struct {
	kv kv.Store
}

func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// LoadLedger returns the persisted ledger, or a zero ledger when nothing has been
// written yet.
func (s *Store) LoadLedger(ctx context.Context) (models.LedgerState, error) {
	var state models.LedgerState
	found, err := kv.GetJSON(ctx, s.kv, kv.KeyXP, &state)
	if err != nil {
		return models.LedgerState{History: []models.LedgerEntry{}}, err
	}
	if !found || state.History == nil {
		state.History = []models.LedgerEntry{}
	}
	if state.TotalXP < 0 {
		state.TotalXP = 0
	}
	return state, nil
}

func (s *Store) SaveLedger(ctx context.Context, state models.LedgerState) error {
	return kv.PutJSON(ctx, s.kv, kv.KeyXP, state)
}
