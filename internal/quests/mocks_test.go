package quests

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/taskventure/backend/internal/gamification"
	"github.com/taskventure/backend/internal/kv"
	"github.com/taskventure/backend/internal/models"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// MockLedger records awards through testify/mock.
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Award(ctx context.Context, title string, complexity models.Complexity, amount int) (*gamification.AwardResult, error) {
	args := m.Called(ctx, title, complexity, amount)
	res, _ := args.Get(0).(*gamification.AwardResult)
	return res, args.Error(1)
}

func (m *MockLedger) Snapshot() models.LedgerState {
	args := m.Called()
	return args.Get(0).(models.LedgerState)
}

func (m *MockLedger) Restore(ctx context.Context, state models.LedgerState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func awardResult(amount, total int) *gamification.AwardResult {
	progress := gamification.ProgressFor(total)
	return &gamification.AwardResult{
		Entry:         models.LedgerEntry{XPGained: amount, Level: progress.Level},
		PreviousLevel: gamification.LevelForXP(total - amount),
		LeveledUp:     progress.Level > gamification.LevelForXP(total-amount),
		Progress:      progress,
	}
}

// stubGenerator returns fixed quests or an error.
type stubGenerator struct {
	quests  []models.Quest
	err     error
	block   chan struct{}
	started chan struct{}
}

func (g *stubGenerator) Generate(ctx context.Context, input string) ([]models.Quest, error) {
	if g.started != nil {
		close(g.started)
	}
	if g.block != nil {
		<-g.block
	}
	if g.err != nil {
		return nil, g.err
	}
	out := make([]models.Quest, len(g.quests))
	copy(out, g.quests)
	return out, nil
}

// failingStore accepts reads and rejects every write.
type failingStore struct {
	kv.Store
}

func (failingStore) Put(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

func quest(title string, tasks int, xp int) models.Quest {
	q := models.Quest{Title: title, Complexity: models.ComplexityEasy, XPReward: xp}
	for i := 0; i < tasks; i++ {
		q.Tasks = append(q.Tasks, title+" task "+string(rune('A'+i)))
	}
	return q
}
