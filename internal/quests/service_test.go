package quests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/gamification"
	"github.com/taskventure/backend/internal/kv"
	"github.com/taskventure/backend/internal/models"
)

func newTestService(t *testing.T, store kv.Store, ledger Ledger, gen QuestGenerator) *Service {
	t.Helper()
	svc := NewService(
		NewCollection(store, discard),
		NewCompletionStore(store, discard),
		NewCurrentIndex(store, discard),
		ledger,
		gen,
		discard,
	)
	svc.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return svc
}

func seedQuests(t *testing.T, svc *Service, quests ...models.Quest) []models.Quest {
	t.Helper()
	require.NoError(t, svc.collection.Append(context.Background(), quests))
	svc.rebuildTrackers(svc.collection.List())
	return svc.collection.List()
}

func TestService_AwardsExactlyOncePerCompletion(t *testing.T) {
	ctx := context.Background()
	ledger := &MockLedger{}
	svc := newTestService(t, kv.NewMemoryStore(), ledger, nil)
	q := seedQuests(t, svc, quest("Tidy", 2, 120))[0]

	ledger.On("Award", mock.Anything, "Tidy", models.ComplexityEasy, 120).Return(awardResult(120, 120), nil)

	resp, err := svc.ToggleTask(ctx, q.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, resp.Reward)

	resp, err = svc.ToggleTask(ctx, q.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, resp.Reward)
	assert.Equal(t, 120, resp.Reward.XPGained)
	assert.True(t, resp.Quest.Complete)
	assert.Equal(t, "reward_shown", resp.Quest.RewardState)
	ledger.AssertNumberOfCalls(t, "Award", 1)

	// Un-toggle and re-toggle: exactly one more award.
	resp, err = svc.ToggleTask(ctx, q.ID, 1)
	require.NoError(t, err)
	assert.False(t, resp.Quest.Complete)
	assert.Equal(t, "incomplete", resp.Quest.RewardState)

	_, err = svc.ToggleTask(ctx, q.ID, 1)
	require.NoError(t, err)
	ledger.AssertNumberOfCalls(t, "Award", 2)
}

func TestService_EndToEndLevelling(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	ledger := gamification.NewLedger(gamification.NewStore(store), discard)
	require.NoError(t, ledger.Load(ctx))
	svc := newTestService(t, store, ledger, nil)

	quests := seedQuests(t, svc, quest("First", 1, 150), quest("Second", 1, 50))

	resp, err := svc.ToggleTask(ctx, quests[0].ID, 0)
	require.NoError(t, err)
	require.NotNil(t, resp.Reward)
	assert.Equal(t, 1, resp.Reward.Level)
	assert.Equal(t, 85, ledger.Progress().PercentToNextLevel)

	resp, err = svc.ToggleTask(ctx, quests[1].ID, 0)
	require.NoError(t, err)
	require.NotNil(t, resp.Reward)
	assert.Equal(t, 2, resp.Reward.Level)
	assert.True(t, resp.Reward.LeveledUp)
	assert.Equal(t, 200, ledger.TotalXP())

	history := ledger.History()
	require.Len(t, history, 2)
	assert.Equal(t, "Second", history[0].QuestTitle)
	assert.Equal(t, 2, history[0].Level)
}

func TestService_LoadDoesNotReawardCompleteQuests(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	ledger := &MockLedger{}

	first := newTestService(t, store, ledger, nil)
	q := seedQuests(t, first, quest("Done", 1, 100))[0]
	require.NoError(t, first.completion.ReplaceAll(ctx, q.ID, []int{0}))

	second := newTestService(t, store, ledger, nil)
	assert.Empty(t, second.Load(ctx))

	view, err := second.Get(q.ID)
	require.NoError(t, err)
	assert.True(t, view.Complete)
	assert.Equal(t, "reward_shown", view.RewardState)

	// Leaving and re-entering the complete state awards once.
	ledger.On("Award", mock.Anything, "Done", models.ComplexityEasy, 100).Return(awardResult(100, 100), nil)
	_, err = second.ToggleTask(ctx, q.ID, 0)
	require.NoError(t, err)
	ledger.AssertNotCalled(t, "Award", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	_, err = second.ToggleTask(ctx, q.ID, 0)
	require.NoError(t, err)
	ledger.AssertNumberOfCalls(t, "Award", 1)
}

func TestService_ConcurrentTogglesKeepTrackerInStep(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	ledger := gamification.NewLedger(gamification.NewStore(store), discard)
	require.NoError(t, ledger.Load(ctx))
	svc := newTestService(t, store, ledger, nil)
	q := seedQuests(t, svc, quest("Flip", 1, 100))[0]

	for round := 0; round < 200; round++ {
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 3; i++ {
					_, err := svc.ToggleTask(ctx, q.ID, 0)
					assert.NoError(t, err)
				}
			}()
		}
		wg.Wait()

		// 24 toggles per round leave the set empty again.
		view, err := svc.Get(q.ID)
		require.NoError(t, err)
		require.False(t, view.Complete)
		require.Equal(t, "incomplete", view.RewardState, "round %d", round)
	}

	before := ledger.TotalXP()
	resp, err := svc.ToggleTask(ctx, q.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, resp.Reward)
	assert.Equal(t, before+100, ledger.TotalXP())
}

func TestService_StoredQuestWithoutTasksIsNotComplete(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, kv.PutJSON(ctx, store, kv.KeyQuests, []models.Quest{
		{ID: "empty", Title: "Hollow", Complexity: models.ComplexityEasy, XPReward: 10},
	}))

	svc := newTestService(t, store, &MockLedger{}, nil)
	svc.Load(ctx)

	view, err := svc.Get("empty")
	require.NoError(t, err)
	assert.False(t, view.Complete)
	assert.Equal(t, "incomplete", view.RewardState)
}

func TestService_LoadMigratesLegacyCompletion(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, kv.PutJSON(ctx, store, kv.KeyQuests, []models.Quest{
		{ID: "alpha", Title: "Alpha", Tasks: []string{"a", "b"}, Complexity: models.ComplexityEasy, XPReward: 100},
	}))
	require.NoError(t, kv.PutJSON(ctx, store, kv.KeyCompletion, map[string][]int{"quest-0": {0, 1, 4}, "quest-3": {0}}))

	svc := newTestService(t, store, &MockLedger{}, nil)
	assert.Empty(t, svc.Load(ctx))

	view, err := svc.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, view.Completed)
	assert.Equal(t, "reward_shown", view.RewardState)

	var persisted map[string][]int
	_, err = kv.GetJSON(ctx, store, kv.KeyCompletion, &persisted)
	require.NoError(t, err)
	assert.Equal(t, map[string][]int{"alpha": {0, 1}}, persisted)
}

func TestService_ToggleValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore(), &MockLedger{}, nil)
	q := seedQuests(t, svc, quest("Q", 2, 100))[0]

	_, err := svc.ToggleTask(ctx, "nope", 0)
	assert.True(t, qerrors.Is(err, qerrors.CodeNotFound))

	_, err = svc.ToggleTask(ctx, q.ID, 2)
	assert.True(t, qerrors.Is(err, qerrors.CodeInvalidArgument))

	_, err = svc.ToggleTask(ctx, q.ID, -1)
	assert.True(t, qerrors.Is(err, qerrors.CodeInvalidArgument))
}

func TestService_PersistenceFailureIsAWarning(t *testing.T) {
	ctx := context.Background()
	ledger := &MockLedger{}
	store := kv.NewMemoryStore()
	svc := newTestService(t, store, ledger, nil)
	q := seedQuests(t, svc, quest("Q", 1, 100))[0]

	svc.completion = NewCompletionStore(failingStore{Store: store}, discard)
	ledger.On("Award", mock.Anything, "Q", models.ComplexityEasy, 100).
		Return(awardResult(100, 100), qerrors.ErrPersistence("ledger save", errors.New("quota exceeded")))

	resp, err := svc.ToggleTask(ctx, q.ID, 0)
	require.NoError(t, err)
	assert.Len(t, resp.Warnings, 2)
	assert.True(t, resp.Quest.Complete)
	require.NotNil(t, resp.Reward)
	assert.Equal(t, "reward_shown", resp.Quest.RewardState)
}

func TestService_FailedAwardStaysPending(t *testing.T) {
	ctx := context.Background()
	ledger := &MockLedger{}
	svc := newTestService(t, kv.NewMemoryStore(), ledger, nil)
	q := seedQuests(t, svc, quest("Q", 1, 100))[0]

	ledger.On("Award", mock.Anything, "Q", models.ComplexityEasy, 100).
		Return(nil, qerrors.ErrInvalidArgument("amount", "must not be negative"))

	resp, err := svc.ToggleTask(ctx, q.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, resp.Reward)
	assert.Len(t, resp.Warnings, 1)
	assert.Equal(t, "just_completed", resp.Quest.RewardState)
}

func TestService_GenerateAppendsBatch(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{quests: []models.Quest{quest("New 1", 2, 100), quest("New 2", 3, 200)}}
	svc := newTestService(t, kv.NewMemoryStore(), &MockLedger{}, gen)
	seedQuests(t, svc, quest("Old 1", 1, 100), quest("Old 2", 1, 100), quest("Old 3", 1, 100))

	resp, err := svc.Generate(ctx, "  clean the house, write report  ")
	require.NoError(t, err)
	require.Len(t, resp.Quests, 2)
	assert.Equal(t, resp.Quests[0].BatchID, resp.Quests[1].BatchID)
	assert.Equal(t, int64(1_700_000_000_000), resp.Quests[0].Timestamp)
	assert.NotEqual(t, resp.Quests[0].ID, resp.Quests[1].ID)

	list := svc.List()
	require.Len(t, list.Quests, 5)
	assert.Equal(t, "Old 1", list.Quests[0].Title)
	assert.Equal(t, "New 2", list.Quests[4].Title)
	assert.Equal(t, 4, list.Quests[4].Index)
}

func TestService_GenerateErrors(t *testing.T) {
	ctx := context.Background()

	svc := newTestService(t, kv.NewMemoryStore(), &MockLedger{}, &stubGenerator{})
	_, err := svc.Generate(ctx, "   ")
	assert.True(t, qerrors.Is(err, qerrors.CodeInvalidArgument))

	failing := newTestService(t, kv.NewMemoryStore(), &MockLedger{}, &stubGenerator{err: qerrors.ErrParse("no quests found", nil)})
	_, err = failing.Generate(ctx, "do things")
	assert.True(t, qerrors.Is(err, qerrors.CodeParse))
	assert.Equal(t, 0, failing.collection.Len())

	unconfigured := newTestService(t, kv.NewMemoryStore(), &MockLedger{}, nil)
	_, err = unconfigured.Generate(ctx, "do things")
	assert.True(t, qerrors.Is(err, qerrors.CodeConfiguration))
}

func TestService_GenerateIsSingleFlight(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{
		quests:  []models.Quest{quest("Q", 1, 100)},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	svc := newTestService(t, kv.NewMemoryStore(), &MockLedger{}, gen)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(ctx, "first")
		done <- err
	}()
	<-gen.started

	_, err := svc.Generate(ctx, "second")
	assert.True(t, qerrors.Is(err, qerrors.CodeGenerationInProgress))

	close(gen.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, svc.collection.Len())
}

func TestService_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore(), &MockLedger{}, nil)
	quests := seedQuests(t, svc, quest("A", 1, 100), quest("B", 2, 100))
	require.NoError(t, svc.completion.ReplaceAll(ctx, quests[1].ID, []int{1}))

	_, err := svc.SetCurrentQuest(ctx, 1)
	require.NoError(t, err)

	warnings, err := svc.RemoveQuest(ctx, quests[1].ID)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Empty(t, svc.completion.Get(quests[1].ID))
	assert.Equal(t, 0, svc.CurrentQuest())

	_, err = svc.RemoveQuest(ctx, quests[1].ID)
	assert.True(t, qerrors.Is(err, qerrors.CodeNotFound))

	_, err = svc.ClearQuests(ctx)
	require.NoError(t, err)
	assert.Empty(t, svc.List().Quests)
}

func TestService_SetCurrentQuest(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore(), &MockLedger{}, nil)
	seedQuests(t, svc, quest("A", 1, 100), quest("B", 1, 100))

	resp, err := svc.SetCurrentQuest(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Index)

	_, err = svc.SetCurrentQuest(ctx, -2)
	assert.True(t, qerrors.Is(err, qerrors.CodeInvalidArgument))
}

func TestService_ExportRestore(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	ledger := gamification.NewLedger(gamification.NewStore(store), discard)
	require.NoError(t, ledger.Load(ctx))
	svc := newTestService(t, store, ledger, nil)

	quests := seedQuests(t, svc, quest("A", 2, 150), quest("B", 1, 100))
	_, err := svc.ToggleTask(ctx, quests[0].ID, 0)
	require.NoError(t, err)
	_, err = svc.ToggleTask(ctx, quests[1].ID, 0)
	require.NoError(t, err)

	snap := svc.Export()
	assert.Equal(t, models.SnapshotVersion, snap.Version)
	assert.Equal(t, 100, snap.Ledger.TotalXP)

	otherStore := kv.NewMemoryStore()
	otherLedger := gamification.NewLedger(gamification.NewStore(otherStore), discard)
	require.NoError(t, otherLedger.Load(ctx))
	other := newTestService(t, otherStore, otherLedger, nil)

	warnings, err := other.Restore(ctx, *snap)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 100, otherLedger.TotalXP())

	list := other.List()
	require.Len(t, list.Quests, 2)
	assert.Equal(t, []int{0}, list.Quests[0].Completed)
	assert.Equal(t, "reward_shown", list.Quests[1].RewardState)

	bad := *snap
	bad.Version = 99
	_, err = other.Restore(ctx, bad)
	assert.True(t, qerrors.Is(err, qerrors.CodeInvalidArgument))
}
