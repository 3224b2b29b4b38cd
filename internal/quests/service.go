package quests

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/gamification"
	"github.com/taskventure/backend/internal/models"
)

// Ledger is the XP ledger the service awards completed quests into.
type Ledger interface {
	Award(ctx context.Context, title string, complexity models.Complexity, amount int) (*gamification.AwardResult, error)
	Snapshot() models.LedgerState
	Restore(ctx context.Context, state models.LedgerState) error
}

// QuestGenerator turns free-form task text into quests.
type QuestGenerator interface {
	Generate(ctx context.Context, input string) ([]models.Quest, error)
}

// Service composes the quest stores, the ledger, the generator and the
// per-quest reward trackers.
type Service struct {
	collection *Collection
	completion *CompletionStore
	current    *CurrentIndex
	ledger     Ledger
	generator  QuestGenerator
	logger     *slog.Logger
	now        func() time.Time

	mu         sync.Mutex
	trackers   map[string]*RewardTracker
	generating atomic.Bool
}

func NewService(collection *Collection, completion *CompletionStore, current *CurrentIndex, ledger Ledger, gen QuestGenerator, logger *slog.Logger) *Service {
	return &Service{
		collection: collection,
		completion: completion,
		current:    current,
		ledger:     ledger,
		generator:  gen,
		logger:     logger.With("component", "quests"),
		now:        time.Now,
		trackers:   map[string]*RewardTracker{},
	}
}

// addWarning turns a persistence error into a warning. Any other error is returned.
func addWarning(warnings []string, err error) ([]string, error) {
	if err == nil {
		return warnings, nil
	}
	if qerrors.IsPersistence(err) {
		return append(warnings, qerrors.Message(err)), nil
	}
	return warnings, err
}

// ── Loading ─────────────────────────────────────────────

// Load restores the stores and reconciles them with each other. Storage
// problems never fail the load; they come back as warnings.
func (s *Service) Load(ctx context.Context) []string {
	var warnings []string

	if err := s.collection.Load(ctx); err != nil {
		warnings = append(warnings, qerrors.Message(err))
	}
	quests := s.collection.List()

	raw, err := s.completion.Load(ctx)
	if err != nil {
		warnings = append(warnings, qerrors.Message(err))
	}
	if mapping, changed := ReconcileCompletion(raw, quests); changed {
		s.logger.Info("reconciled completion mapping", "before", len(raw), "after", len(mapping))
		if err := s.completion.RestoreAll(ctx, mapping); err != nil {
			warnings = append(warnings, qerrors.Message(err))
		}
	}

	if err := s.current.Load(ctx, len(quests)); err != nil {
		warnings = append(warnings, qerrors.Message(err))
	}

	s.rebuildTrackers(quests)
	s.logger.Info("quest state loaded", "quests", len(quests), "warnings", len(warnings))
	return warnings
}

func (s *Service) rebuildTrackers(quests []models.Quest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackers = make(map[string]*RewardTracker, len(quests))
	for _, q := range quests {
		s.trackers[q.ID] = NewRewardTracker(s.isComplete(q))
	}
}

func (s *Service) isComplete(q models.Quest) bool {
	return len(q.Tasks) > 0 && s.completion.Count(q.ID) == len(q.Tasks)
}

// tracker returns the tracker of a quest, creating one if needed. Callers hold s.mu.
func (s *Service) tracker(q models.Quest) *RewardTracker {
	t, ok := s.trackers[q.ID]
	if !ok {
		t = NewRewardTracker(s.isComplete(q))
		s.trackers[q.ID] = t
	}
	return t
}

// ── Views ───────────────────────────────────────────────

func (s *Service) view(q models.Quest, index int) models.QuestView {
	completed := s.completion.Get(q.ID)
	progress := 0
	if len(q.Tasks) > 0 {
		progress = 100 * len(completed) / len(q.Tasks)
	}

	s.mu.Lock()
	state := s.tracker(q).State()
	s.mu.Unlock()

	return models.QuestView{
		Quest:       q,
		Index:       index,
		Completed:   completed,
		Progress:    progress,
		Complete:    s.isComplete(q),
		RewardState: state.String(),
	}
}

// List returns every quest with its completion state.
func (s *Service) List() *models.QuestsResponse {
	quests := s.collection.List()
	views := make([]models.QuestView, 0, len(quests))
	for i, q := range quests {
		views = append(views, s.view(q, i))
	}
	return &models.QuestsResponse{
		Quests:            views,
		CurrentQuestIndex: s.current.Get(),
	}
}

func (s *Service) Get(id string) (*models.QuestView, error) {
	q, idx, ok := s.collection.Get(id)
	if !ok {
		return nil, qerrors.ErrNotFound("quest", id)
	}
	v := s.view(q, idx)
	return &v, nil
}

// ── Generation ──────────────────────────────────────────

// Generate asks the generator for quests and appends them as one batch.
// Only one generation runs at a time; concurrent calls fail fast.
func (s *Service) Generate(ctx context.Context, input string) (*models.GenerateQuestsResponse, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, qerrors.ErrInvalidArgument("input", "must not be empty")
	}
	if s.generator == nil {
		return nil, qerrors.ErrConfiguration("no quest generator configured")
	}
	if !s.generating.CompareAndSwap(false, true) {
		return nil, qerrors.ErrGenerationInProgress()
	}
	defer s.generating.Store(false)

	start := s.now()
	generated, err := s.generator.Generate(ctx, input)
	if err != nil {
		s.logger.Warn("quest generation failed", "error", err, "elapsed", time.Since(start))
		return nil, err
	}

	batchID := uuid.NewString()
	stamp := start.UnixMilli()
	batch := make([]models.Quest, len(generated))
	for i, q := range generated {
		q.ID = uuid.NewString()
		q.BatchID = batchID
		q.Timestamp = stamp
		batch[i] = q
	}

	warnings, err := addWarning(nil, s.collection.Append(ctx, batch))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, q := range batch {
		s.trackers[q.ID] = NewRewardTracker(false)
	}
	s.mu.Unlock()

	s.logger.Info("quests generated", "count", len(batch), "batch", batchID, "elapsed", time.Since(start))
	return &models.GenerateQuestsResponse{Quests: batch, Warnings: warnings}, nil
}

// ── Completion ──────────────────────────────────────────

// ToggleTask flips one task of a quest. When the toggle makes the quest
// complete, its reward is awarded exactly once for that transition.
func (s *Service) ToggleTask(ctx context.Context, questID string, taskIndex int) (*models.ToggleTaskResponse, error) {
	q, idx, ok := s.collection.Get(questID)
	if !ok {
		return nil, qerrors.ErrNotFound("quest", questID)
	}
	if taskIndex < 0 || taskIndex >= len(q.Tasks) {
		return nil, qerrors.ErrInvalidArgument("taskIndex", "out of range")
	}

	resp := &models.ToggleTaskResponse{}

	// The set change and the tracker observation happen under one lock so
	// trackers see toggles in the order they changed the set.
	s.mu.Lock()
	completed, err := s.completion.Toggle(ctx, questID, taskIndex)
	warnings, err := addWarning(nil, err)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	complete := len(completed) == len(q.Tasks)

	t := s.tracker(q)
	if t.Observe(complete) {
		result, err := s.ledger.Award(ctx, q.Title, q.Complexity, q.XPReward)
		switch {
		case err == nil:
			t.MarkRewarded()
		case qerrors.IsPersistence(err) && result != nil:
			t.MarkRewarded()
			warnings = append(warnings, qerrors.Message(err))
		default:
			// The tracker stays JustCompleted.
			s.logger.Error("quest award failed", "quest", q.ID, "error", err)
			warnings = append(warnings, "reward pending: "+qerrors.Message(err))
		}
		if result != nil {
			resp.Reward = result.Reward()
			s.logger.Info("quest completed", "quest", q.ID, "xp", q.XPReward, "level", result.Progress.Level)
		}
	}
	s.mu.Unlock()

	resp.Quest = s.view(q, idx)
	resp.Warnings = warnings
	return resp, nil
}

// ── Removal ─────────────────────────────────────────────

// RemoveQuest deletes one quest with its completion set and tracker.
func (s *Service) RemoveQuest(ctx context.Context, questID string) ([]string, error) {
	warnings, err := addWarning(nil, s.collection.Remove(ctx, questID))
	if err != nil {
		return nil, err
	}
	warnings, _ = addWarning(warnings, s.completion.Delete(ctx, questID))

	s.mu.Lock()
	delete(s.trackers, questID)
	s.mu.Unlock()

	warnings, _ = addWarning(warnings, s.clampCurrent(ctx))
	s.logger.Info("quest removed", "quest", questID)
	return warnings, nil
}

// ClearQuests removes every quest and all completion state. XP is kept.
func (s *Service) ClearQuests(ctx context.Context) ([]string, error) {
	warnings, err := addWarning(nil, s.collection.ReplaceAll(ctx, nil))
	if err != nil {
		return nil, err
	}
	warnings, _ = addWarning(warnings, s.completion.RestoreAll(ctx, map[string][]int{}))
	_, err = s.current.Set(ctx, 0, 0)
	warnings, _ = addWarning(warnings, err)

	s.mu.Lock()
	s.trackers = map[string]*RewardTracker{}
	s.mu.Unlock()

	s.logger.Info("quests cleared")
	return warnings, nil
}

// ── Current quest ───────────────────────────────────────

func (s *Service) CurrentQuest() int {
	return s.current.Get()
}

// SetCurrentQuest stores the index clamped to the collection.
func (s *Service) SetCurrentQuest(ctx context.Context, index int) (*models.CurrentQuestResponse, error) {
	if index < 0 {
		return nil, qerrors.ErrInvalidArgument("index", "must not be negative")
	}
	stored, err := s.current.Set(ctx, index, s.collection.Len())
	warnings, err := addWarning(nil, err)
	if err != nil {
		return nil, err
	}
	return &models.CurrentQuestResponse{Index: stored, Warnings: warnings}, nil
}

func (s *Service) clampCurrent(ctx context.Context) error {
	_, err := s.current.Set(ctx, s.current.Get(), s.collection.Len())
	return err
}

// ── Export / restore ────────────────────────────────────

// Export returns a snapshot of the whole persisted state.
func (s *Service) Export() *models.Snapshot {
	return &models.Snapshot{
		Version:           models.SnapshotVersion,
		ExportedAt:        s.now().UTC(),
		Quests:            s.collection.List(),
		Completion:        s.completion.Snapshot(),
		Ledger:            s.ledger.Snapshot(),
		CurrentQuestIndex: s.current.Get(),
	}
}

// Restore replaces the whole state with a snapshot. The snapshot is validated
// before anything is written.
func (s *Service) Restore(ctx context.Context, snap models.Snapshot) ([]string, error) {
	if snap.Version != models.SnapshotVersion {
		return nil, qerrors.ErrInvalidArgument("version", "unsupported snapshot version")
	}
	if snap.Ledger.TotalXP < 0 {
		return nil, qerrors.ErrInvalidArgument("totalXP", "must not be negative")
	}
	if _, err := prepare(snap.Quests); err != nil {
		return nil, err
	}

	warnings, err := addWarning(nil, s.collection.ReplaceAll(ctx, snap.Quests))
	if err != nil {
		return nil, err
	}
	quests := s.collection.List()

	mapping, _ := ReconcileCompletion(snap.Completion, quests)
	warnings, err = addWarning(warnings, s.completion.RestoreAll(ctx, mapping))
	if err != nil {
		return nil, err
	}
	warnings, err = addWarning(warnings, s.ledger.Restore(ctx, snap.Ledger))
	if err != nil {
		return nil, err
	}
	_, err = s.current.Set(ctx, snap.CurrentQuestIndex, len(quests))
	warnings, _ = addWarning(warnings, err)

	s.rebuildTrackers(quests)
	s.logger.Info("state restored", "quests", len(quests), "total_xp", snap.Ledger.TotalXP)
	return warnings, nil
}
