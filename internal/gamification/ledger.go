package gamification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/models"
)

// Ledger owns the running XP total and the append-only award history.
// It does not deduplicate awards; callers decide when an award is due.
type Ledger struct {
	mu     sync.Mutex
	store  *Store
	logger *slog.Logger
	now    func() time.Time

	state       models.LedgerState
	loadWarning string
}

// AwardResult describes one applied award.
type AwardResult struct {
	Entry         models.LedgerEntry
	PreviousLevel int
	LeveledUp     bool
	Progress      models.ProgressInfo
}

// Reward converts the result to its API form.
func (r *AwardResult) Reward() *models.RewardInfo {
	return &models.RewardInfo{
		XPGained:      r.Entry.XPGained,
		TotalXP:       r.Progress.TotalXP,
		Level:         r.Progress.Level,
		PreviousLevel: r.PreviousLevel,
		LeveledUp:     r.LeveledUp,
	}
}

func NewLedger(store *Store, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: logger.With("component", "ledger"),
		now:    time.Now,
		state:  models.LedgerState{History: []models.LedgerEntry{}},
	}
}

// Load reads the persisted ledger. A corrupt or unreadable blob leaves the
// ledger empty and is returned as a persistence error.
func (l *Ledger) Load(ctx context.Context) error {
	state, err := l.store.LoadLedger(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state
	if err != nil {
		perr := qerrors.ErrPersistence("ledger load", err)
		l.loadWarning = perr.Message
		l.logger.Warn("ledger unreadable, starting empty", "error", err)
		return perr
	}
	l.loadWarning = ""
	l.logger.Debug("ledger loaded", "total_xp", state.TotalXP, "entries", len(state.History))
	return nil
}

// Award adds amount to the total and records an entry at the front of the
// history. Zero is recorded; a negative amount is rejected without mutation.
// A returned persistence error means the award is applied in memory only.
func (l *Ledger) Award(ctx context.Context, title string, complexity models.Complexity, amount int) (*AwardResult, error) {
	if amount < 0 {
		return nil, qerrors.ErrInvalidArgument("amount", "must not be negative")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	previous := LevelForXP(l.state.TotalXP)
	total := l.state.TotalXP + amount
	entry := models.LedgerEntry{
		QuestTitle: title,
		Complexity: complexity,
		XPGained:   amount,
		Timestamp:  l.now().UTC().Format(time.RFC3339),
		Level:      LevelForXP(total),
	}

	history := make([]models.LedgerEntry, 0, len(l.state.History)+1)
	history = append(history, entry)
	history = append(history, l.state.History...)
	l.state = models.LedgerState{TotalXP: total, History: history}

	result := &AwardResult{
		Entry:         entry,
		PreviousLevel: previous,
		LeveledUp:     entry.Level > previous,
		Progress:      ProgressFor(total),
	}

	l.logger.Info("xp awarded", "quest", title, "xp", amount, "total_xp", total, "level", entry.Level)
	if result.LeveledUp {
		l.logger.Info("level up", "from", previous, "to", entry.Level)
	}

	if err := l.store.SaveLedger(ctx, l.state); err != nil {
		l.logger.Warn("failed to persist ledger", "error", err)
		return result, qerrors.ErrPersistence("ledger save", err)
	}
	return result, nil
}

func (l *Ledger) TotalXP() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.TotalXP
}

// History returns the entries, most recent first.
func (l *Ledger) History() []models.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.LedgerEntry, len(l.state.History))
	copy(out, l.state.History)
	return out
}

// Snapshot returns a copy of the whole ledger state.
func (l *Ledger) Snapshot() models.LedgerState {
	return models.LedgerState{TotalXP: l.TotalXP(), History: l.History()}
}

// Restore replaces the ledger wholesale, as on import.
func (l *Ledger) Restore(ctx context.Context, state models.LedgerState) error {
	if state.TotalXP < 0 {
		return qerrors.ErrInvalidArgument("totalXP", "must not be negative")
	}
	history := make([]models.LedgerEntry, len(state.History))
	copy(history, state.History)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = models.LedgerState{TotalXP: state.TotalXP, History: history}
	l.loadWarning = ""
	if err := l.store.SaveLedger(ctx, l.state); err != nil {
		return qerrors.ErrPersistence("ledger save", err)
	}
	return nil
}

// Progress returns the full progress view, including achievements and any
// warning left by Load.
func (l *Ledger) Progress() *models.ProgressResponse {
	state := l.Snapshot()

	l.mu.Lock()
	warning := l.loadWarning
	l.mu.Unlock()

	resp := &models.ProgressResponse{
		ProgressInfo: ProgressFor(state.TotalXP),
		History:      state.History,
		Achievements: CheckAchievements(state),
	}
	if warning != "" {
		resp.Warnings = []string{warning}
	}
	return resp
}
