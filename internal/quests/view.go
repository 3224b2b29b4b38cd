package quests

import (
	"context"
	"log/slog"
	"sync"

	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/kv"
)

// CurrentIndex is the persisted position of the quest the UI is showing.
type CurrentIndex struct {
	mu     sync.Mutex
	kv     kv.Store
	logger *slog.Logger
	index  int
}

func NewCurrentIndex(s kv.Store, logger *slog.Logger) *CurrentIndex {
	return &CurrentIndex{kv: s, logger: logger.With("component", "view")}
}

// Load reads the stored index and clamps it to a collection of size n.
func (c *CurrentIndex) Load(ctx context.Context, n int) error {
	var idx int
	_, err := kv.GetJSON(ctx, c.kv, kv.KeyCurrentQuestIndex, &idx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.index = 0
		c.logger.Warn("current quest index unreadable, resetting", "error", err)
		return qerrors.ErrPersistence("current quest load", err)
	}
	c.index = clampIndex(idx, n)
	return nil
}

func (c *CurrentIndex) Get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Set stores idx clamped to a collection of size n and returns the stored value.
func (c *CurrentIndex) Set(ctx context.Context, idx, n int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = clampIndex(idx, n)
	if err := kv.PutJSON(ctx, c.kv, kv.KeyCurrentQuestIndex, c.index); err != nil {
		c.logger.Warn("failed to persist current quest index", "error", err)
		return c.index, qerrors.ErrPersistence("current quest save", err)
	}
	return c.index, nil
}

func clampIndex(idx, n int) int {
	if idx < 0 || n == 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}
