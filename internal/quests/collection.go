package quests

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/kv"
	"github.com/taskventure/backend/internal/models"
)

// Collection is the ordered quest list persisted under kv.KeyQuests.
type Collection struct {
	mu     sync.Mutex
	kv     kv.Store
	logger *slog.Logger
	quests []models.Quest
}

func NewCollection(s kv.Store, logger *slog.Logger) *Collection {
	return &Collection{
		kv:     s,
		logger: logger.With("component", "collection"),
		quests: []models.Quest{},
	}
}

// ValidateQuest checks the fields every stored quest must carry.
func ValidateQuest(q models.Quest) error {
	if strings.TrimSpace(q.Title) == "" {
		return qerrors.ErrInvalidArgument("title", "must not be empty")
	}
	if len(q.Tasks) == 0 {
		return qerrors.ErrInvalidArgument("tasks", fmt.Sprintf("quest %q has no tasks", q.Title))
	}
	for i, task := range q.Tasks {
		if strings.TrimSpace(task) == "" {
			return qerrors.ErrInvalidArgument("tasks", fmt.Sprintf("task %d of %q is empty", i, q.Title))
		}
	}
	if !q.Complexity.IsValid() {
		return qerrors.ErrInvalidArgument("complexity", string(q.Complexity))
	}
	if q.XPReward < 0 {
		return qerrors.ErrInvalidArgument("xpReward", "must not be negative")
	}
	return nil
}

// Load reads the persisted list. Quests without an id are given one and the
// list is written back. A corrupt value leaves the collection empty and is
// returned as a persistence error.
func (c *Collection) Load(ctx context.Context) error {
	var loaded []models.Quest
	_, err := kv.GetJSON(ctx, c.kv, kv.KeyQuests, &loaded)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.quests = []models.Quest{}
		c.logger.Warn("quest list unreadable, starting empty", "error", err)
		return qerrors.ErrPersistence("quest list load", err)
	}

	assigned := 0
	for i := range loaded {
		if loaded[i].ID == "" {
			loaded[i].ID = uuid.NewString()
			assigned++
		}
		if loaded[i].Tasks == nil {
			loaded[i].Tasks = []string{}
		}
	}
	if loaded == nil {
		loaded = []models.Quest{}
	}
	c.quests = loaded
	c.logger.Debug("quest list loaded", "quests", len(loaded))

	if assigned > 0 {
		c.logger.Info("assigned ids to stored quests", "count", assigned)
		return c.persist(ctx)
	}
	return nil
}

// Append adds quests after the existing ones, preserving both orders.
// Quests without an id are given one.
func (c *Collection) Append(ctx context.Context, quests []models.Quest) error {
	added, err := prepare(quests)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range added {
		if c.indexOf(q.ID) >= 0 {
			return qerrors.ErrInvalidArgument("id", "duplicate quest id "+q.ID)
		}
	}
	next := make([]models.Quest, 0, len(c.quests)+len(added))
	next = append(next, c.quests...)
	next = append(next, added...)
	c.quests = next
	return c.persist(ctx)
}

// ReplaceAll overwrites the list, as on restore or clear.
func (c *Collection) ReplaceAll(ctx context.Context, quests []models.Quest) error {
	replaced, err := prepare(quests)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.quests = replaced
	return c.persist(ctx)
}

// Remove deletes the quest with the given id.
func (c *Collection) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return qerrors.ErrNotFound("quest", id)
	}
	next := make([]models.Quest, 0, len(c.quests)-1)
	next = append(next, c.quests[:idx]...)
	next = append(next, c.quests[idx+1:]...)
	c.quests = next
	return c.persist(ctx)
}

// List returns a copy of the quests in order.
func (c *Collection) List() []models.Quest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Quest, len(c.quests))
	for i, q := range c.quests {
		out[i] = cloneQuest(q)
	}
	return out
}

// Get returns the quest with the given id and its position.
func (c *Collection) Get(id string) (models.Quest, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return models.Quest{}, -1, false
	}
	return cloneQuest(c.quests[idx]), idx, true
}

func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.quests)
}

func (c *Collection) indexOf(id string) int {
	for i, q := range c.quests {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the whole list. Callers hold c.mu.
func (c *Collection) persist(ctx context.Context) error {
	if err := kv.PutJSON(ctx, c.kv, kv.KeyQuests, c.quests); err != nil {
		c.logger.Warn("failed to persist quest list", "error", err)
		return qerrors.ErrPersistence("quest list save", err)
	}
	return nil
}

// prepare validates and copies quests, assigning missing ids. Ids must be unique.
func prepare(quests []models.Quest) ([]models.Quest, error) {
	out := make([]models.Quest, 0, len(quests))
	seen := make(map[string]bool, len(quests))
	for _, q := range quests {
		if err := ValidateQuest(q); err != nil {
			return nil, err
		}
		q = cloneQuest(q)
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if seen[q.ID] {
			return nil, qerrors.ErrInvalidArgument("id", "duplicate quest id "+q.ID)
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	return out, nil
}

func cloneQuest(q models.Quest) models.Quest {
	q.Tasks = append([]string(nil), q.Tasks...)
	return q
}
