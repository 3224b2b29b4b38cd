package quests

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/kv"
)

// TaskSet is a set of completed task indices.
type TaskSet map[int]struct{}

// NewTaskSet builds a set from indices, ignoring duplicates.
func NewTaskSet(indices ...int) TaskSet {
	s := make(TaskSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

func (s TaskSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Sorted returns the indices in ascending order; never nil.
func (s TaskSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// CompletionStore maps quest ids to their completed task indices. The whole
// mapping is written under kv.KeyCompletion on every change.
type CompletionStore struct {
	mu     sync.Mutex
	kv     kv.Store
	logger *slog.Logger
	sets   map[string]TaskSet
}

func NewCompletionStore(s kv.Store, logger *slog.Logger) *CompletionStore {
	return &CompletionStore{
		kv:     s,
		logger: logger.With("component", "completion"),
		sets:   map[string]TaskSet{},
	}
}

// Load reads the persisted mapping and returns it raw so it can be reconciled
// against the collection. A missing key is an empty mapping.
func (c *CompletionStore) Load(ctx context.Context) (map[string][]int, error) {
	raw := map[string][]int{}
	_, err := kv.GetJSON(ctx, c.kv, kv.KeyCompletion, &raw)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets = map[string]TaskSet{}

	if err != nil {
		c.logger.Warn("completion mapping unreadable, starting empty", "error", err)
		return map[string][]int{}, qerrors.ErrPersistence("completion load", err)
	}
	for id, indices := range raw {
		c.sets[id] = validSet(indices)
	}
	return raw, nil
}

// Get returns the completed indices of a quest in ascending order. A quest with
// no entry has an empty set.
func (c *CompletionStore) Get(questID string) []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets[questID].Sorted()
}

// Count returns the number of completed tasks of a quest.
func (c *CompletionStore) Count(questID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sets[questID])
}

// Toggle flips membership of taskIndex and returns the resulting set.
func (c *CompletionStore) Toggle(ctx context.Context, questID string, taskIndex int) ([]int, error) {
	if taskIndex < 0 {
		return nil, qerrors.ErrInvalidArgument("taskIndex", "must not be negative")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.sets[questID]
	if !ok {
		set = TaskSet{}
		c.sets[questID] = set
	}
	if set.Has(taskIndex) {
		delete(set, taskIndex)
	} else {
		set[taskIndex] = struct{}{}
	}
	return set.Sorted(), c.persist(ctx)
}

// ReplaceAll overwrites the set of one quest.
func (c *CompletionStore) ReplaceAll(ctx context.Context, questID string, indices []int) error {
	for _, i := range indices {
		if i < 0 {
			return qerrors.ErrInvalidArgument("taskIndex", "must not be negative")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets[questID] = NewTaskSet(indices...)
	return c.persist(ctx)
}

// Delete drops the set of one quest.
func (c *CompletionStore) Delete(ctx context.Context, questID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sets[questID]; !ok {
		return nil
	}
	delete(c.sets, questID)
	return c.persist(ctx)
}

// Snapshot returns the whole mapping with sorted indices.
func (c *CompletionStore) Snapshot() map[string][]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]int, len(c.sets))
	for id, set := range c.sets {
		out[id] = set.Sorted()
	}
	return out
}

// RestoreAll replaces the whole mapping.
func (c *CompletionStore) RestoreAll(ctx context.Context, mapping map[string][]int) error {
	sets := make(map[string]TaskSet, len(mapping))
	for id, indices := range mapping {
		for _, i := range indices {
			if i < 0 {
				return qerrors.ErrInvalidArgument("taskIndex", "negative index for quest "+id)
			}
		}
		sets[id] = NewTaskSet(indices...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets = sets
	return c.persist(ctx)
}

// persist writes the mapping. Callers hold c.mu.
func (c *CompletionStore) persist(ctx context.Context) error {
	out := make(map[string][]int, len(c.sets))
	for id, set := range c.sets {
		out[id] = set.Sorted()
	}
	if err := kv.PutJSON(ctx, c.kv, kv.KeyCompletion, out); err != nil {
		c.logger.Warn("failed to persist completion mapping", "error", err, "quests", len(out))
		return qerrors.ErrPersistence("completion save", err)
	}
	return nil
}

func validSet(indices []int) TaskSet {
	s := make(TaskSet, len(indices))
	for _, i := range indices {
		if i >= 0 {
			s[i] = struct{}{}
		}
	}
	return s
}
