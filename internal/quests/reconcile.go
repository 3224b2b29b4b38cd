package quests

import (
	"sort"
	"strconv"
	"strings"

	"github.com/taskventure/backend/internal/models"
)

const legacyKeyPrefix = "quest-"

// ReconcileCompletion aligns a raw completion mapping with the quest list.
// Positional keys ("quest-N") are moved to the id of the quest at position N,
// indices outside a quest's task range are dropped, and entries for unknown
// quests are dropped. It reports whether the result differs from raw.
func ReconcileCompletion(raw map[string][]int, quests []models.Quest) (map[string][]int, bool) {
	taskCount := make(map[string]int, len(quests))
	for _, q := range quests {
		taskCount[q.ID] = len(q.Tasks)
	}

	sets := map[string]TaskSet{}
	changed := false

	add := func(id string, indices []int) {
		set, ok := sets[id]
		if !ok {
			set = TaskSet{}
			sets[id] = set
		}
		for _, i := range indices {
			if i < 0 || i >= taskCount[id] {
				changed = true
				continue
			}
			if set.Has(i) {
				changed = true
				continue
			}
			set[i] = struct{}{}
		}
	}

	// Id keys first, then the rest, in a stable order.
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool {
		_, aKnown := taskCount[keys[a]]
		_, bKnown := taskCount[keys[b]]
		if aKnown != bKnown {
			return aKnown
		}
		return keys[a] < keys[b]
	})

	for _, key := range keys {
		indices := raw[key]
		if _, ok := taskCount[key]; ok {
			add(key, indices)
			continue
		}
		changed = true
		if pos, ok := legacyPosition(key); ok && pos < len(quests) {
			add(quests[pos].ID, indices)
		}
	}

	out := make(map[string][]int, len(sets))
	for id, set := range sets {
		out[id] = set.Sorted()
	}
	return out, changed
}

func legacyPosition(key string) (int, bool) {
	if !strings.HasPrefix(key, legacyKeyPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(key, legacyKeyPrefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
