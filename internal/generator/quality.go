package generator

import (
	"fmt"
	"strings"

	"github.com/taskventure/backend/internal/gamification"
	"github.com/taskventure/backend/internal/models"
)

const (
	maxTasksPerQuest = 12
	maxTitleLength   = 120

	// Titles sharing more keywords than this are reported as near-duplicates.
	titleOverlapLimit = 0.60
)

// StructuralScore holds the structural checks of a single generated quest.
type StructuralScore struct {
	TitleLengthOK   bool
	TaskCountOK     bool
	RewardInRange   bool
	NoDuplicateTask bool
}

// OK reports whether every check passed.
func (s StructuralScore) OK() bool {
	return s.TitleLengthOK && s.TaskCountOK && s.RewardInRange && s.NoDuplicateTask
}

// ComputeStructuralScore evaluates one quest.
func ComputeStructuralScore(q models.Quest) StructuralScore {
	r := gamification.RewardRange(q.Complexity)

	seen := make(map[string]bool, len(q.Tasks))
	unique := true
	for _, task := range q.Tasks {
		key := strings.ToLower(task)
		if seen[key] {
			unique = false
		}
		seen[key] = true
	}

	return StructuralScore{
		TitleLengthOK:   len(q.Title) <= maxTitleLength,
		TaskCountOK:     len(q.Tasks) >= 1 && len(q.Tasks) <= maxTasksPerQuest,
		RewardInRange:   q.XPReward >= r.Min && q.XPReward <= r.Max,
		NoDuplicateTask: unique,
	}
}

// CheckBatchQuality returns human-readable warnings for a parsed batch.
// Warnings never reject the batch.
func CheckBatchQuality(quests []models.Quest) []string {
	var warnings []string
	for i, q := range quests {
		s := ComputeStructuralScore(q)
		if s.OK() {
			continue
		}
		var failed []string
		if !s.TitleLengthOK {
			failed = append(failed, "title too long")
		}
		if !s.TaskCountOK {
			failed = append(failed, fmt.Sprintf("%d tasks", len(q.Tasks)))
		}
		if !s.RewardInRange {
			failed = append(failed, "reward outside tier range")
		}
		if !s.NoDuplicateTask {
			failed = append(failed, "duplicate tasks")
		}
		warnings = append(warnings, fmt.Sprintf("quest %d: %s", i+1, strings.Join(failed, ", ")))
	}
	return append(warnings, checkTitleDiversity(quests)...)
}

// checkTitleDiversity reports quest pairs whose titles share most keywords.
func checkTitleDiversity(quests []models.Quest) []string {
	if len(quests) < 2 {
		return nil
	}

	tokenSets := make([]map[string]bool, len(quests))
	for i, q := range quests {
		tokenSets[i] = tokenize(q.Title)
	}

	var warnings []string
	for i := 0; i < len(quests); i++ {
		for j := i + 1; j < len(quests); j++ {
			overlap := jaccardSimilarity(tokenSets[i], tokenSets[j])
			if overlap > titleOverlapLimit {
				warnings = append(warnings, fmt.Sprintf("quests %d and %d have %.0f%% title overlap", i+1, j+1, overlap*100))
			}
		}
	}
	return warnings
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(s)) {
		// Skip very short words (articles, prepositions)
		if len(word) > 3 {
			tokens[word] = true
		}
	}
	return tokens
}

func jaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
