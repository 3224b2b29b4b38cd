package generator

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/gamification"
	"github.com/taskventure/backend/internal/models"
)

// GeneratedQuest is one quest as the model writes it.
type GeneratedQuest struct {
	Title      string   `json:"title"`
	Complexity string   `json:"complexity"`
	XPReward   float64  `json:"xpReward"`
	Tasks      []string `json:"tasks"`
}

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// ParseQuests turns a model reply into quests. Accepted shapes, tried in order:
// <step> blocks; a JSON array or {"quests": [...]} object, bare or inside a
// code fence or surrounding prose; numbered or "Mission:" lines, which are
// reformatted into steps. Ids and batch fields are left for the caller.
func ParseQuests(content string) ([]models.Quest, error) {
	cleaned := stripCodeFences(content)

	if strings.Contains(cleaned, "<step>") {
		return parseSteps(cleaned)
	}

	items, jsonErr := decodeQuestJSON(cleaned)
	if jsonErr == nil {
		return convertQuests(items)
	}

	if formatted := reformatAsSteps(cleaned); formatted != "" {
		return parseSteps(formatted)
	}

	return nil, qerrors.ErrParse("response matched no quest format", jsonErr)
}

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)```")

// stripCodeFences returns the body of the first fenced block, or s trimmed
// when there is none.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// An unterminated fence.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSpace(s)
}

func decodeQuestJSON(s string) ([]GeneratedQuest, error) {
	var items []GeneratedQuest
	err := json.Unmarshal([]byte(s), &items)
	if err == nil {
		return items, nil
	}

	var wrapped struct {
		Quests []GeneratedQuest `json:"quests"`
	}
	if json.Unmarshal([]byte(s), &wrapped) == nil && wrapped.Quests != nil {
		return wrapped.Quests, nil
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		var inner []GeneratedQuest
		if innerErr := json.Unmarshal([]byte(s[start:end+1]), &inner); innerErr == nil {
			return inner, nil
		}
	}
	return nil, fmt.Errorf("failed to parse JSON response: %w", err)
}

// convertQuests validates every item and normalises its tier and reward.
// Any invalid item fails the whole batch.
func convertQuests(items []GeneratedQuest) ([]models.Quest, error) {
	var errs []string
	quests := make([]models.Quest, 0, len(items))

	for i, item := range items {
		qNum := i + 1
		title := strings.TrimSpace(item.Title)
		if title == "" {
			errs = append(errs, fmt.Sprintf("quest %d: empty title", qNum))
		}

		tasks := make([]string, 0, len(item.Tasks))
		for _, task := range item.Tasks {
			if task = strings.TrimSpace(task); task != "" {
				tasks = append(tasks, task)
			}
		}
		if len(tasks) == 0 {
			errs = append(errs, fmt.Sprintf("quest %d: no tasks", qNum))
		}

		complexity := gamification.NormalizeComplexity(item.Complexity)
		quests = append(quests, models.Quest{
			Title:      title,
			Tasks:      tasks,
			Complexity: complexity,
			XPReward:   gamification.NormalizeReward(complexity, int(math.Round(item.XPReward))),
		})
	}

	if len(errs) > 0 {
		return nil, qerrors.ErrParse("invalid quests in response", &ValidationError{Errors: errs})
	}
	return quests, nil
}
