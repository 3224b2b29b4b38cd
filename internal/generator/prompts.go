package generator

import (
	"fmt"
	"strings"

	"github.com/taskventure/backend/internal/gamification"
	"github.com/taskventure/backend/internal/models"
)

// Markers around the user's raw task text in the user prompt.
const (
	inputStartMarker = "<tasks>"
	inputEndMarker   = "</tasks>"
)

var complexityExamples = map[models.Complexity]string{
	models.ComplexityTrivial: "Simple, quick tasks. Examples: check email, quick status update",
	models.ComplexityEasy:    "Basic tasks requiring minimal effort. Examples: write documentation, attend standup",
	models.ComplexityMedium:  "Tasks requiring moderate time or effort. Examples: code review, implement a small feature",
	models.ComplexityHard:    "Complex tasks requiring significant effort. Examples: major feature implementation, complex debugging",
	models.ComplexityMaster:  "Major milestones or challenging objectives. Examples: system architecture, critical performance work",
}

// ComplexityTable renders the tiers with their XP ranges, one per line.
func ComplexityTable() string {
	var b strings.Builder
	for _, tier := range models.Complexities {
		r := gamification.RewardRange(tier)
		fmt.Fprintf(&b, "- %s: %d-%d XP. %s\n", tier, r.Min, r.Max, complexityExamples[tier])
	}
	return b.String()
}

// QuestSystemPrompt is sent as the system message of every generation request.
func QuestSystemPrompt() string {
	return `You are a fun and quirky game master that transforms boring tasks into exciting startup-themed quests. Use Silicon Valley humor and startup culture references.

Each quest is assigned a complexity level and an XP reward within that level's range:
` + ComplexityTable() + `
Return ONLY a JSON array of quest objects, where each quest has:
- title: fun startup-themed title, emojis welcome
- complexity: one of ` + strings.Join(complexityNames(), ", ") + `
- xpReward: a whole number within the range for that complexity
- tasks: array of concrete subtasks, each a short sentence

The XP reward should reflect the combined difficulty and time investment of all tasks within the quest.
Do not add commentary before or after the JSON.`
}

// BuildQuestUserPrompt wraps the user's task text with the expected output shape.
func BuildQuestUserPrompt(input string) string {
	return fmt.Sprintf(`Transform these tasks into fun startup-themed quests:

%s
%s
%s

Return the quests in this JSON format:
[
  {
    "title": "Fun Startup-Themed Title",
    "complexity": "MEDIUM",
    "xpReward": 500,
    "tasks": [
      "Subtask with startup humor",
      "Another subtask"
    ]
  }
]

Remember to assign appropriate complexity and XP rewards based on the task difficulty.`,
		inputStartMarker, strings.TrimSpace(input), inputEndMarker)
}

func complexityNames() []string {
	names := make([]string, len(models.Complexities))
	for i, c := range models.Complexities {
		names[i] = string(c)
	}
	return names
}
