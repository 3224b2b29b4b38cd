package generator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/models"
)

const validQuestJSON = `[
  {"title": "Operation Inbox Zero", "complexity": "TRIVIAL", "xpReward": 75, "tasks": ["Archive newsletters", "Reply to the CEO"]},
  {"title": "The Great Refactor", "complexity": "hard", "xpReward": 1200.6, "tasks": ["Map the monolith", "  ", "Extract the billing service"]}
]`

func TestParseQuests_BareJSON(t *testing.T) {
	quests, err := ParseQuests(validQuestJSON)
	require.NoError(t, err)
	require.Len(t, quests, 2)

	assert.Equal(t, "Operation Inbox Zero", quests[0].Title)
	assert.Equal(t, models.ComplexityTrivial, quests[0].Complexity)
	assert.Equal(t, 75, quests[0].XPReward)

	assert.Equal(t, models.ComplexityHard, quests[1].Complexity)
	assert.Equal(t, 1201, quests[1].XPReward)
	assert.Equal(t, []string{"Map the monolith", "Extract the billing service"}, quests[1].Tasks)
	assert.Empty(t, quests[1].ID)
}

func TestParseQuests_Wrappers(t *testing.T) {
	tests := map[string]string{
		"json fence":     "```json\n" + validQuestJSON + "\n```",
		"plain fence":    "```\n" + validQuestJSON + "\n```",
		"fence in prose": "Here you go!\n```json\n" + validQuestJSON + "\n```\nGood luck, founder.",
		"object":         `{"quests": ` + validQuestJSON + `}`,
		"prose":          "Sure thing! " + validQuestJSON + " Let me know if you need more.",
		"open fence":     "```json\n" + validQuestJSON,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			quests, err := ParseQuests(input)
			require.NoError(t, err)
			assert.Len(t, quests, 2)
		})
	}
}

func TestParseQuests_NormalisesTierAndReward(t *testing.T) {
	input := `[
	  {"title": "A", "complexity": "LEGENDARY", "xpReward": 100, "tasks": ["x"]},
	  {"title": "B", "complexity": "MASTER", "tasks": ["x"]},
	  {"title": "C", "complexity": "EASY", "xpReward": 9000, "tasks": ["x"]}
	]`

	quests, err := ParseQuests(input)
	require.NoError(t, err)
	require.Len(t, quests, 3)

	assert.Equal(t, models.ComplexityMedium, quests[0].Complexity)
	assert.Equal(t, 250, quests[0].XPReward)
	assert.Equal(t, 1000, quests[1].XPReward)
	assert.Equal(t, 250, quests[2].XPReward)
}

func TestParseQuests_InvalidItems(t *testing.T) {
	input := `[
	  {"title": "", "complexity": "EASY", "xpReward": 100, "tasks": ["x"]},
	  {"title": "No tasks", "complexity": "EASY", "xpReward": 100, "tasks": []}
	]`

	_, err := ParseQuests(input)
	require.Error(t, err)
	assert.True(t, qerrors.Is(err, qerrors.CodeParse))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors, 2)
	assert.Contains(t, ve.Error(), "quest 1: empty title")
	assert.Contains(t, ve.Error(), "quest 2: no tasks")
}

func TestParseQuests_EmptyArray(t *testing.T) {
	quests, err := ParseQuests("[]")
	require.NoError(t, err)
	assert.Empty(t, quests)
}

func TestParseQuests_Garbage(t *testing.T) {
	for _, input := range []string{"", "I cannot help with that.", `{"title": "lonely object"}`, "[1, 2"} {
		_, err := ParseQuests(input)
		assert.True(t, qerrors.Is(err, qerrors.CodeParse), "input %q", input)
	}
}

func TestParseQuests_StepFormat(t *testing.T) {
	input := `<step>
**Implement the payment flow**
- Wire up the checkout form
* Add webhook handling
1. Write the launch tweet
</step>

<step>
Mission: Clean the office
- Take out the recycling
</step>`

	quests, err := ParseQuests(input)
	require.NoError(t, err)
	require.Len(t, quests, 2)

	assert.Equal(t, "Implement the payment flow", quests[0].Title)
	assert.Equal(t, []string{"Wire up the checkout form", "Add webhook handling", "Write the launch tweet"}, quests[0].Tasks)
	assert.Equal(t, models.ComplexityEasy, quests[0].Complexity)
	assert.Equal(t, 150, quests[0].XPReward)

	assert.Equal(t, "Clean the office", quests[1].Title)
	assert.Equal(t, 100, quests[1].XPReward)
}

func TestParseQuests_NumberedLinesAreReformatted(t *testing.T) {
	input := strings.Join([]string{
		"Here are your quests:",
		"1. Design the landing page",
		"- Sketch the hero section",
		"- Pick a font nobody has heard of",
		"2. Call the bank",
		"",
		"Have fun!",
	}, "\n")

	quests, err := ParseQuests(input)
	require.NoError(t, err)
	require.Len(t, quests, 2)

	assert.Equal(t, "Design the landing page", quests[0].Title)
	assert.Len(t, quests[0].Tasks, 2)
	assert.Equal(t, 150, quests[0].XPReward)

	assert.Equal(t, "Call the bank", quests[1].Title)
	assert.Equal(t, []string{"Call the bank"}, quests[1].Tasks)
}

func TestReformatAsSteps(t *testing.T) {
	assert.Equal(t, "", reformatAsSteps("nothing to see here\n- orphan bullet"))
	assert.Equal(t,
		"<step>\nMission: First\n- a\n</step>\n<step>\nYour mission: second\n</step>\n",
		reformatAsSteps("1. First\n- a\nYour mission: second"),
	)
}
