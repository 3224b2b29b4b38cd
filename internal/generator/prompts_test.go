package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskventure/backend/internal/models"
)

func TestQuestSystemPrompt_ListsEveryTier(t *testing.T) {
	prompt := QuestSystemPrompt()
	for _, tier := range models.Complexities {
		assert.Contains(t, prompt, string(tier))
	}
	assert.Contains(t, prompt, "TRIVIAL: 50-100 XP")
	assert.Contains(t, prompt, "MASTER: 2000-5000 XP")
	assert.Contains(t, prompt, "JSON array")
}

func TestBuildQuestUserPrompt(t *testing.T) {
	prompt := BuildQuestUserPrompt("  write report\nfix sink  ")
	assert.Contains(t, prompt, inputStartMarker+"\nwrite report\nfix sink\n"+inputEndMarker)
	assert.True(t, strings.HasPrefix(prompt, "Transform these tasks"))
	assert.Equal(t, []string{"write report", "fix sink"}, inputLines(prompt))
}
