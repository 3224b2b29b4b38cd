package gamification

import (
	"sort"

	"github.com/taskventure/backend/internal/models"
)

// AchievementDef defines a single achievement.
type AchievementDef struct {
	Name        string
	Description string
	earned      func(state models.LedgerState, level int) bool
}

func questsCompleted(n int) func(models.LedgerState, int) bool {
	return func(s models.LedgerState, _ int) bool { return len(s.History) >= n }
}

func levelReached(n int) func(models.LedgerState, int) bool {
	return func(_ models.LedgerState, level int) bool { return level >= n }
}

func completedMaster(s models.LedgerState, _ int) bool {
	for _, e := range s.History {
		if e.Complexity == models.ComplexityMaster {
			return true
		}
	}
	return false
}

func totalXPAtLeast(n int) func(models.LedgerState, int) bool {
	return func(s models.LedgerState, _ int) bool { return s.TotalXP >= n }
}

// Achievements maps achievement keys to their definitions.
var Achievements = map[string]AchievementDef{
	"first_quest":  {Name: "First Steps", Description: "Complete your first quest", earned: questsCompleted(1)},
	"quests_10":    {Name: "Adventurer", Description: "Complete 10 quests", earned: questsCompleted(10)},
	"quests_50":    {Name: "Veteran", Description: "Complete 50 quests", earned: questsCompleted(50)},
	"level_5":      {Name: "Getting Started", Description: "Reach level 5", earned: levelReached(5)},
	"level_10":     {Name: "Rising Star", Description: "Reach level 10", earned: levelReached(10)},
	"level_25":     {Name: "Seasoned", Description: "Reach level 25", earned: levelReached(25)},
	"level_50":     {Name: "Champion", Description: "Reach level 50", earned: levelReached(50)},
	"level_99":     {Name: "Legend", Description: "Reach the level cap", earned: levelReached(MaxLevel)},
	"master_quest": {Name: "Master of Work", Description: "Complete a MASTER quest", earned: completedMaster},
	"xp_10000":     {Name: "Powerhouse", Description: "Earn 10,000 total XP", earned: totalXPAtLeast(10000)},
}

// CheckAchievements evaluates every achievement against the ledger, sorted by key.
func CheckAchievements(state models.LedgerState) []models.AchievementView {
	level := LevelForXP(state.TotalXP)
	keys := make([]string, 0, len(Achievements))
	for key := range Achievements {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	views := make([]models.AchievementView, 0, len(keys))
	for _, key := range keys {
		def := Achievements[key]
		views = append(views, models.AchievementView{
			Key:         key,
			Name:        def.Name,
			Description: def.Description,
			Earned:      def.earned(state, level),
		})
	}
	return views
}
