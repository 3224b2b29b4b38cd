package gamification

import (
	"strings"

	"github.com/taskventure/backend/internal/models"
)

// XPRange bounds the reward a quest of a given complexity may carry.
type XPRange struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Base int `json:"base"`
}

var rewardRanges = map[models.Complexity]XPRange{
	models.ComplexityTrivial: {Min: 50, Max: 100, Base: 50},
	models.ComplexityEasy:    {Min: 100, Max: 250, Base: 100},
	models.ComplexityMedium:  {Min: 250, Max: 750, Base: 250},
	models.ComplexityHard:    {Min: 750, Max: 2000, Base: 500},
	models.ComplexityMaster:  {Min: 2000, Max: 5000, Base: 1000},
}

// RewardRange returns the range for c. Unknown tiers use MEDIUM.
func RewardRange(c models.Complexity) XPRange {
	if r, ok := rewardRanges[c]; ok {
		return r
	}
	return rewardRanges[models.ComplexityMedium]
}

// NormalizeComplexity maps any casing to a known tier, defaulting to MEDIUM.
func NormalizeComplexity(s string) models.Complexity {
	if c, ok := models.ParseComplexity(s); ok {
		return c
	}
	return models.ComplexityMedium
}

// NormalizeReward returns the reward a generated quest keeps. A missing (zero or
// negative) reward becomes the tier's base XP; anything else is clamped into range.
func NormalizeReward(c models.Complexity, xp int) int {
	r := RewardRange(c)
	switch {
	case xp <= 0:
		return r.Base
	case xp < r.Min:
		return r.Min
	case xp > r.Max:
		return r.Max
	default:
		return xp
	}
}

// ── Legacy step quests ──────────────────────────────────

const (
	StepQuestXP    = 100
	StepBuildBonus = 50
)

var buildVerbs = []string{"create", "develop", "implement", "design", "architect"}

// StepQuestReward is the reward of a quest parsed from the older <step> format.
func StepQuestReward(title string) int {
	lower := strings.ToLower(title)
	for _, verb := range buildVerbs {
		if strings.Contains(lower, verb) {
			return StepQuestXP + StepBuildBonus
		}
	}
	return StepQuestXP
}
