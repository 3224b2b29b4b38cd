package gamification

import (
	"sort"

	"github.com/taskventure/backend/internal/models"
)

// MaxLevel is the level cap. Reaching it needs Threshold(MaxLevel-1) XP.
const MaxLevel = 99

// thresholds[i] is the cumulative XP at which level i+1 ends, i.e. the XP
// needed to reach level i+2.
var thresholds = buildThresholds()

func buildThresholds() []int {
	t := make([]int, MaxLevel)
	for level := 1; level <= MaxLevel; level++ {
		t[level-1] = level*level*level/8 + 75*level + 100
	}
	return t
}

// Threshold returns the XP at which the given level is left behind.
// Levels outside [1, MaxLevel] are clamped.
func Threshold(level int) int {
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return thresholds[level-1]
}

// Thresholds returns a copy of the full table.
func Thresholds() []int {
	out := make([]int, len(thresholds))
	copy(out, thresholds)
	return out
}

// LevelForXP returns the smallest level L with xp < Threshold(L), capped at MaxLevel.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	i := sort.Search(len(thresholds), func(i int) bool { return xp < thresholds[i] })
	if i >= MaxLevel {
		return MaxLevel
	}
	return i + 1
}

// levelFloor is the XP at which the given level begins.
func levelFloor(level int) int {
	if level <= 1 {
		return 0
	}
	return Threshold(level - 1)
}

// XPToNextLevel returns the XP still needed to leave the current level, 0 at the cap.
func XPToNextLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	level := LevelForXP(xp)
	if level >= MaxLevel {
		return 0
	}
	return Threshold(level) - xp
}

// PercentToNextLevel returns progress through the current level in [0, 100].
func PercentToNextLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	level := LevelForXP(xp)
	if level >= MaxLevel {
		return 100
	}
	floor := levelFloor(level)
	span := Threshold(level) - floor
	return 100 * (xp - floor) / span
}

// ProgressFor derives the level view of a total.
func ProgressFor(totalXP int) models.ProgressInfo {
	level := LevelForXP(totalXP)
	next := 0
	if level < MaxLevel {
		next = Threshold(level)
	}
	return models.ProgressInfo{
		TotalXP:            totalXP,
		Level:              level,
		XPToNextLevel:      XPToNextLevel(totalXP),
		PercentToNextLevel: PercentToNextLevel(totalXP),
		NextLevelAt:        next,
	}
}
