package models

// ── Persisted ledger ──────────────────────────────────────

// LedgerEntry records one XP award. Entries are never modified.
type LedgerEntry struct {
	QuestTitle string     `json:"questTitle"`
	Complexity Complexity `json:"complexity,omitempty"`
	XPGained   int        `json:"xpGained"`
	Timestamp  string     `json:"timestamp"`
	Level      int        `json:"level"`
}

// LedgerState is the blob stored under the XP key. History is most recent first.
type LedgerState struct {
	TotalXP int           `json:"totalXP"`
	History []LedgerEntry `json:"history"`
}

// ── Response Types ────────────────────────────────────────

type ProgressInfo struct {
	TotalXP            int `json:"totalXP"`
	Level              int `json:"level"`
	XPToNextLevel      int `json:"xpToNextLevel"`
	PercentToNextLevel int `json:"percentToNextLevel"`
	NextLevelAt        int `json:"nextLevelAt"`
}

type AchievementView struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Earned      bool   `json:"earned"`
}

type ProgressResponse struct {
	ProgressInfo
	History      []LedgerEntry     `json:"history"`
	Achievements []AchievementView `json:"achievements"`
	Warnings     []string          `json:"warnings,omitempty"`
}

type RewardInfo struct {
	XPGained      int  `json:"xpGained"`
	TotalXP       int  `json:"totalXP"`
	Level         int  `json:"level"`
	PreviousLevel int  `json:"previousLevel"`
	LeveledUp     bool `json:"leveledUp"`
}

type ProgressionTableResponse struct {
	MaxLevel   int   `json:"maxLevel"`
	Thresholds []int `json:"thresholds"`
}
