package models

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ── Request Types ─────────────────────────────────────────

type GenerateQuestsRequest struct {
	Input string `json:"input"`
}

type SetCurrentQuestRequest struct {
	Index int `json:"index"`
}

type SaveAPIKeysRequest struct {
	Keys map[string]string `json:"keys"`
}

// ── Response Types ────────────────────────────────────────

// QuestView is a quest together with its completion state.
type QuestView struct {
	Quest
	Index       int    `json:"index"`
	Completed   []int  `json:"completed"`
	Progress    int    `json:"progress"`
	Complete    bool   `json:"complete"`
	RewardState string `json:"rewardState"`
}

type QuestsResponse struct {
	Quests            []QuestView `json:"quests"`
	CurrentQuestIndex int         `json:"currentQuestIndex"`
}

type GenerateQuestsResponse struct {
	Quests   []Quest  `json:"quests"`
	Warnings []string `json:"warnings,omitempty"`
}

type ToggleTaskResponse struct {
	Quest    QuestView   `json:"quest"`
	Reward   *RewardInfo `json:"reward,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

type CurrentQuestResponse struct {
	Index    int      `json:"index"`
	Warnings []string `json:"warnings,omitempty"`
}

type SettingsResponse struct {
	HasKeys   bool     `json:"hasKeys"`
	Providers []string `json:"providers"`
	Warnings  []string `json:"warnings,omitempty"`
}

type WarningsResponse struct {
	Warnings []string `json:"warnings,omitempty"`
}

// Snapshot is the export format of the whole persisted state.
type Snapshot struct {
	Version           int              `json:"version"`
	ExportedAt        time.Time        `json:"exportedAt"`
	Quests            []Quest          `json:"quests"`
	Completion        map[string][]int `json:"completion"`
	Ledger            LedgerState      `json:"ledger"`
	CurrentQuestIndex int              `json:"currentQuestIndex"`
}

const SnapshotVersion = 1
