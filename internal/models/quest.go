package models

import "strings"

type Complexity string

const (
	ComplexityTrivial Complexity = "TRIVIAL"
	ComplexityEasy    Complexity = "EASY"
	ComplexityMedium  Complexity = "MEDIUM"
	ComplexityHard    Complexity = "HARD"
	ComplexityMaster  Complexity = "MASTER"
)

// Complexities lists the tiers in ascending order.
var Complexities = []Complexity{
	ComplexityTrivial,
	ComplexityEasy,
	ComplexityMedium,
	ComplexityHard,
	ComplexityMaster,
}

func (c Complexity) IsValid() bool {
	switch c {
	case ComplexityTrivial, ComplexityEasy, ComplexityMedium, ComplexityHard, ComplexityMaster:
		return true
	default:
		return false
	}
}

// Rank returns the tier's position in Complexities, or -1 for an unknown tier.
func (c Complexity) Rank() int {
	for i, tier := range Complexities {
		if tier == c {
			return i
		}
	}
	return -1
}

// ParseComplexity accepts any casing and surrounding space.
func ParseComplexity(s string) (Complexity, bool) {
	c := Complexity(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.IsValid()
}

// Quest is one gamified group of tasks. XPReward is fixed at creation.
type Quest struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Tasks      []string   `json:"tasks"`
	Complexity Complexity `json:"complexity"`
	XPReward   int        `json:"xpReward"`
	// BatchID groups quests generated by the same request; Timestamp is the
	// batch creation time in unix milliseconds.
	BatchID   string `json:"taskId,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}
