package quests

// RewardState is the completion-reward state of one quest.
type RewardState int

const (
	Incomplete RewardState = iota
	// JustCompleted means the quest is full and its award has not been applied.
	JustCompleted
	RewardShown
)

func (s RewardState) String() string {
	switch s {
	case Incomplete:
		return "incomplete"
	case JustCompleted:
		return "just_completed"
	case RewardShown:
		return "reward_shown"
	default:
		return "unknown"
	}
}

// RewardTracker awards a quest once per transition into the complete state.
//
//	Incomplete --full--> JustCompleted --award applied--> RewardShown
//	RewardShown or JustCompleted --not full--> Incomplete
type RewardTracker struct {
	state RewardState
}

// NewRewardTracker starts quests that are already complete as RewardShown, so
// reloading never awards twice.
func NewRewardTracker(complete bool) *RewardTracker {
	if complete {
		return &RewardTracker{state: RewardShown}
	}
	return &RewardTracker{state: Incomplete}
}

func (t *RewardTracker) State() RewardState {
	return t.state
}

// Observe feeds the current completeness and reports whether an award is due.
// An award stays due until MarkRewarded is called.
func (t *RewardTracker) Observe(complete bool) bool {
	if !complete {
		t.state = Incomplete
		return false
	}
	switch t.state {
	case Incomplete:
		t.state = JustCompleted
		return true
	case JustCompleted:
		return true
	default:
		return false
	}
}

// MarkRewarded records that the pending award was applied.
func (t *RewardTracker) MarkRewarded() {
	if t.state == JustCompleted {
		t.state = RewardShown
	}
}
