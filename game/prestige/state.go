package prestige

// State is the progress of one transition.
type State int

const (
	StateIdle State = iota
	StateSnapshotted
	StateReset
	StateSkillsMerged
	StateRewardsApplied
	StateItemsTransferred
	StateAchievementChecked
	StatePersisted
	StateAborted
)

var stateNames = [...]string{
	StateIdle:               "idle",
	StateSnapshotted:        "snapshotted",
	StateReset:              "reset",
	StateSkillsMerged:       "skills_merged",
	StateRewardsApplied:     "rewards_applied",
	StateItemsTransferred:   "items_transferred",
	StateAchievementChecked: "achievement_checked",
	StatePersisted:          "persisted",
	StateAborted:            "aborted",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StatePersisted || s == StateAborted
}
