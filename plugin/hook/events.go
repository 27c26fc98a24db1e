package hook

const (
	// BeforePrestigeObtain receives a *PrestigeEvent before anything is
	// touched. Returning ErrInterrupt refuses the transition.
	BeforePrestigeObtain = "before_prestige_obtain"
	// AfterPrestigeObtain receives a *PrestigeEvent once the new profile
	// has been persisted.
	AfterPrestigeObtain = "after_prestige_obtain"
	// AfterProfileCreate receives the session id of a newly created profile.
	AfterProfileCreate = "after_profile_create"
)

// PrestigeEvent is the payload of the prestige hooks.
type PrestigeEvent struct {
	SessionID     string
	PrestigeLevel int // level being reached
	TierID        string
	TransferIDs   []string
}
