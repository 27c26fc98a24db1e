package resource

import "github.com/kasuganosora/raidprofile/game/profile"

// Reward type discriminators as they appear in the catalog.
const (
	RewardTypeItem                = "Item"
	RewardTypeSkill               = "Skill"
	RewardTypeCustomizationDirect = "CustomizationDirect"
	RewardTypeExtraDailyQuest     = "ExtraDailyQuest"
)

// RewardDef is the catalog (and client) representation of a reward.
type RewardDef struct {
	ID      string         `json:"id" validate:"required"`
	Type    string         `json:"type" validate:"required"`
	Index   int            `json:"index"`
	Target  string         `json:"target,omitempty"`
	Value   float64        `json:"value,omitempty"`
	Items   []profile.Item `json:"items,omitempty"`
	Unknown bool           `json:"unknown,omitempty"`
}

// Reward is a decoded reward. The set of implementations is closed:
// ItemReward, SkillReward, CustomizationDirectReward, ExtraDailyQuestReward
// and UnknownReward.
type Reward interface {
	RewardID() string
	reward()
}

// ItemReward grants an item tree to the stash.
type ItemReward struct {
	ID    string
	Items []profile.Item
}

// SkillReward adds progress points to a skill.
type SkillReward struct {
	ID     string
	Skill  string
	Points float64
}

// CustomizationDirectReward unlocks a cosmetic.
type CustomizationDirectReward struct {
	ID     string
	Target string
}

// ExtraDailyQuestReward grants additional daily quests. Not applied yet.
type ExtraDailyQuestReward struct {
	ID    string
	Count int
}

// UnknownReward carries a type the server does not recognise.
type UnknownReward struct {
	ID   string
	Type string
}

func (r ItemReward) RewardID() string                { return r.ID }
func (r SkillReward) RewardID() string               { return r.ID }
func (r CustomizationDirectReward) RewardID() string { return r.ID }
func (r ExtraDailyQuestReward) RewardID() string     { return r.ID }
func (r UnknownReward) RewardID() string             { return r.ID }

func (ItemReward) reward()                {}
func (SkillReward) reward()               {}
func (CustomizationDirectReward) reward() {}
func (ExtraDailyQuestReward) reward()     {}
func (UnknownReward) reward()             {}

// Decode converts the catalog form into its typed variant.
func (d RewardDef) Decode() Reward {
	switch d.Type {
	case RewardTypeItem:
		return ItemReward{ID: d.ID, Items: profile.CloneItems(d.Items)}
	case RewardTypeSkill:
		return SkillReward{ID: d.ID, Skill: d.Target, Points: d.Value}
	case RewardTypeCustomizationDirect:
		return CustomizationDirectReward{ID: d.ID, Target: d.Target}
	case RewardTypeExtraDailyQuest:
		return ExtraDailyQuestReward{ID: d.ID, Count: int(d.Value)}
	default:
		return UnknownReward{ID: d.ID, Type: d.Type}
	}
}

// TypeOf returns the catalog type name of a decoded reward.
func TypeOf(r Reward) string {
	switch v := r.(type) {
	case ItemReward:
		return RewardTypeItem
	case SkillReward:
		return RewardTypeSkill
	case CustomizationDirectReward:
		return RewardTypeCustomizationDirect
	case ExtraDailyQuestReward:
		return RewardTypeExtraDailyQuest
	case UnknownReward:
		return v.Type
	default:
		return "unknown"
	}
}
