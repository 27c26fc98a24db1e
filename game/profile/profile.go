package profile

// Well-known container templates every character inventory is built around.
const (
	TplDefaultInventory = "55d7217a4bdc2d86028b456d"
	TplStash            = "566abbc34bdc2d92178b4576"
	TplSortingTable     = "602543c13fee350cd564d032"
)

const (
	SideUsec = "Usec"
	SideBear = "Bear"
)

// SlotHideout is the slot id of items sitting directly in the stash or sorting table.
const SlotHideout = "hideout"

// Profile is the full per-session document: account info, characters and
// account-wide unlocks.
type Profile struct {
	Info                 Info                   `json:"info"`
	Characters           Characters             `json:"characters"`
	Achievements         map[string]int64       `json:"achievements"`
	CustomisationUnlocks []CustomisationStorage `json:"customisationUnlocks"`
}

type Info struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Edition  string `json:"edition,omitempty"`
}

type Characters struct {
	PMC  *Character `json:"pmc"`
	Scav *Character `json:"scav,omitempty"`
}

// Character is one playable character record.
type Character struct {
	ID            string           `json:"_id"`
	Info          CharacterInfo    `json:"Info"`
	Customization Customization    `json:"Customization"`
	Inventory     Inventory        `json:"Inventory"`
	Skills        Skills           `json:"Skills"`
	Hideout       Hideout          `json:"Hideout"`
	Prestige      map[string]int64 `json:"Prestige"`
}

// Hideout holds the cosmetic applied to each hideout slot, keyed by kind
// (wall, floor, ...).
type Hideout struct {
	Customization map[string]string `json:"Customization,omitempty"`
}

type CharacterInfo struct {
	Nickname         string `json:"Nickname"`
	Side             string `json:"Side"`
	Voice            string `json:"Voice"`
	Level            int    `json:"Level"`
	Experience       int64  `json:"Experience"`
	PrestigeLevel    int    `json:"PrestigeLevel"`
	RegistrationDate int64  `json:"RegistrationDate"`
}

type Customization struct {
	Head  string `json:"Head"`
	Body  string `json:"Body"`
	Feet  string `json:"Feet"`
	Hands string `json:"Hands"`
}

// Inventory holds every item a character owns as a flat list; nesting is
// expressed through ParentID.
type Inventory struct {
	Items        []Item `json:"items"`
	Equipment    string `json:"equipment"`
	Stash        string `json:"stash"`
	SortingTable string `json:"sortingTable"`
}

type Item struct {
	ID       string    `json:"_id"`
	Tpl      string    `json:"_tpl"`
	ParentID string    `json:"parentId,omitempty"`
	SlotID   string    `json:"slotId,omitempty"`
	Location *Location `json:"location,omitempty"`
	Upd      *Upd      `json:"upd,omitempty"`
}

type Location struct {
	X          int    `json:"x"`
	Y          int    `json:"y"`
	R          string `json:"r"`
	IsSearched bool   `json:"isSearched"`
}

type Upd struct {
	StackObjectsCount *int  `json:"StackObjectsCount,omitempty"`
	SpawnedInSession  *bool `json:"SpawnedInSession,omitempty"`
}

type Skills struct {
	Common    []Skill `json:"Common"`
	Mastering []Skill `json:"Mastering"`
	Points    float64 `json:"Points"`
}

type Skill struct {
	ID                        string  `json:"Id"`
	Progress                  float64 `json:"Progress"`
	PointsEarnedDuringSession float64 `json:"PointsEarnedDuringSession,omitempty"`
	LastAccess                int64   `json:"LastAccess,omitempty"`
}

// CustomisationStorage is one unlocked cosmetic and where it came from.
type CustomisationStorage struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// Customisation unlock sources.
const (
	SourceDefault  = "default"
	SourcePrestige = "prestige"
	SourceTrader   = "trader"
)

// PMC returns the main character, or nil.
func (p *Profile) PMC() *Character {
	if p == nil {
		return nil
	}
	return p.Characters.PMC
}

// HasUnlock reports whether the customisation id is already unlocked.
func (p *Profile) HasUnlock(id string) bool {
	for _, u := range p.CustomisationUnlocks {
		if u.ID == id {
			return true
		}
	}
	return false
}

// FoundInRaid reports the item's found-in-raid flag, false when unset.
func (it Item) FoundInRaid() bool {
	return it.Upd != nil && it.Upd.SpawnedInSession != nil && *it.Upd.SpawnedInSession
}

// FindItem returns the item with the given id.
func (inv *Inventory) FindItem(id string) (Item, bool) {
	for _, it := range inv.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// ItemWithChildren returns the item and every item nested under it, root first.
// Returned items are deep copies.
func (inv *Inventory) ItemWithChildren(id string) []Item {
	root, ok := inv.FindItem(id)
	if !ok {
		return nil
	}
	out := []Item{root.Clone()}
	queue := []string{id}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, it := range inv.Items {
			if it.ParentID == parent && it.ID != id {
				out = append(out, it.Clone())
				queue = append(queue, it.ID)
			}
		}
	}
	return out
}

// FindSkill returns the index of the skill with the given id in list, or -1.
func FindSkill(list []Skill, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
