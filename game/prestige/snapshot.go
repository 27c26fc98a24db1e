package prestige

import "github.com/kasuganosora/raidprofile/game/profile"

// Snapshot is a private deep copy of the pre-transition profile. It only
// hands out copies, so no stage can change it.
type Snapshot struct {
	p *profile.Profile
}

func takeSnapshot(p *profile.Profile) Snapshot {
	return Snapshot{p: p.Clone()}
}

func (s Snapshot) pmc() *profile.Character { return s.p.Characters.PMC }

// Info returns the main character's info block.
func (s Snapshot) Info() profile.CharacterInfo { return s.pmc().Info }

// Customization returns the main character's appearance.
func (s Snapshot) Customization() profile.Customization { return s.pmc().Customization }

// CommonSkills returns a copy of the common skill group.
func (s Snapshot) CommonSkills() []profile.Skill {
	return append([]profile.Skill(nil), s.pmc().Skills.Common...)
}

// MasteringSkills returns a copy of the mastering skill group.
func (s Snapshot) MasteringSkills() []profile.Skill {
	return append([]profile.Skill(nil), s.pmc().Skills.Mastering...)
}

// ItemTree returns copies of the item and its children, or nil if the
// snapshot inventory has no such item.
func (s Snapshot) ItemTree(id string) []profile.Item {
	return s.pmc().Inventory.ItemWithChildren(id)
}

func (s Snapshot) isContainer(id string) bool {
	inv := s.pmc().Inventory
	return id == inv.Stash || id == inv.Equipment || id == inv.SortingTable
}

// Profile returns a copy of the whole snapshot.
func (s Snapshot) Profile() *profile.Profile { return s.p.Clone() }
