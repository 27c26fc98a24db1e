package profile

// Clone returns a deep copy. Mutating the copy never affects p and vice versa.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := &Profile{
		Info: p.Info,
		Characters: Characters{
			PMC:  p.Characters.PMC.Clone(),
			Scav: p.Characters.Scav.Clone(),
		},
		Achievements: cloneTimestamps(p.Achievements),
	}
	if p.CustomisationUnlocks != nil {
		out.CustomisationUnlocks = make([]CustomisationStorage, len(p.CustomisationUnlocks))
		copy(out.CustomisationUnlocks, p.CustomisationUnlocks)
	}
	return out
}

// Clone returns a deep copy of the character.
func (c *Character) Clone() *Character {
	if c == nil {
		return nil
	}
	out := &Character{
		ID:            c.ID,
		Info:          c.Info,
		Customization: c.Customization,
		Inventory: Inventory{
			Equipment:    c.Inventory.Equipment,
			Stash:        c.Inventory.Stash,
			SortingTable: c.Inventory.SortingTable,
			Items:        CloneItems(c.Inventory.Items),
		},
		Skills: Skills{
			Common:    cloneSkills(c.Skills.Common),
			Mastering: cloneSkills(c.Skills.Mastering),
			Points:    c.Skills.Points,
		},
		Prestige: cloneTimestamps(c.Prestige),
	}
	if c.Hideout.Customization != nil {
		out.Hideout.Customization = make(map[string]string, len(c.Hideout.Customization))
		for k, v := range c.Hideout.Customization {
			out.Hideout.Customization[k] = v
		}
	}
	return out
}

// Clone returns a deep copy of the item, including location and upd.
func (it Item) Clone() Item {
	out := it
	if it.Location != nil {
		loc := *it.Location
		out.Location = &loc
	}
	if it.Upd != nil {
		upd := Upd{}
		if it.Upd.StackObjectsCount != nil {
			n := *it.Upd.StackObjectsCount
			upd.StackObjectsCount = &n
		}
		if it.Upd.SpawnedInSession != nil {
			b := *it.Upd.SpawnedInSession
			upd.SpawnedInSession = &b
		}
		out.Upd = &upd
	}
	return out
}

// CloneItems deep-copies a list of items.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

func cloneSkills(in []Skill) []Skill {
	if in == nil {
		return nil
	}
	out := make([]Skill, len(in))
	copy(out, in)
	return out
}

func cloneTimestamps(in map[string]int64) map[string]int64 {
	if in == nil {
		return nil
	}
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
