package resource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kasuganosora/raidprofile/game/profile"
)

// ---- Catalog Data Structures ----

// PrestigeElement is one prestige tier as defined in the catalog.
type PrestigeElement struct {
	ID         string            `json:"id" validate:"required"`
	Image      string            `json:"image,omitempty"`
	Conditions []json.RawMessage `json:"conditions,omitempty"`
	Rewards    []RewardDef       `json:"rewards" validate:"dive"`
}

// Prestige is the client-facing tier table.
type Prestige struct {
	Elements []PrestigeElement `json:"elements" validate:"required,min=1,dive"`
}

// CustomizationTemplate is a character cosmetic (head, voice, body...).
type CustomizationTemplate struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required"`
}

// HideoutCustomisationGlobal maps an unlockable hideout cosmetic to its kind
// (wall, floor, ceiling, light, shootingRangeMark...).
type HideoutCustomisationGlobal struct {
	ID     string `json:"id" validate:"required"`
	ItemID string `json:"itemId" validate:"required"`
	Type   string `json:"type" validate:"required"`
}

// ProfileTemplate is the starting character for one side. Items reference
// the placeholder parents "equipment" and "stash"; the creator swaps them
// for the generated container ids.
type ProfileTemplate struct {
	Side   string         `json:"side" validate:"required,oneof=Usec Bear"`
	Voice  string         `json:"voice" validate:"required"`
	Head   string         `json:"head" validate:"required"`
	Body   string         `json:"body"`
	Feet   string         `json:"feet"`
	Hands  string         `json:"hands"`
	Skills profile.Skills `json:"skills"`
	Items  []profile.Item `json:"items"`
}

// Placeholder parent ids used by ProfileTemplate.Items.
const (
	PlaceholderEquipment = "equipment"
	PlaceholderStash     = "stash"
)

// File is the on-disk catalog document.
type File struct {
	Prestige             Prestige                     `json:"prestige"`
	Customization        []CustomizationTemplate      `json:"customization" validate:"dive"`
	HideoutCustomisation []HideoutCustomisationGlobal `json:"hideoutCustomisation" validate:"dive"`
	Profiles             []ProfileTemplate            `json:"profiles" validate:"required,min=1,dive"`
}

// Tier is a prestige element with its rewards decoded.
type Tier struct {
	ID      string
	Rewards []Reward
}

// Catalog is the read-only template database. Safe for concurrent reads.
type Catalog struct {
	file        File
	tiers       []Tier
	custom      map[string]CustomizationTemplate
	voiceByName map[string]string
	hideout     map[string]HideoutCustomisationGlobal
	profiles    map[string]ProfileTemplate
}

var validate = validator.New()

// Load reads a YAML or JSON catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", path, err)
	}
	var f File
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		f, err = parseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("resource: parse %s: %w", path, err)
	}
	return New(f)
}

// parseYAML decodes through a generic tree and re-encodes as JSON so the
// json tags stay the only schema.
func parseYAML(data []byte) (File, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return File{}, err
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		return File{}, err
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return File{}, err
	}
	return f, nil
}

// New validates f and builds the lookup indexes.
func New(f File) (*Catalog, error) {
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("resource: invalid catalog: %w", err)
	}
	c := &Catalog{
		file:        f,
		custom:      make(map[string]CustomizationTemplate, len(f.Customization)),
		voiceByName: make(map[string]string),
		hideout:     make(map[string]HideoutCustomisationGlobal, len(f.HideoutCustomisation)),
		profiles:    make(map[string]ProfileTemplate, len(f.Profiles)),
	}
	seen := make(map[string]bool, len(f.Prestige.Elements))
	for _, el := range f.Prestige.Elements {
		if seen[el.ID] {
			return nil, fmt.Errorf("resource: duplicate prestige element %s", el.ID)
		}
		seen[el.ID] = true
		tier := Tier{ID: el.ID, Rewards: make([]Reward, 0, len(el.Rewards))}
		for _, rd := range el.Rewards {
			tier.Rewards = append(tier.Rewards, rd.Decode())
		}
		c.tiers = append(c.tiers, tier)
	}
	for _, ct := range f.Customization {
		c.custom[ct.ID] = ct
		if ct.Type == "voice" {
			c.voiceByName[ct.Name] = ct.ID
		}
	}
	for _, hc := range f.HideoutCustomisation {
		c.hideout[hc.ItemID] = hc
	}
	for _, pt := range f.Profiles {
		if _, dup := c.profiles[pt.Side]; dup {
			return nil, fmt.Errorf("resource: duplicate profile template for side %s", pt.Side)
		}
		c.profiles[pt.Side] = pt
	}
	return c, nil
}

// ---- Lookups ----

// Prestige returns a copy of the tier table in catalog order.
func (c *Catalog) Prestige() Prestige {
	out := Prestige{Elements: make([]PrestigeElement, len(c.file.Prestige.Elements))}
	for i, el := range c.file.Prestige.Elements {
		cp := el
		cp.Conditions = append([]json.RawMessage(nil), el.Conditions...)
		cp.Rewards = make([]RewardDef, len(el.Rewards))
		for j, rd := range el.Rewards {
			rd.Items = profile.CloneItems(rd.Items)
			cp.Rewards[j] = rd
		}
		out.Elements[i] = cp
	}
	return out
}

// Tiers returns the decoded tiers in catalog order.
func (c *Catalog) Tiers() []Tier {
	out := make([]Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

// VoiceIDByName resolves a voice customization by its name.
func (c *Catalog) VoiceIDByName(name string) (string, bool) {
	id, ok := c.voiceByName[name]
	return id, ok
}

// Customization returns the cosmetic template with the given id.
func (c *Catalog) Customization(id string) (CustomizationTemplate, bool) {
	ct, ok := c.custom[id]
	return ct, ok
}

// HideoutCustomisation returns the hideout global whose itemId is target.
func (c *Catalog) HideoutCustomisation(target string) (HideoutCustomisationGlobal, bool) {
	hc, ok := c.hideout[target]
	return hc, ok
}

// HideoutCustomisations lists every hideout cosmetic in file order.
func (c *Catalog) HideoutCustomisations() []HideoutCustomisationGlobal {
	out := make([]HideoutCustomisationGlobal, len(c.file.HideoutCustomisation))
	copy(out, c.file.HideoutCustomisation)
	return out
}

// ProfileTemplate returns a deep copy of the starting template for side.
func (c *Catalog) ProfileTemplate(side string) (ProfileTemplate, bool) {
	pt, ok := c.profiles[side]
	if !ok {
		return ProfileTemplate{}, false
	}
	pt.Items = profile.CloneItems(pt.Items)
	pt.Skills.Common = append([]profile.Skill(nil), pt.Skills.Common...)
	pt.Skills.Mastering = append([]profile.Skill(nil), pt.Skills.Mastering...)
	return pt, true
}
