package resource

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/raidprofile/game/profile"
)

func loadTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load(filepath.Join("testdata", "catalog.yaml"))
	require.NoError(t, err)
	return c
}

func TestLoad_YAML(t *testing.T) {
	c := loadTestCatalog(t)

	tiers := c.Tiers()
	require.Len(t, tiers, 2)
	assert.Equal(t, "6761f28a022f60bb320f3e95", tiers[0].ID)
	require.Len(t, tiers[0].Rewards, 3)

	item, ok := tiers[0].Rewards[0].(ItemReward)
	require.True(t, ok)
	require.Len(t, item.Items, 1)
	assert.True(t, item.Items[0].FoundInRaid())

	skill, ok := tiers[0].Rewards[1].(SkillReward)
	require.True(t, ok)
	assert.Equal(t, "Endurance", skill.Skill)
	assert.Equal(t, 500.0, skill.Points)

	_, ok = tiers[1].Rewards[0].(ExtraDailyQuestReward)
	assert.True(t, ok)
}

func TestLoad_JSON(t *testing.T) {
	f := File{
		Prestige: Prestige{Elements: []PrestigeElement{{ID: "t1"}}},
		Profiles: []ProfileTemplate{{Side: profile.SideBear, Voice: "v", Head: "h"}},
	}
	data, err := json.Marshal(f)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Tiers(), 1)
	_, ok := c.ProfileTemplate(profile.SideBear)
	assert.True(t, ok)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(File{Profiles: []ProfileTemplate{{Side: profile.SideUsec, Voice: "v", Head: "h"}}})
	assert.Error(t, err, "no prestige elements")

	_, err = New(File{
		Prestige: Prestige{Elements: []PrestigeElement{{ID: "t1"}}},
		Profiles: []ProfileTemplate{{Side: "Scav", Voice: "v", Head: "h"}},
	})
	assert.Error(t, err, "unknown side")

	_, err = New(File{
		Prestige: Prestige{Elements: []PrestigeElement{{ID: "t1"}, {ID: "t1"}}},
		Profiles: []ProfileTemplate{{Side: profile.SideUsec, Voice: "v", Head: "h"}},
	})
	assert.Error(t, err, "duplicate tier")

	_, err = New(File{
		Prestige: Prestige{Elements: []PrestigeElement{{ID: "t1", Rewards: []RewardDef{{ID: "r1"}}}}},
		Profiles: []ProfileTemplate{{Side: profile.SideUsec, Voice: "v", Head: "h"}},
	})
	assert.Error(t, err, "reward without type")
}

func TestLookups(t *testing.T) {
	c := loadTestCatalog(t)

	id, ok := c.VoiceIDByName("Usec_2")
	require.True(t, ok)
	assert.Equal(t, "5fc614f40b735e7b024c76e9", id)
	_, ok = c.VoiceIDByName("usec_head_1")
	assert.False(t, ok, "heads are not voices")

	hc, ok := c.HideoutCustomisation("675ff48ce8d2356707079617")
	require.True(t, ok)
	assert.Equal(t, "wall", hc.Type)

	ct, ok := c.Customization("5cc084dd14c02e000b0550a3")
	require.True(t, ok)
	assert.Equal(t, "head", ct.Type)
}

func TestCopiesAreIndependent(t *testing.T) {
	c := loadTestCatalog(t)

	pt, ok := c.ProfileTemplate(profile.SideUsec)
	require.True(t, ok)
	pt.Items[0].ID = "mutated"
	pt.Skills.Common[0].Progress = 99
	again, _ := c.ProfileTemplate(profile.SideUsec)
	assert.Equal(t, "tpl-pockets", again.Items[0].ID)
	assert.Zero(t, again.Skills.Common[0].Progress)

	p := c.Prestige()
	p.Elements[0].Rewards[0].Items[0].ID = "mutated"
	assert.Equal(t, "reward-dogtag", c.Prestige().Elements[0].Rewards[0].Items[0].ID)
}

func TestDecode_Unknown(t *testing.T) {
	r := RewardDef{ID: "x", Type: "Achievement"}.Decode()
	u, ok := r.(UnknownReward)
	require.True(t, ok)
	assert.Equal(t, "Achievement", TypeOf(u))
	assert.Equal(t, "x", r.RewardID())
	assert.Equal(t, RewardTypeSkill, TypeOf(SkillReward{}))
}
