package testutil

import (
	"testing"

	"github.com/kasuganosora/raidprofile/cache"
	"github.com/kasuganosora/raidprofile/config"
	dbadapter "github.com/kasuganosora/raidprofile/db"
	"github.com/kasuganosora/raidprofile/game/profile"
	"github.com/kasuganosora/raidprofile/model"
	"github.com/kasuganosora/raidprofile/resource"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB creates an in-memory SQLite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode: dbadapter.ModeMemory,
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates a LocalCache (no Redis required).
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewCache(cache.CacheConfig{}) // empty RedisAddr → LocalCache
	require.NoError(t, err, "SetupTestCache: NewCache")
	return c
}

// Catalog ids used by TestCatalog.
const (
	TierOneID        = "tier-1"
	TierTwoID        = "tier-2"
	TierThreeID      = "tier-3"
	RewardItemTpl    = "tpl-dogtag"
	RewardWallID     = "wall-prestige-1"
	RewardFloorID    = "floor-prestige-2"
	VoiceUsec1ID     = "voice-usec-1"
	VoiceUsec2ID     = "voice-usec-2"
	VoiceBear1ID     = "voice-bear-1"
	HeadUsecID       = "head-usec"
	HeadBearID       = "head-bear"
	TemplateKnifeTpl = "tpl-knife"
)

// TestCatalog builds a small catalog in memory: three tiers (item, skill and
// cosmetic rewards in the first, an ExtraDailyQuest in the second) and a
// profile template per side.
func TestCatalog(t *testing.T) *resource.Catalog {
	t.Helper()
	fir := true
	one := 1
	c, err := resource.New(resource.File{
		Prestige: resource.Prestige{Elements: []resource.PrestigeElement{
			{ID: TierOneID, Rewards: []resource.RewardDef{
				{ID: "r-item", Type: resource.RewardTypeItem, Items: []profile.Item{
					{ID: "dogtag", Tpl: RewardItemTpl, Upd: &profile.Upd{StackObjectsCount: &one, SpawnedInSession: &fir}},
				}},
				{ID: "r-skill", Type: resource.RewardTypeSkill, Index: 1, Target: "Endurance", Value: 500},
				{ID: "r-wall", Type: resource.RewardTypeCustomizationDirect, Index: 2, Target: RewardWallID},
			}},
			{ID: TierTwoID, Rewards: []resource.RewardDef{
				{ID: "r-daily", Type: resource.RewardTypeExtraDailyQuest, Value: 1},
				{ID: "r-floor", Type: resource.RewardTypeCustomizationDirect, Index: 1, Target: RewardFloorID},
			}},
			{ID: TierThreeID},
		}},
		Customization: []resource.CustomizationTemplate{
			{ID: VoiceUsec1ID, Name: "Usec_1", Type: "voice"},
			{ID: VoiceUsec2ID, Name: "Usec_2", Type: "voice"},
			{ID: VoiceBear1ID, Name: "Bear_1", Type: "voice"},
			{ID: HeadUsecID, Name: "usec_head_1", Type: "head"},
			{ID: HeadBearID, Name: "bear_head_1", Type: "head"},
		},
		HideoutCustomisation: []resource.HideoutCustomisationGlobal{
			{ID: "hc-wall", ItemID: RewardWallID, Type: "wall"},
			{ID: "hc-floor", ItemID: RewardFloorID, Type: "floor"},
		},
		Profiles: []resource.ProfileTemplate{
			{
				Side: profile.SideUsec, Voice: VoiceUsec1ID, Head: HeadUsecID,
				Skills: profile.Skills{Common: []profile.Skill{{ID: "Endurance"}, {ID: "Vitality"}}},
				Items: []profile.Item{
					{ID: "knife", Tpl: TemplateKnifeTpl, ParentID: resource.PlaceholderEquipment, SlotID: "Scabbard"},
				},
			},
			{
				Side: profile.SideBear, Voice: VoiceBear1ID, Head: HeadBearID,
				Skills: profile.Skills{Common: []profile.Skill{{ID: "Endurance"}}},
			},
		},
	})
	require.NoError(t, err, "TestCatalog: New")
	return c
}
