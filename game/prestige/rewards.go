package prestige

import (
	"github.com/kasuganosora/raidprofile/game/item"
	"github.com/kasuganosora/raidprofile/game/profile"
	"github.com/kasuganosora/raidprofile/resource"
	"go.uber.org/zap"
)

// rewardsFor returns the id of tier idx and the rewards of tiers 0..idx in
// catalog order.
func rewardsFor(tiers []resource.Tier, idx int) (string, []resource.Reward) {
	var out []resource.Reward
	for _, t := range tiers[:idx+1] {
		out = append(out, t.Rewards...)
	}
	return tiers[idx].ID, out
}

// applyRewards applies rewards to fresh in order. A reward that cannot be
// applied is logged and skipped; its type is returned in unhandled.
func (e *Engine) applyRewards(sessionID string, fresh *profile.Profile, rewards []resource.Reward) (*profile.Profile, []string) {
	pmc := fresh.PMC()
	var unhandled []string
	for _, r := range rewards {
		switch r := r.(type) {
		case resource.ItemReward:
			if len(r.Items) == 0 {
				e.logger.Error("prestige item reward has no items",
					zap.String("session_id", sessionID),
					zap.String("reward_id", r.ID))
				continue
			}
			_, err := e.inventory.AddItemsToStash(sessionID, pmc, item.AddItemsRequest{
				Items:           r.Items,
				FoundInRaid:     r.Items[0].FoundInRaid(),
				UseSortingTable: false,
			})
			if err != nil {
				e.logger.Error("unable to add prestige reward item",
					zap.String("session_id", sessionID),
					zap.String("reward_id", r.ID),
					zap.String("tpl", r.Items[0].Tpl),
					zap.Error(err))
			}
		case resource.SkillReward:
			e.skills.AddSkillPoints(pmc, r.Skill, r.Points)
		case resource.CustomizationDirectReward:
			e.unlocks.AddHideoutCustomisationUnlock(fresh, r.Target, profile.SourcePrestige)
		case resource.ExtraDailyQuestReward, resource.UnknownReward:
			kind := resource.TypeOf(r)
			e.logger.Error("unhandled prestige reward type",
				zap.String("session_id", sessionID),
				zap.String("reward_id", r.RewardID()),
				zap.String("type", kind))
			e.metrics.unhandled(kind)
			unhandled = append(unhandled, kind)
		}
	}
	return fresh, unhandled
}
