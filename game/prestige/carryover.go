package prestige

import "github.com/kasuganosora/raidprofile/game/profile"

// carryOverSkills merges both skill groups of the snapshot into fresh with
// progress clamped to maxProgress. Skills that only exist in fresh are kept.
func carryOverSkills(snap Snapshot, fresh *profile.Profile, maxProgress float64) *profile.Profile {
	pmc := fresh.PMC()
	pmc.Skills.Common = mergeSkills(pmc.Skills.Common, snap.CommonSkills(), maxProgress)
	pmc.Skills.Mastering = mergeSkills(pmc.Skills.Mastering, snap.MasteringSkills(), maxProgress)
	return fresh
}

// mergeSkills walks src in order, updating the matching entry of dst or
// appending a new one.
func mergeSkills(dst, src []profile.Skill, maxProgress float64) []profile.Skill {
	for _, s := range src {
		s.Progress = min(s.Progress, maxProgress)
		if i := profile.FindSkill(dst, s.ID); i >= 0 {
			dst[i].Progress = s.Progress
			continue
		}
		dst = append(dst, s)
	}
	return dst
}
