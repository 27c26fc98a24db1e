package skill

import (
	"time"

	"github.com/kasuganosora/raidprofile/game/profile"
	"go.uber.org/zap"
)

// MaxProgress is the progress of a fully levelled skill (level 51).
const MaxProgress = 5100

// SkillService applies skill point changes to in-memory characters.
type SkillService struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewSkillService creates a new SkillService.
func NewSkillService(logger *zap.Logger) *SkillService {
	return &SkillService{now: time.Now, logger: logger}
}

// AddSkillPoints adds points to one of the character's common skills,
// capped at MaxProgress. Unknown skills and non-positive amounts are logged
// and ignored. It reports whether the skill changed.
func (svc *SkillService) AddSkillPoints(char *profile.Character, skillID string, points float64) bool {
	if points <= 0 {
		svc.logger.Error("refusing non-positive skill points",
			zap.String("character_id", char.ID),
			zap.String("skill_id", skillID),
			zap.Float64("points", points))
		return false
	}
	i := profile.FindSkill(char.Skills.Common, skillID)
	if i < 0 {
		svc.logger.Error("skill not found on character",
			zap.String("character_id", char.ID),
			zap.String("skill_id", skillID))
		return false
	}
	s := &char.Skills.Common[i]
	s.Progress = min(s.Progress+points, MaxProgress)
	s.LastAccess = svc.now().Unix()
	return true
}
