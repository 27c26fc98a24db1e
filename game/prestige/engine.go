package prestige

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/kasuganosora/raidprofile/cache"
	"github.com/kasuganosora/raidprofile/game/creator"
	"github.com/kasuganosora/raidprofile/game/item"
	"github.com/kasuganosora/raidprofile/game/profile"
	"github.com/kasuganosora/raidprofile/plugin/hook"
	"github.com/kasuganosora/raidprofile/resource"
	"github.com/kasuganosora/raidprofile/store"
	"go.uber.org/zap"
)

// RankingKey is the sorted set of session ids scored by prestige level.
const RankingKey = "ranking:prestige"

// ---- Collaborators ----

type ProfileCreator interface {
	CreateProfile(ctx context.Context, sessionID string, req creator.CreateRequest) error
}

type Inventory interface {
	AddItemsToStash(sessionID string, char *profile.Character, req item.AddItemsRequest) (*item.Placement, error)
}

type SkillPoints interface {
	AddSkillPoints(char *profile.Character, skillID string, points float64) bool
}

type Unlocks interface {
	AddHideoutCustomisationUnlock(p *profile.Profile, target, source string) bool
}

type Catalog interface {
	Prestige() resource.Prestige
	Tiers() []resource.Tier
	VoiceIDByName(name string) (string, bool)
}

type Backups interface {
	Archive(ctx context.Context, sessionID string, p *profile.Profile, reason string) (int64, error)
}

// Deps are the services the engine drives. Cache, Hooks, Backups and Metrics
// are optional.
type Deps struct {
	Store     store.ProfileStore
	Creator   ProfileCreator
	Inventory Inventory
	Skills    SkillPoints
	Unlocks   Unlocks
	Catalog   Catalog
	Cache     cache.Cache
	Hooks     *hook.HookCenter
	Backups   Backups
	Metrics   *Metrics
}

// Config tunes the transition.
type Config struct {
	MaxCarriedSkillProgress float64
	MaxTierIndex            int
	AchievementID           string
	LockTTL                 time.Duration
}

// DefaultConfig returns the stock tuning: skills carried up to level 20,
// two reachable tiers.
func DefaultConfig() Config {
	return Config{
		MaxCarriedSkillProgress: 2000,
		MaxTierIndex:            1,
		AchievementID:           "676091c0f457869a94017a23",
		LockTTL:                 30 * time.Second,
	}
}

// Result reports how far a transition got and what it had to skip.
type Result struct {
	State            State    `json:"state"`
	PrestigeLevel    int      `json:"prestige_level"`
	TierID           string   `json:"tier_id,omitempty"`
	BackupID         int64    `json:"backup_id,omitempty"`
	SkippedItems     []string `json:"skipped_items,omitempty"`
	UnhandledRewards []string `json:"unhandled_rewards,omitempty"`
}

// Engine performs prestige transitions.
type Engine struct {
	cfg       Config
	store     store.ProfileStore
	creator   ProfileCreator
	inventory Inventory
	skills    SkillPoints
	unlocks   Unlocks
	catalog   Catalog
	cache     cache.Cache
	hooks     *hook.HookCenter
	backups   Backups
	metrics   *Metrics
	now       func() time.Time
	logger    *zap.Logger
}

// NewEngine creates a new Engine.
func NewEngine(cfg Config, deps Deps, logger *zap.Logger) *Engine {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultConfig().LockTTL
	}
	return &Engine{
		cfg:       cfg,
		store:     deps.Store,
		creator:   deps.Creator,
		inventory: deps.Inventory,
		skills:    deps.Skills,
		unlocks:   deps.Unlocks,
		catalog:   deps.Catalog,
		cache:     deps.Cache,
		hooks:     deps.Hooks,
		backups:   deps.Backups,
		metrics:   deps.Metrics,
		now:       time.Now,
		logger:    logger,
	}
}

// GetPrestigeCatalog returns the tier definitions. It has no side effects.
func (e *Engine) GetPrestigeCatalog() resource.Prestige {
	return e.catalog.Prestige()
}

func lockKey(sessionID string) string { return "lock:prestige:" + sessionID }

// LockSession takes the per-session lock shared by every writer of a
// session's profile. It fails with ErrTransitionInProgress while another
// holder has it. Without a cache it is a no-op.
func (e *Engine) LockSession(ctx context.Context, sessionID string) (unlock func(), err error) {
	if e.cache == nil {
		return func() {}, nil
	}
	token := uuid.NewString()
	ok, err := e.cache.SetNX(ctx, lockKey(sessionID), token, e.cfg.LockTTL)
	if err != nil {
		return nil, errors.Wrapf(err, "prestige: lock %s", sessionID)
	}
	if !ok {
		e.logger.Warn("session locked by another writer", zap.String("session_id", sessionID))
		return nil, ErrTransitionInProgress
	}
	return func() {
		if _, err := e.cache.DelIfEqual(context.WithoutCancel(ctx), lockKey(sessionID), token); err != nil {
			e.logger.Warn("session lock release failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}, nil
}

// ObtainPrestige resets the session's profile one prestige level up,
// carrying over clamped skills and the requested items and applying the
// accumulated tier rewards. The returned Result is never nil.
//
// A failure after the reset leaves the profile as the creator wrote it;
// the pre-prestige backup (when configured) is the only way back.
func (e *Engine) ObtainPrestige(ctx context.Context, sessionID string, transfers []TransferRequest) (*Result, error) {
	start := e.now()
	res := &Result{State: StateIdle}

	unlock, err := e.LockSession(ctx, sessionID)
	if err != nil {
		return res, err
	}
	defer unlock()

	err = e.transition(ctx, sessionID, transfers, res)
	if err != nil {
		if errors.Is(err, ErrPersistence) {
			e.metrics.observe("persistence_failed", e.now().Sub(start))
		} else {
			res.State = StateAborted
			e.metrics.observe(StateAborted.String(), e.now().Sub(start))
		}
		e.logger.Error("prestige transition failed",
			zap.String("session_id", sessionID),
			zap.Int("prestige_level", res.PrestigeLevel),
			zap.Error(err))
		return res, err
	}
	e.metrics.observe(res.State.String(), e.now().Sub(start))
	e.metrics.skipped(len(res.SkippedItems))
	e.logger.Info("prestige obtained",
		zap.String("session_id", sessionID),
		zap.Int("prestige_level", res.PrestigeLevel),
		zap.String("tier_id", res.TierID),
		zap.Int("skipped_items", len(res.SkippedItems)),
		zap.Duration("elapsed", e.now().Sub(start)))
	return res, nil
}

func (e *Engine) transition(ctx context.Context, sessionID string, transfers []TransferRequest, res *Result) error {
	// ---- Snapshot ----
	current, err := e.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			return abort(err, ErrProfileMissing, "prestige: session %s", sessionID)
		}
		return abort(err, ErrProfileMissing, "prestige: load %s", sessionID)
	}
	if current.PMC() == nil {
		return abort(nil, ErrProfileMissing, "prestige: session %s has no main character", sessionID)
	}
	snap := takeSnapshot(current)
	res.State = StateSnapshotted

	target := snap.Info().PrestigeLevel + 1
	res.PrestigeLevel = target
	tiers := e.catalog.Tiers()
	idx := min(target-1, e.cfg.MaxTierIndex)
	if idx < 0 || idx >= len(tiers) {
		return abort(nil, ErrTierUnavailable, "prestige: session %s tier index %d of %d", sessionID, idx, len(tiers))
	}
	tierID, rewards := rewardsFor(tiers, idx)
	res.TierID = tierID

	if e.hooks != nil {
		ids := make([]string, len(transfers))
		for i, t := range transfers {
			ids[i] = t.ID
		}
		ev := &hook.PrestigeEvent{SessionID: sessionID, PrestigeLevel: target, TierID: tierID, TransferIDs: ids}
		if _, err := e.hooks.Trigger(ctx, hook.BeforePrestigeObtain, ev); errors.Is(err, hook.ErrInterrupt) {
			return abort(err, ErrInterrupted, "prestige: session %s", sessionID)
		}
	}

	if e.backups != nil {
		id, err := e.backups.Archive(ctx, sessionID, snap.Profile(), store.ReasonPrePrestige)
		if err != nil {
			return abort(err, ErrBackupFailed, "prestige: session %s", sessionID)
		}
		res.BackupID = id
	}

	// ---- Reset ----
	info := snap.Info()
	voiceID, ok := e.catalog.VoiceIDByName(info.Voice)
	if !ok {
		e.logger.Warn("unable to resolve voice for prestige reset",
			zap.String("session_id", sessionID),
			zap.String("voice", info.Voice))
	}
	err = e.creator.CreateProfile(ctx, sessionID, creator.CreateRequest{
		Side:                info.Side,
		Nickname:            info.Nickname,
		HeadID:              snap.Customization().Head,
		VoiceID:             voiceID,
		ForcedPrestigeLevel: target,
	})
	if err != nil {
		return abort(err, ErrResetFailed, "prestige: create profile for %s", sessionID)
	}
	fresh, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return abort(err, ErrResetFailed, "prestige: reload %s", sessionID)
	}
	if fresh.PMC() == nil {
		return abort(nil, ErrResetFailed, "prestige: reset profile of %s has no main character", sessionID)
	}
	if lvl := fresh.PMC().Info.PrestigeLevel; lvl != target {
		e.logger.Warn("reset profile has unexpected prestige level",
			zap.String("session_id", sessionID),
			zap.Int("got", lvl),
			zap.Int("want", target))
		fresh.PMC().Info.PrestigeLevel = target
	}
	res.State = StateReset

	// ---- Carry over ----
	fresh = carryOverSkills(snap, fresh, e.cfg.MaxCarriedSkillProgress)
	res.State = StateSkillsMerged

	fresh, res.UnhandledRewards = e.applyRewards(sessionID, fresh, rewards)
	if fresh.PMC().Prestige == nil {
		fresh.PMC().Prestige = map[string]int64{}
	}
	fresh.PMC().Prestige[tierID] = e.now().Unix()
	res.State = StateRewardsApplied

	fresh, res.SkippedItems = e.transferItems(sessionID, snap, fresh, transfers)
	res.State = StateItemsTransferred

	fresh = grantAchievement(fresh, e.cfg.AchievementID, e.now())
	res.State = StateAchievementChecked

	// ---- Persist ----
	if err := e.store.Save(ctx, sessionID, fresh); err != nil {
		return errors.Mark(errors.Wrapf(err, "prestige: save %s", sessionID), ErrPersistence)
	}
	res.State = StatePersisted

	if e.cache != nil {
		if err := e.cache.ZAdd(ctx, RankingKey, float64(target), sessionID); err != nil {
			e.logger.Warn("prestige ranking update failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	if e.hooks != nil {
		ev := &hook.PrestigeEvent{SessionID: sessionID, PrestigeLevel: target, TierID: tierID}
		if _, err := e.hooks.Trigger(ctx, hook.AfterPrestigeObtain, ev); err != nil {
			e.logger.Debug("after prestige hook interrupted", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return nil
}

// grantAchievement records id once; an existing timestamp is kept.
func grantAchievement(p *profile.Profile, id string, now time.Time) *profile.Profile {
	if id == "" {
		return p
	}
	if p.Achievements == nil {
		p.Achievements = map[string]int64{}
	}
	if _, ok := p.Achievements[id]; !ok {
		p.Achievements[id] = now.Unix()
	}
	return p
}
