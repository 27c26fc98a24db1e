package creator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kasuganosora/raidprofile/game/profile"
	"github.com/kasuganosora/raidprofile/resource"
	"github.com/kasuganosora/raidprofile/store"
	"go.uber.org/zap"
)

var (
	ErrUnknownSide      = errors.New("creator: unknown side")
	ErrNicknameRequired = errors.New("creator: nickname required")
)

// CreateRequest describes the profile to build. ForcedPrestigeLevel is set
// by the prestige engine only and never decoded from client input.
type CreateRequest struct {
	Side                string `json:"side"`
	Nickname            string `json:"nickname"`
	HeadID              string `json:"headId"`
	VoiceID             string `json:"voiceId"`
	ForcedPrestigeLevel int    `json:"-"`
}

// Catalog is the subset of the template catalog the creator reads.
type Catalog interface {
	ProfileTemplate(side string) (resource.ProfileTemplate, bool)
	Customization(id string) (resource.CustomizationTemplate, bool)
}

// Service builds fresh profiles from the side templates and stores them,
// replacing whatever the session had before.
type Service struct {
	store   store.ProfileStore
	catalog Catalog
	now     func() time.Time
	logger  *zap.Logger
}

// NewService creates a new creator Service.
func NewService(profiles store.ProfileStore, catalog Catalog, logger *zap.Logger) *Service {
	return &Service{store: profiles, catalog: catalog, now: time.Now, logger: logger}
}

// CreateProfile generates a new main character for sessionID and saves it.
// Account-level data (info, achievements, cosmetic unlocks) and the prestige
// history of an existing profile survive; the prestige level never drops.
func (svc *Service) CreateProfile(ctx context.Context, sessionID string, req CreateRequest) error {
	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		return ErrNicknameRequired
	}
	tpl, ok := svc.catalog.ProfileTemplate(req.Side)
	if !ok {
		return ErrUnknownSide
	}

	existing, err := svc.store.Load(ctx, sessionID)
	if err != nil && !errors.Is(err, store.ErrProfileNotFound) {
		return err
	}

	p := &profile.Profile{
		Info:                 profile.Info{ID: sessionID, Username: nickname},
		Achievements:         map[string]int64{},
		CustomisationUnlocks: []profile.CustomisationStorage{},
	}
	prestige := map[string]int64{}
	level := req.ForcedPrestigeLevel
	if existing != nil {
		p.Info = existing.Info
		if existing.Achievements != nil {
			p.Achievements = existing.Achievements
		}
		if existing.CustomisationUnlocks != nil {
			p.CustomisationUnlocks = existing.CustomisationUnlocks
		}
		if old := existing.PMC(); old != nil {
			if old.Prestige != nil {
				prestige = old.Prestige
			}
			level = max(level, old.Info.PrestigeLevel)
		}
	}

	pmc := &profile.Character{
		ID: profile.NewID(),
		Info: profile.CharacterInfo{
			Nickname:         nickname,
			Side:             tpl.Side,
			Voice:            svc.voiceName(sessionID, req.VoiceID, tpl.Voice),
			Level:            1,
			PrestigeLevel:    level,
			RegistrationDate: svc.now().Unix(),
		},
		Customization: profile.Customization{
			Head:  svc.head(sessionID, req.HeadID, tpl.Head),
			Body:  tpl.Body,
			Feet:  tpl.Feet,
			Hands: tpl.Hands,
		},
		Skills:   tpl.Skills,
		Prestige: prestige,
	}
	pmc.Inventory = buildInventory(tpl.Items)
	p.Characters.PMC = pmc

	if err := svc.store.Save(ctx, sessionID, p); err != nil {
		return err
	}
	svc.logger.Info("profile created",
		zap.String("session_id", sessionID),
		zap.String("side", tpl.Side),
		zap.Int("prestige_level", level))
	return nil
}

// voiceName resolves the requested voice id to the name stored on the
// character, falling back to the template voice.
func (svc *Service) voiceName(sessionID, voiceID, fallbackID string) string {
	if voiceID != "" {
		if ct, ok := svc.catalog.Customization(voiceID); ok && ct.Type == "voice" {
			return ct.Name
		}
		svc.logger.Warn("unknown voice, using template voice",
			zap.String("session_id", sessionID),
			zap.String("voice_id", voiceID))
	}
	if ct, ok := svc.catalog.Customization(fallbackID); ok {
		return ct.Name
	}
	return fallbackID
}

func (svc *Service) head(sessionID, headID, fallback string) string {
	if headID == "" {
		return fallback
	}
	if ct, ok := svc.catalog.Customization(headID); ok && ct.Type == "head" {
		return headID
	}
	svc.logger.Warn("unknown head, using template head",
		zap.String("session_id", sessionID),
		zap.String("head_id", headID))
	return fallback
}

// buildInventory creates the container roots and re-ids the template items
// under them.
func buildInventory(items []profile.Item) profile.Inventory {
	inv := profile.Inventory{
		Equipment:    profile.NewID(),
		Stash:        profile.NewID(),
		SortingTable: profile.NewID(),
	}
	inv.Items = []profile.Item{
		{ID: inv.Equipment, Tpl: profile.TplDefaultInventory},
		{ID: inv.Stash, Tpl: profile.TplStash},
		{ID: inv.SortingTable, Tpl: profile.TplSortingTable},
	}
	ids := map[string]string{
		resource.PlaceholderEquipment: inv.Equipment,
		resource.PlaceholderStash:     inv.Stash,
	}
	for _, it := range items {
		ids[it.ID] = profile.NewID()
	}
	for _, it := range items {
		cp := it.Clone()
		cp.ID = ids[it.ID]
		if parent, ok := ids[it.ParentID]; ok {
			cp.ParentID = parent
		}
		inv.Items = append(inv.Items, cp)
	}
	return inv
}
