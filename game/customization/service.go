package customization

import (
	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/raidprofile/game/profile"
	"github.com/kasuganosora/raidprofile/resource"
	"go.uber.org/zap"
)

var (
	// ErrNotUnlocked is returned when applying a cosmetic the profile does not own.
	ErrNotUnlocked = errors.New("customisation: not unlocked")
	// ErrNotHideout is returned when the id is not a hideout cosmetic.
	ErrNotHideout  = errors.New("customisation: not a hideout cosmetic")
	ErrNoCharacter = errors.New("customisation: profile has no character")
)

// Catalog is the subset of the template catalog the unlock service reads.
type Catalog interface {
	HideoutCustomisation(target string) (resource.HideoutCustomisationGlobal, bool)
	HideoutCustomisations() []resource.HideoutCustomisationGlobal
	Customization(id string) (resource.CustomizationTemplate, bool)
}

// UnlockService records cosmetic unlocks on profiles.
type UnlockService struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewUnlockService creates a new UnlockService.
func NewUnlockService(catalog Catalog, logger *zap.Logger) *UnlockService {
	return &UnlockService{catalog: catalog, logger: logger}
}

// AddHideoutCustomisationUnlock unlocks target on p, tagged with source.
// Targets missing from the catalog are logged and ignored; already unlocked
// targets are left as they are. It reports whether an unlock was added.
func (svc *UnlockService) AddHideoutCustomisationUnlock(p *profile.Profile, target, source string) bool {
	if p.HasUnlock(target) {
		return false
	}
	kind := ""
	if hc, ok := svc.catalog.HideoutCustomisation(target); ok {
		kind = hc.Type
	} else if ct, ok := svc.catalog.Customization(target); ok {
		kind = ct.Type
	} else {
		svc.logger.Error("unknown customisation unlock target",
			zap.String("session_id", p.Info.ID),
			zap.String("target", target),
			zap.String("source", source))
		return false
	}
	p.CustomisationUnlocks = append(p.CustomisationUnlocks, profile.CustomisationStorage{
		ID:     target,
		Source: source,
		Type:   kind,
	})
	return true
}

// Storage returns a copy of the profile's unlocks, never nil.
func (svc *UnlockService) Storage(p *profile.Profile) []profile.CustomisationStorage {
	out := make([]profile.CustomisationStorage, len(p.CustomisationUnlocks))
	copy(out, p.CustomisationUnlocks)
	return out
}

// Offers lists every hideout cosmetic the catalog knows about.
func (svc *UnlockService) Offers() []resource.HideoutCustomisationGlobal {
	return svc.catalog.HideoutCustomisations()
}

// SetCustomisation applies the unlocked hideout cosmetic id to its slot on
// the main character. Only ids present in the profile's unlocks are accepted.
func (svc *UnlockService) SetCustomisation(p *profile.Profile, id string) error {
	pmc := p.PMC()
	if pmc == nil {
		return ErrNoCharacter
	}
	hc, ok := svc.catalog.HideoutCustomisation(id)
	if !ok {
		return errors.Wrapf(ErrNotHideout, "%s", id)
	}
	if !p.HasUnlock(id) {
		return errors.Wrapf(ErrNotUnlocked, "%s", id)
	}
	if pmc.Hideout.Customization == nil {
		pmc.Hideout.Customization = make(map[string]string)
	}
	pmc.Hideout.Customization[hc.Type] = id
	svc.logger.Debug("hideout customisation applied",
		zap.String("session_id", p.Info.ID),
		zap.String("type", hc.Type),
		zap.String("id", id))
	return nil
}
