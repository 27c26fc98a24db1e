package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kasuganosora/raidprofile/cache"
	"github.com/kasuganosora/raidprofile/game/profile"
	"github.com/kasuganosora/raidprofile/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProfileNotFound is returned when a session has no stored profile.
var ErrProfileNotFound = errors.New("store: profile not found")

// ProfileStore loads and saves whole profile documents by session id.
// Every Load returns a freshly decoded value owned by the caller.
type ProfileStore interface {
	Load(ctx context.Context, sessionID string) (*profile.Profile, error)
	Save(ctx context.Context, sessionID string, p *profile.Profile) error
}

// GormProfileStore persists profiles as JSON documents with an optional
// read-through cache in front.
type GormProfileStore struct {
	db     *gorm.DB
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewProfileStore creates a GormProfileStore. c may be nil.
func NewProfileStore(db *gorm.DB, c cache.Cache, ttl time.Duration, logger *zap.Logger) *GormProfileStore {
	return &GormProfileStore{db: db, cache: c, ttl: ttl, logger: logger}
}

func cacheKey(sessionID string) string { return "profile:" + sessionID }

// Load returns the stored profile or ErrProfileNotFound.
func (s *GormProfileStore) Load(ctx context.Context, sessionID string) (*profile.Profile, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey(sessionID))
		switch {
		case err == nil:
			var p profile.Profile
			if err := json.Unmarshal([]byte(raw), &p); err == nil {
				return &p, nil
			}
			s.logger.Warn("discarding unreadable cached profile", zap.String("session_id", sessionID))
		case !cache.IsNotFound(err):
			s.logger.Warn("profile cache read failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	var rec model.ProfileRecord
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", sessionID, err)
	}
	var p profile.Profile
	if err := json.Unmarshal(rec.Data, &p); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", sessionID, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(sessionID), string(rec.Data), s.ttl); err != nil {
			s.logger.Warn("profile cache fill failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return &p, nil
}

// Save upserts the profile and invalidates the cached copy.
func (s *GormProfileStore) Save(ctx context.Context, sessionID string, p *profile.Profile) error {
	if p == nil {
		return fmt.Errorf("store: save %s: nil profile", sessionID)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", sessionID, err)
	}
	rec := model.ProfileRecord{
		SessionID: sessionID,
		Data:      datatypes.JSON(data),
	}
	if pmc := p.PMC(); pmc != nil {
		rec.Nickname = pmc.Info.Nickname
		rec.Side = pmc.Info.Side
		rec.PrestigeLevel = pmc.Info.PrestigeLevel
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"nickname", "side", "prestige_level", "data", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("store: save %s: %w", sessionID, err)
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, cacheKey(sessionID)); err != nil {
			s.logger.Warn("profile cache invalidate failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return nil
}
