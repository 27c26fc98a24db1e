package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kasuganosora/raidprofile/game/profile"
	"github.com/kasuganosora/raidprofile/model"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrBackupNotFound is returned when a backup id does not exist.
var ErrBackupNotFound = errors.New("store: backup not found")

// Backup reasons.
const (
	ReasonPrePrestige = "pre_prestige"
	ReasonPreRestore  = "pre_restore"
)

// BackupStore keeps zstd-compressed profile copies for operator recovery.
type BackupStore struct {
	db      *gorm.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  *zap.Logger
}

// NewBackupStore creates a BackupStore.
func NewBackupStore(db *gorm.DB, logger *zap.Logger) (*BackupStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, err
	}
	return &BackupStore{db: db, encoder: encoder, decoder: decoder, logger: logger}, nil
}

// Close releases the codec resources.
func (b *BackupStore) Close() {
	b.encoder.Close()
	b.decoder.Close()
}

// Archive stores a compressed copy of p and returns the backup id.
func (b *BackupStore) Archive(ctx context.Context, sessionID string, p *profile.Profile, reason string) (int64, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("store: encode backup %s: %w", sessionID, err)
	}
	rec := &model.ProfileBackup{
		SessionID: sessionID,
		Reason:    reason,
		Blob:      b.encoder.EncodeAll(raw, nil),
		RawSize:   len(raw),
	}
	if pmc := p.PMC(); pmc != nil {
		rec.PrestigeLevel = pmc.Info.PrestigeLevel
	}
	if err := b.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, fmt.Errorf("store: write backup %s: %w", sessionID, err)
	}
	b.logger.Info("profile archived",
		zap.String("session_id", sessionID),
		zap.Int64("backup_id", rec.ID),
		zap.String("reason", reason),
		zap.Int("raw_size", rec.RawSize),
		zap.Int("stored_size", len(rec.Blob)))
	return rec.ID, nil
}

// List returns backup metadata (without blobs), newest first. An empty
// sessionID lists every session.
func (b *BackupStore) List(ctx context.Context, sessionID string, limit int) ([]model.ProfileBackup, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := b.db.WithContext(ctx).
		Select("id", "session_id", "prestige_level", "reason", "raw_size", "created_at").
		Order("id DESC").Limit(limit)
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}
	var out []model.ProfileBackup
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: list backups: %w", err)
	}
	return out, nil
}

// Get decodes the backup with the given id.
func (b *BackupStore) Get(ctx context.Context, id int64) (*model.ProfileBackup, *profile.Profile, error) {
	var rec model.ProfileBackup
	err := b.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrBackupNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("store: read backup %d: %w", id, err)
	}
	raw, err := b.decoder.DecodeAll(rec.Blob, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("store: decompress backup %d: %w", id, err)
	}
	var p profile.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, nil, fmt.Errorf("store: decode backup %d: %w", id, err)
	}
	return &rec, &p, nil
}

// Restore writes the backup back as the session's live profile. The profile
// being replaced is archived first.
func (b *BackupStore) Restore(ctx context.Context, id int64, profiles ProfileStore) (*model.ProfileBackup, error) {
	rec, p, err := b.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	current, err := profiles.Load(ctx, rec.SessionID)
	switch {
	case err == nil:
		if _, err := b.Archive(ctx, rec.SessionID, current, ReasonPreRestore); err != nil {
			return nil, err
		}
	case !errors.Is(err, ErrProfileNotFound):
		return nil, err
	}
	if err := profiles.Save(ctx, rec.SessionID, p); err != nil {
		return nil, err
	}
	b.logger.Info("profile restored from backup",
		zap.String("session_id", rec.SessionID),
		zap.Int64("backup_id", id))
	return rec, nil
}

// Prune deletes backups created before cutoff and returns how many were removed.
func (b *BackupStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := b.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.ProfileBackup{})
	if res.Error != nil {
		return 0, fmt.Errorf("store: prune backups: %w", res.Error)
	}
	return res.RowsAffected, nil
}
