package model

import (
	"time"

	"gorm.io/datatypes"
)

// ProfileRecord stores one session's full profile document.
type ProfileRecord struct {
	SessionID     string         `gorm:"primaryKey;size:64" json:"session_id"`
	Nickname      string         `gorm:"index:idx_profile_nickname;size:32" json:"nickname"`
	Side          string         `gorm:"size:16" json:"side"`
	PrestigeLevel int            `gorm:"default:0" json:"prestige_level"`
	Data          datatypes.JSON `gorm:"not null" json:"data"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ProfileRecord) TableName() string { return "profiles" }

// ProfileBackup is a compressed copy of a profile taken before a prestige reset.
type ProfileBackup struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID     string    `gorm:"index:idx_backup_session;size:64;not null" json:"session_id"`
	PrestigeLevel int       `json:"prestige_level"`
	Reason        string    `gorm:"size:32" json:"reason"`
	Blob          []byte    `gorm:"not null" json:"-"`
	RawSize       int       `json:"raw_size"`
	CreatedAt     time.Time `gorm:"index:idx_backup_created;autoCreateTime" json:"created_at"`
}

func (ProfileBackup) TableName() string { return "profile_backups" }
