package model

import (
	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the profile, backup and audit tables.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range []interface{}{&ProfileRecord{}, &ProfileBackup{}, &AuditLog{}} {
		if err := db.AutoMigrate(m); err != nil {
			return errors.Wrapf(err, "migrate %T", m)
		}
	}
	return nil
}
