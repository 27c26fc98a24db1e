package sqlite

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open opens a SQLite file in WAL mode with a busy timeout, so concurrent
// prestige writes queue instead of failing with SQLITE_BUSY.
func Open(path string, gc *gorm.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	return gorm.Open(sqlite.Open(dsn), gc)
}

// OpenMemory opens a private in-memory database. The name is random so
// parallel tests never share state; the single connection keeps it alive.
func OpenMemory(gc *gorm.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), gc)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	return db, nil
}
