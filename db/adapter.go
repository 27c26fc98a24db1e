package db

import (
	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/raidprofile/config"
	dbmysql "github.com/kasuganosora/raidprofile/db/mysql"
	dbsqlite "github.com/kasuganosora/raidprofile/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeMemory = "memory"
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
)

// Open connects to the profile database selected by cfg.Mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gc := &gorm.Config{Logger: gormLogger(cfg.SlowQuery)}
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Mode {
	case ModeMemory:
		db, err = dbsqlite.OpenMemory(gc)
	case ModeSQLite:
		db, err = dbsqlite.Open(cfg.SQLitePath, gc)
	case ModeMySQL:
		db, err = dbmysql.Open(dbmysql.Options{
			DSN:     cfg.MySQLDSN,
			MaxOpen: cfg.MySQLMaxOpen,
			MaxIdle: cfg.MySQLMaxIdle,
			MaxLife: cfg.MySQLMaxLife,
		}, gc)
	default:
		return nil, errors.Newf("db: unknown mode %q", cfg.Mode)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "db: open %s", cfg.Mode)
	}
	return db, nil
}
