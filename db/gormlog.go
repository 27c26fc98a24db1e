package db

import (
	"log"
	"os"
	"time"

	"gorm.io/gorm/logger"
)

// gormLogger is silent unless slow is set, in which case statements slower
// than it are reported on stderr.
func gormLogger(slow time.Duration) logger.Interface {
	if slow <= 0 {
		return logger.Default.LogMode(logger.Silent)
	}
	return logger.New(log.New(os.Stderr, "", log.LstdFlags), logger.Config{
		SlowThreshold:             slow,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
