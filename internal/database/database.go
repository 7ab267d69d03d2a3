package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/transparencity/backend/internal/logger"
	"github.com/transparencity/backend/internal/models"
)

// Connect opens the SQLite database at dbPath with WAL journaling and a busy timeout so
// concurrent writers wait on each other instead of failing with SQLITE_BUSY.
func Connect(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(withPragmas(dbPath)), &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(logger.Log(), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Proposal{},
		&models.Vote{},
		&models.Comment{},
		&models.OfficialResponse{},
		&models.ImplementationUpdate{},
		&models.AuditRecord{},
		&models.NotificationProvider{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.Contains(dsn, "_journal_mode") {
		dsn += sep + "_journal_mode=WAL"
		sep = "&"
	}
	if !strings.Contains(dsn, "_busy_timeout") {
		dsn += sep + "_busy_timeout=5000"
	}
	return dsn
}
