package database

import (
	"strings"

	"guestpass-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

// Open opens a GORM DB from DSN. "sqlite:<path>" selects the pure-Go SQLite driver;
// anything else is treated as a Postgres DSN.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers such as PgBouncer.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if strings.HasPrefix(dsn, sqlitePrefix) {
		path := strings.TrimPrefix(dsn, sqlitePrefix)
		if path == "" {
			path = ":memory:"
		}
		db, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)"), cfg)
		if err != nil {
			return nil, err
		}
		if path == ":memory:" {
			// every pooled connection would otherwise get its own empty database
			sqlDB, err := db.DB()
			if err != nil {
				return nil, err
			}
			sqlDB.SetMaxOpenConns(1)
		}
		return db, nil
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), cfg)
}

// AutoMigrate runs migrations for the event and guest tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Event{}, &domain.Guest{})
}
