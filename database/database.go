package database

import (
	"fmt"

	"arcana-app/internal/domain/billing"
	"arcana-app/internal/domain/plans"
	"arcana-app/internal/domain/regions"
	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/domain/users"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to the configured store. "sqlite" is meant for local
// development and tests.
func Open(driver, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty database DSN")
	}

	switch driver {
	case "", "postgres":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// single writer
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// reference data
		&regions.Region{},
		&plans.Plan{},
		&plans.RegionalPrice{},
		&plans.RegionalPlanContent{},

		// accounts
		&users.User{},
		&users.Profile{},

		// billing
		&subscriptions.Subscription{},
		&billing.Payment{},
		&billing.ProcessedEvent{},
	)
}
