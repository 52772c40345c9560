// Package testdb opens migrated in-memory stores for package tests.
package testdb

import (
	"testing"

	"arcana-app/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns an empty, migrated in-memory database private to t.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.Logger = logger.Default.LogMode(logger.Silent)

	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Seeded returns a migrated database loaded with the reference catalog.
func Seeded(t *testing.T) *gorm.DB {
	t.Helper()

	db := New(t)
	require.NoError(t, database.Seed(db))
	return db
}
