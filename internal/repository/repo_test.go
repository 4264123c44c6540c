package repository

import (
	"testing"

	"poolvault/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-process SQLite database with the production schema.
// The sqlite dialector drops the FOR UPDATE clauses the MySQL deployment
// relies on, so these tests cover read-check-write semantics, not row locking.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection, so every query sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Vault{},
		&models.CustodialWallet{},
		&models.LedgerEntry{},
		&models.Position{},
		&models.DepositRecord{},
	))
	return db
}
