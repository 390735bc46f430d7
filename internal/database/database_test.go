package database

import (
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/logging"
	"fintrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(&config.DatabaseConfig{Driver: "mysql"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestInitialize_SQLiteWithAutoMigrateFallback(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			Path:   t.TempDir() + "/fintrack.db",
		},
	}

	db, err := Initialize(cfg, logging.Discard())
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.HealthCheck())
	for _, table := range []string{"users", "categories", "transactions", "refresh_tokens", "blacklisted_tokens", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Transaction{}, "idx_transactions_user_date"))
}

func TestDB_ForeignKeysAreEnforced(t *testing.T) {
	db := SetupTestDB(t)

	user := CreateTestUser(t, db, "fk@example.com")
	category := CreateTestCategory(t, db, user, "Rent", models.EntryTypeExpense)
	CreateTestTransaction(t, db, category, "900.00", models.NewDate(2024, time.January, 1))

	err := db.Delete(category).Error
	assert.Error(t, err, "a category with transactions must not be deletable")
}

func TestDB_TransactionRollsBack(t *testing.T) {
	db := SetupTestDB(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.User{Name: "Rolled Back", Email: "rollback@example.com", PasswordHash: "x"}).Error; err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}
