package database

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/logging"
	"fintrack/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFastRetries(t *testing.T, retries int) {
	t.Helper()
	originalRetries := maxRetries
	originalInterval := retryInterval
	maxRetries = retries
	retryInterval = 50 * time.Millisecond
	t.Cleanup(func() {
		maxRetries = originalRetries
		retryInterval = originalInterval
	})
}

func TestNewMigrationRunner(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	runner := NewMigrationRunner(db, config.DriverPostgres, logging.Discard())

	assert.NotNil(t, runner)
	assert.Equal(t, db, runner.db)
	assert.Equal(t, config.DriverPostgres, runner.dialect)
}

func TestWaitForDatabase_Success(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(nil)

	runner := NewMigrationRunner(db, config.DriverPostgres, logging.Discard())
	err = runner.WaitForDatabase(context.Background())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitForDatabase_FailureThenSuccess(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing().WillReturnError(nil)

	withFastRetries(t, 2)

	runner := NewMigrationRunner(db, config.DriverPostgres, logging.Discard())
	err = runner.WaitForDatabase(context.Background())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitForDatabase_AlwaysFails(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	withFastRetries(t, 2)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	runner := NewMigrationRunner(db, config.DriverPostgres, logging.Discard())
	err = runner.WaitForDatabase(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database not ready after 2 attempts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitForDatabase_ContextCancelled(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	withFastRetries(t, 5)
	retryInterval = time.Minute

	mock.ExpectPing().WillReturnError(errors.New("starting"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	runner := NewMigrationRunner(db, config.DriverPostgres, logging.Discard())
	err = runner.WaitForDatabase(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMigrationRunner_UnknownDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	runner := NewMigrationRunner(db, "mysql", logging.Discard())

	err = runner.RunMigrations()
	assert.Error(t, err)

	_, _, err = runner.GetMigrationStatus()
	assert.Error(t, err)
}

func TestEmbeddedMigrations_ArePairedPerDialect(t *testing.T) {
	for _, dialect := range []string{config.DriverPostgres, config.DriverSQLite} {
		t.Run(dialect, func(t *testing.T) {
			ups, err := fs.Glob(migrationsFS, "migrations/"+dialect+"/*.up.sql")
			require.NoError(t, err)
			downs, err := fs.Glob(migrationsFS, "migrations/"+dialect+"/*.down.sql")
			require.NoError(t, err)

			require.NotEmpty(t, ups)
			require.Len(t, downs, len(ups))
			for i := range ups {
				assert.Equal(t,
					strings.TrimSuffix(filepath.Base(ups[i]), ".up.sql"),
					strings.TrimSuffix(filepath.Base(downs[i]), ".down.sql"),
				)
			}
		})
	}
}

func TestRunMigrations_SQLiteFileMatchesModels(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "fintrack.db"),
	}

	require.NoError(t, RunMigrations(cfg, logging.Discard()))
	// second run is a no-op
	require.NoError(t, RunMigrations(cfg, logging.Discard()))

	migrationDB, err := openMigrationDB(cfg)
	require.NoError(t, err)
	defer migrationDB.Close()

	version, dirty, err := NewMigrationRunner(migrationDB, cfg.Driver, logging.Discard()).GetMigrationStatus()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(5), version)

	db, err := New(cfg)
	require.NoError(t, err)
	defer db.Close()

	user := CreateTestUser(t, db, "migrated@example.com")
	category := CreateTestCategory(t, db, user, "Groceries", models.EntryTypeExpense)
	created := CreateTestTransaction(t, db, category, "42.50", models.NewDate(2024, time.March, 9))

	var loaded models.Transaction
	require.NoError(t, db.First(&loaded, "id = ?", created.ID).Error)
	assert.True(t, decimal.RequireFromString("42.50").Equal(loaded.Amount))
	assert.Equal(t, "2024-03-09", loaded.Date.String())
	assert.Equal(t, category.ID, loaded.CategoryID)
}
