package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/logging"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

var (
	maxRetries    = 30
	retryInterval = 2 * time.Second
)

// MigrationRunner applies the embedded SQL migrations for one dialect.
type MigrationRunner struct {
	db      *sql.DB
	dialect string
	log     *slog.Logger
}

func NewMigrationRunner(db *sql.DB, dialect string, log *slog.Logger) *MigrationRunner {
	return &MigrationRunner{
		db:      db,
		dialect: dialect,
		log:     log,
	}
}

// WaitForDatabase pings until the database answers, maxRetries times at most.
func (mr *MigrationRunner) WaitForDatabase(ctx context.Context) error {
	mr.log.Info("waiting for database to be ready")

	for i := 0; i < maxRetries; i++ {
		err := mr.db.PingContext(ctx)
		if err == nil {
			mr.log.Info("database is ready")
			return nil
		}

		mr.log.Warn("database not ready", "attempt", i+1, "max_attempts", maxRetries, logging.KeyError, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	return fmt.Errorf("database not ready after %d attempts", maxRetries)
}

func (mr *MigrationRunner) newMigrate() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations/"+mr.dialect)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	var driver database.Driver
	switch mr.dialect {
	case config.DriverPostgres:
		driver, err = postgres.WithInstance(mr.db, &postgres.Config{})
	case config.DriverSQLite:
		driver, err = sqlite.WithInstance(mr.db, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", mr.dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migration driver: %w", mr.dialect, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, mr.dialect, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// RunMigrations executes all pending migrations. A dirty version left by an
// interrupted run is forced clean before retrying.
func (mr *MigrationRunner) RunMigrations() error {
	m, err := mr.newMigrate()
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		mr.log.Warn("database is in dirty state, forcing version", "version", version)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	mr.log.Info("running migrations", "dialect", mr.dialect, "current_version", version)

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		mr.log.Info("no new migrations to apply")
		return nil
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get new migration version: %w", err)
	}
	mr.log.Info("applied migrations", "version", newVersion)

	return nil
}

func (mr *MigrationRunner) GetMigrationStatus() (version uint, dirty bool, err error) {
	m, err := mr.newMigrate()
	if err != nil {
		return 0, false, err
	}
	return m.Version()
}

// openMigrationDB opens a dedicated connection so golang-migrate's locking
// never shares the GORM pool.
func openMigrationDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return sql.Open("postgres", cfg.URL())
	case config.DriverSQLite:
		return sql.Open("sqlite", cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// RunMigrations waits for the configured database and applies every
// pending migration.
func RunMigrations(cfg *config.DatabaseConfig, log *slog.Logger) error {
	db, err := openMigrationDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	runner := NewMigrationRunner(db, cfg.Driver, log)

	if err := runner.WaitForDatabase(context.Background()); err != nil {
		return fmt.Errorf("database readiness check failed: %w", err)
	}

	if err := runner.RunMigrations(); err != nil {
		return fmt.Errorf("migration execution failed: %w", err)
	}

	return nil
}
