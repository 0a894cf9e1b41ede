// Package db provides shared SQLite database utilities.
package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// BasePathEnv overrides the directory holding the definitions database
const BasePathEnv = "AGENTDEFS_BASE_PATH"

// DefaultDBPath returns the default path for the definitions cache database.
func DefaultDBPath() (string, error) {
	if basePath := os.Getenv(BasePathEnv); basePath != "" {
		return filepath.Join(basePath, "definitions.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".agentdefs", "definitions.db"), nil
}

// Open opens or creates a SQLite database at the given path with optimal configuration.
func Open(ctx context.Context, dbPath string) (*sqlx.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	if err := Configure(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to configure database")
	}

	return db, nil
}

// OpenInMemory opens a private in-memory database. It is limited to a single
// connection so every query sees the same database.
func OpenInMemory(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open in-memory database")
	}

	db.SetMaxIdleConns(1)
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db, []string{
		"PRAGMA temp_store=memory",
		"PRAGMA foreign_keys=ON",
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to configure database")
	}

	return db, nil
}

// Configure sets up SQLite pragmas for optimal WAL mode performance.
func Configure(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=1000",
		"PRAGMA temp_store=memory",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}

	if err := applyPragmas(ctx, db, pragmas); err != nil {
		return err
	}

	db.SetMaxIdleConns(1)
	db.SetMaxOpenConns(1)

	var journalMode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode); err != nil {
		return errors.Wrap(err, "failed to query journal mode")
	}

	if strings.ToLower(journalMode) != "wal" {
		return errors.Errorf("WAL mode not enabled. Current mode: %s", journalMode)
	}

	return nil
}

func applyPragmas(ctx context.Context, db *sqlx.DB, pragmas []string) error {
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return errors.Wrapf(err, "failed to execute pragma: %s", pragma)
		}
	}
	return nil
}

// RunMigrations opens the database at dbPath and applies any pending migrations.
func RunMigrations(ctx context.Context, dbPath string, migrations []Migration) error {
	sqlDB, err := Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	runner := NewMigrationRunner(sqlDB)
	return runner.Run(ctx, migrations)
}

// GetMigrationStatus returns the applied migration versions of the database at dbPath, oldest first.
func GetMigrationStatus(ctx context.Context, dbPath string) ([]int64, error) {
	sqlDB, err := Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	defer sqlDB.Close()

	return NewMigrationRunner(sqlDB).GetAppliedVersions(ctx)
}

// RollbackMigration rolls back the most recent migration of the database at dbPath.
func RollbackMigration(ctx context.Context, dbPath string, migrations []Migration) error {
	sqlDB, err := Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return NewMigrationRunner(sqlDB).Rollback(ctx, migrations)
}

// Settings are the connection settings a database reports after Open
type Settings struct {
	JournalMode string
	Synchronous string
	ForeignKeys string
}

// ReadSettings opens the database at dbPath and reports its settings.
func ReadSettings(ctx context.Context, dbPath string) (Settings, error) {
	sqlDB, err := Open(ctx, dbPath)
	if err != nil {
		return Settings{}, err
	}
	defer sqlDB.Close()

	return readSettings(ctx, sqlDB)
}

func readSettings(ctx context.Context, db *sqlx.DB) (Settings, error) {
	var s Settings
	if err := db.GetContext(ctx, &s.JournalMode, "PRAGMA journal_mode"); err != nil {
		return s, errors.Wrap(err, "failed to query journal mode")
	}
	if err := db.GetContext(ctx, &s.Synchronous, "PRAGMA synchronous"); err != nil {
		return s, errors.Wrap(err, "failed to query synchronous mode")
	}
	if err := db.GetContext(ctx, &s.ForeignKeys, "PRAGMA foreign_keys"); err != nil {
		return s, errors.Wrap(err, "failed to query foreign keys")
	}
	return s, nil
}

// Check returns an error naming the first setting that differs from what
// Configure applies.
func (s Settings) Check() error {
	if strings.ToLower(s.JournalMode) != "wal" {
		return errors.Errorf("expected WAL mode, got %s", s.JournalMode)
	}
	if s.Synchronous != "1" {
		return errors.Errorf("expected NORMAL synchronous mode, got %s", s.Synchronous)
	}
	if s.ForeignKeys != "1" {
		return errors.Errorf("expected foreign keys ON, got %s", s.ForeignKeys)
	}
	return nil
}
