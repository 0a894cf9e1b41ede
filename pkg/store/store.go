// Package store is the durable per-source definition cache. Each Store owns
// the rows of one source label in a SQLite database and refreshes them in
// bulk from a sync provider.
package store

import (
	"context"
	"database/sql"
	"strconv"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jingkaihe/agentdefs/pkg/db"
	"github.com/jingkaihe/agentdefs/pkg/db/migrations"
	"github.com/jingkaihe/agentdefs/pkg/definitions"
	"github.com/jingkaihe/agentdefs/pkg/logger"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

const secondsPerDay = 86400

// Store implements definitions.Source over a SQLite database for a single source label
type Store struct {
	label string
	now   func() time.Time

	// mu serializes database work. It is never held across a provider fetch.
	mu     sync.Mutex
	db     *sqlx.DB
	ownsDB bool
}

var _ definitions.Source = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used for sync timestamps and staleness
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens the database at dbPath, runs migrations and registers label
func Open(ctx context.Context, dbPath, label string, opts ...Option) (*Store, error) {
	sqlDB, err := db.Open(ctx, dbPath)
	if err != nil {
		return nil, &types.StorageError{Op: "open", Err: err}
	}
	s, err := newStore(ctx, sqlDB, label, true, opts...)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory creates a store backed by a private in-memory database
func OpenInMemory(ctx context.Context, label string, opts ...Option) (*Store, error) {
	sqlDB, err := db.OpenInMemory(ctx)
	if err != nil {
		return nil, &types.StorageError{Op: "open", Err: err}
	}
	s, err := newStore(ctx, sqlDB, label, true, opts...)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// New creates a store on a database shared with other stores. Closing the
// store leaves the database open.
func New(ctx context.Context, sqlDB *sqlx.DB, label string, opts ...Option) (*Store, error) {
	return newStore(ctx, sqlDB, label, false, opts...)
}

func newStore(ctx context.Context, sqlDB *sqlx.DB, label string, ownsDB bool, opts ...Option) (*Store, error) {
	if label == "" {
		return nil, errors.New("source label must not be empty")
	}

	s := &Store{
		label:  label,
		now:    time.Now,
		db:     sqlDB,
		ownsDB: ownsDB,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := db.NewMigrationRunner(sqlDB).Run(ctx, migrations.All()); err != nil {
		return nil, &types.StorageError{Op: "migrate", Err: err}
	}

	if _, err := sqlDB.ExecContext(ctx,
		"INSERT OR IGNORE INTO sources (label, last_synced_at) VALUES (?, NULL)", label); err != nil {
		return nil, &types.StorageError{Op: "register source", Err: err}
	}

	return s, nil
}

// Label returns the source label this store caches
func (s *Store) Label() string { return s.label }

// SyncStatus reports how long ago this source was last synced
func (s *Store) SyncStatus(ctx context.Context) (types.SyncStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastSynced sql.NullString
	err := s.db.GetContext(ctx, &lastSynced, "SELECT last_synced_at FROM sources WHERE label = ?", s.label)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !lastSynced.Valid) {
		return types.SyncStatus{State: types.NeverSynced}, nil
	}
	if err != nil {
		return types.SyncStatus{}, &types.StorageError{Op: "sync status", Err: err}
	}

	syncedAt, err := strconv.ParseInt(lastSynced.String, 10, 64)
	if err != nil {
		logger.G(ctx).WithField(logger.FieldSource, s.label).WithError(err).
			Warn("unparseable sync timestamp, treating as fresh")
		return types.NewSyncStatus(0), nil
	}

	elapsed := s.now().Unix() - syncedAt
	if elapsed < 0 {
		elapsed = 0
	}
	return types.NewSyncStatus(elapsed / secondsPerDay), nil
}

// UpsertDefinition inserts or replaces a definition under this store's label
func (s *Store) UpsertDefinition(ctx context.Context, def *types.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.upsert(ctx, s.db, def)
}

// ClearDefinitions deletes every definition of this store's label
func (s *Store) ClearDefinitions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clear(ctx, s.db)
}

// RecordSync stamps the source with the current time
func (s *Store) RecordSync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.recordSync(ctx, s.db)
}

// Close releases the database if this store opened it
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func (s *Store) upsert(ctx context.Context, e sqlx.ExtContext, def *types.Definition) error {
	record := fromDefinition(s.label, def)
	_, err := sqlx.NamedExecContext(ctx, e, `
		INSERT OR REPLACE INTO definitions (
			id, source_label, name, description, kind, category,
			body, tools_json, model, metadata_json, raw
		) VALUES (
			:id, :source_label, :name, :description, :kind, :category,
			:body, :tools_json, :model, :metadata_json, :raw
		)
	`, record)
	if err != nil {
		return &types.StorageError{Op: "upsert " + string(def.ID), Err: err}
	}
	return nil
}

func (s *Store) clear(ctx context.Context, e sqlx.ExtContext) error {
	if _, err := e.ExecContext(ctx, "DELETE FROM definitions WHERE source_label = ?", s.label); err != nil {
		return &types.StorageError{Op: "clear", Err: err}
	}
	return nil
}

// recordSync never moves the timestamp backwards
func (s *Store) recordSync(ctx context.Context, e sqlx.ExtContext) error {
	now := strconv.FormatInt(s.now().Unix(), 10)
	_, err := e.ExecContext(ctx, `
		INSERT INTO sources (label, last_synced_at) VALUES (?, ?)
		ON CONFLICT(label) DO UPDATE SET last_synced_at = CASE
			WHEN sources.last_synced_at IS NULL
				OR CAST(sources.last_synced_at AS INTEGER) < CAST(excluded.last_synced_at AS INTEGER)
			THEN excluded.last_synced_at
			ELSE sources.last_synced_at
		END
	`, s.label, now)
	if err != nil {
		return &types.StorageError{Op: "record sync", Err: err}
	}
	return nil
}
