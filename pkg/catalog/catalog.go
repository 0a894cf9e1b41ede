// Package catalog wires configured sources to their local stores and sync
// providers. All stores share one SQLite database, keyed by source label.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/agentdefs/pkg/config"
	"github.com/jingkaihe/agentdefs/pkg/db"
	"github.com/jingkaihe/agentdefs/pkg/definitions"
	"github.com/jingkaihe/agentdefs/pkg/logger"
	"github.com/jingkaihe/agentdefs/pkg/store"
	"github.com/jingkaihe/agentdefs/pkg/telemetry"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

// ErrNoUsableSources is returned by EnsureSynced when every source failed
var ErrNoUsableSources = errors.New("all configured sources failed, nothing to display")

// UnknownSourceError is returned for a label with no enabled source
type UnknownSourceError struct {
	Label string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source %q", e.Label)
}

// IsUnknownSource reports whether err is an UnknownSourceError
func IsUnknownSource(err error) bool {
	var target *UnknownSourceError
	return errors.As(err, &target)
}

// ProviderFactory builds the sync provider for a configured source
type ProviderFactory func(src config.SourceConfig) (definitions.SyncProvider, error)

// Entry pairs a source's store with the provider that refreshes it
type Entry struct {
	Config   config.SourceConfig
	Store    *store.Store
	Provider definitions.SyncProvider

	syncMu sync.Mutex
}

// Label returns the source label
func (e *Entry) Label() string { return e.Config.Label }

// Catalog holds one Entry per enabled source
type Catalog struct {
	db     *sqlx.DB
	ownsDB bool

	mu      sync.RWMutex
	entries []*Entry
	// unusable holds labels whose initial sync failed in EnsureSynced
	unusable map[string]bool
}

type options struct {
	db        *sqlx.DB
	factory   ProviderFactory
	storeOpts []store.Option
}

// Option configures a Catalog
type Option func(*options)

// WithDB uses an already-open database. The catalog does not close it.
func WithDB(sqlDB *sqlx.DB) Option {
	return func(o *options) { o.db = sqlDB }
}

// WithProviderFactory overrides how sync providers are built
func WithProviderFactory(factory ProviderFactory) Option {
	return func(o *options) { o.factory = factory }
}

// WithClock sets the clock used by every store
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.storeOpts = append(o.storeOpts, store.WithClock(now)) }
}

// New opens the database at cfg.DatabasePath, unless WithDB is given, and
// creates a store and provider for every enabled source.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Catalog, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.factory == nil {
		o.factory = func(src config.SourceConfig) (definitions.SyncProvider, error) {
			return NewProvider(cfg.GitHub, src)
		}
	}

	c := &Catalog{db: o.db, unusable: make(map[string]bool)}
	if c.db == nil {
		sqlDB, err := db.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open database %s", cfg.DatabasePath)
		}
		c.db = sqlDB
		c.ownsDB = true
	}

	for _, src := range cfg.EnabledSources() {
		provider, err := o.factory(src)
		if err != nil {
			c.Close()
			return nil, errors.Wrapf(err, "failed to build provider for source %s", src.Label)
		}

		st, err := store.New(ctx, c.db, src.Label, o.storeOpts...)
		if err != nil {
			c.Close()
			return nil, errors.Wrapf(err, "failed to open store for source %s", src.Label)
		}

		c.entries = append(c.entries, &Entry{Config: src, Store: st, Provider: provider})
	}

	logger.G(ctx).WithField("sources", len(c.entries)).Debug("catalog ready")
	return c, nil
}

// DB returns the shared database handle
func (c *Catalog) DB() *sqlx.DB { return c.db }

// Entries returns every entry in configuration order
func (c *Catalog) Entries() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Entry(nil), c.entries...)
}

// Entry returns the entry with the given label
func (c *Catalog) Entry(label string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.Label() == label {
			return e, true
		}
	}
	return nil, false
}

// Sync refreshes a single source. Syncs of the same source are serialized.
func (c *Catalog) Sync(ctx context.Context, label string) (*types.SyncReport, error) {
	entry, ok := c.Entry(label)
	if !ok {
		return nil, &UnknownSourceError{Label: label}
	}

	report, err := c.syncEntry(ctx, entry)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	delete(c.unusable, label)
	c.mu.Unlock()
	return report, nil
}

func (c *Catalog) syncEntry(ctx context.Context, entry *Entry) (*types.SyncReport, error) {
	entry.syncMu.Lock()
	defer entry.syncMu.Unlock()
	return entry.Store.Sync(ctx, entry.Provider)
}

// SyncResult is the outcome of syncing one source
type SyncResult struct {
	Label  string
	Report *types.SyncReport
	Err    error
}

// SyncAll syncs every source in order. A failing source does not stop the
// others; all failures are returned together.
func (c *Catalog) SyncAll(ctx context.Context) ([]SyncResult, error) {
	var result *multierror.Error
	results := make([]SyncResult, 0, len(c.entries))

	for _, entry := range c.Entries() {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		report, err := c.Sync(ctx, entry.Label())
		results = append(results, SyncResult{Label: entry.Label(), Report: report, Err: err})
		if err != nil {
			logger.G(ctx).WithField(logger.FieldSource, entry.Label()).WithError(err).Warn("sync failed")
			telemetry.RecordError(ctx, err, attribute.String(logger.FieldSource, entry.Label()))
			result = multierror.Append(result, errors.Wrapf(err, "sync failed for [%s]", entry.Label()))
		}
	}

	return results, result.ErrorOrNil()
}

// EnsureSynced makes sure every source has data before it is queried.
// Sources never synced are synced now, and excluded from queries if that
// fails. Stale sources stay usable with a warning. ErrNoUsableSources is
// returned when nothing is left.
func (c *Catalog) EnsureSynced(ctx context.Context) ([]types.Feedback, error) {
	var feedback []types.Feedback
	usable := 0

	for _, entry := range c.Entries() {
		label := entry.Label()
		log := logger.G(ctx).WithField(logger.FieldSource, label)

		status, err := entry.Store.SyncStatus(ctx)
		if err != nil {
			log.WithError(err).Warn("could not check sync status")
			feedback = append(feedback, types.WarningFeedback(fmt.Sprintf("could not check sync status for [%s]: %v", label, err)))
			c.markUnusable(label)
			continue
		}

		switch status.State {
		case types.NeverSynced:
			feedback = append(feedback, types.InfoFeedback(fmt.Sprintf("No local cache for [%s]. Running initial sync...", label)))
			report, err := c.Sync(ctx, label)
			if err != nil {
				log.WithError(err).Warn("initial sync failed")
				telemetry.RecordError(ctx, err, attribute.String(logger.FieldSource, label))
				feedback = append(feedback, types.WarningFeedback(fmt.Sprintf("initial sync failed for [%s]: %v", label, err)))
				c.markUnusable(label)
				continue
			}
			feedback = append(feedback, report.Feedback...)
		case types.Stale:
			log.WithFields(logrus.Fields{"days_old": status.DaysOld}).Debug("stale cache")
			feedback = append(feedback, types.WarningFeedback(fmt.Sprintf(
				"local cache for [%s] is %d days old. Run `agentdefs sync` to refresh.", label, status.DaysOld)))
		}
		usable++
	}

	if usable == 0 {
		return feedback, ErrNoUsableSources
	}
	return feedback, nil
}

func (c *Catalog) markUnusable(label string) {
	c.mu.Lock()
	c.unusable[label] = true
	c.mu.Unlock()
}

// Source returns the store for label. An empty label or "all" returns a
// composite over every usable source.
func (c *Catalog) Source(label string) (definitions.Source, error) {
	if label == "" || label == definitions.CompositeLabel {
		c.mu.RLock()
		defer c.mu.RUnlock()
		sources := make([]definitions.Source, 0, len(c.entries))
		for _, e := range c.entries {
			if !c.unusable[e.Label()] {
				sources = append(sources, e.Store)
			}
		}
		return definitions.NewComposite(sources...), nil
	}

	entry, ok := c.Entry(label)
	if !ok {
		return nil, &UnknownSourceError{Label: label}
	}
	return entry.Store, nil
}

// Close closes the database if the catalog opened it
func (c *Catalog) Close() error {
	if c.ownsDB && c.db != nil {
		return c.db.Close()
	}
	return nil
}
