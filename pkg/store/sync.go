package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/agentdefs/pkg/definitions"
	"github.com/jingkaihe/agentdefs/pkg/logger"
	"github.com/jingkaihe/agentdefs/pkg/telemetry"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

// Sync replaces this store's definitions with everything the provider yields.
//
// The provider is called without holding the store lock. Files that are not
// definitions, and skill reference files, are skipped silently; files that
// fail to parse are skipped with a warning. The cached rows are then replaced
// and the sync recorded in a single transaction, so a provider or storage
// failure leaves the previous cache intact.
func (s *Store) Sync(ctx context.Context, provider definitions.SyncProvider) (*types.SyncReport, error) {
	syncID := uuid.NewString()
	var report *types.SyncReport

	err := telemetry.WithSpan(ctx, "store.sync", func(ctx context.Context) error {
		ctx, log := logger.WithSource(ctx, s.label)
		log = log.WithFields(logrus.Fields{
			"provider":         provider.Label(),
			logger.FieldSyncID: syncID,
		})
		ctx = logger.WithLogger(ctx, log)

		log.Debug("fetching definitions")
		files, err := provider.FetchAll(ctx)
		if err != nil {
			var providerErr *types.ProviderError
			if errors.As(err, &providerErr) {
				return err
			}
			return &types.ProviderError{Label: provider.Label(), Err: err}
		}

		defs, built := buildDefinitions(ctx, s.label, files)
		telemetry.SetAttributes(ctx,
			attribute.Int("files", len(files)),
			attribute.Int("synced", built.Synced),
			attribute.Int("skipped", built.Skipped),
		)

		if err := s.replaceAll(ctx, defs); err != nil {
			return err
		}

		for _, fb := range built.Feedback {
			log.Warn(fb.Message)
		}
		log.WithFields(logrus.Fields{
			"synced":  built.Synced,
			"skipped": built.Skipped,
		}).Info("sync complete")

		report = built
		return nil
	}, attribute.String("source", s.label), attribute.String("sync_id", syncID))
	if err != nil {
		return nil, err
	}

	return report, nil
}

// buildDefinitions classifies and parses every file. It touches no storage;
// parse failures are recorded as events on the current span.
func buildDefinitions(ctx context.Context, label string, files []types.RawDefinitionFile) ([]*types.Definition, *types.SyncReport) {
	report := &types.SyncReport{Feedback: []types.Feedback{}}
	defs := make([]*types.Definition, 0, len(files))

	for _, file := range files {
		path := file.RelativePath
		if !definitions.IsDefinitionFile(path) || definitions.IsSkillReference(path) {
			report.Skipped++
			continue
		}

		def, err := definitions.BuildDefinition(definitions.NewOrigin(path, label), file.Content)
		if err != nil {
			telemetry.SkippedDefinition(ctx, path, err)
			report.Skipped++
			report.Feedback = append(report.Feedback, types.WarningFeedback(fmt.Sprintf("skipping %s: %v", path, err)))
			continue
		}

		defs = append(defs, def)
		report.Synced++
	}

	return defs, report
}

func (s *Store) replaceAll(ctx context.Context, defs []*types.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &types.StorageError{Op: "begin sync", Err: err}
	}
	defer tx.Rollback()

	if err := s.clear(ctx, tx); err != nil {
		return err
	}
	for _, def := range defs {
		if err := s.upsert(ctx, tx, def); err != nil {
			return err
		}
	}
	if err := s.recordSync(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &types.StorageError{Op: "commit sync", Err: err}
	}
	return nil
}
