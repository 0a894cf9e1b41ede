package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jingkaihe/agentdefs/pkg/config"
	"github.com/jingkaihe/agentdefs/pkg/db"
	"github.com/jingkaihe/agentdefs/pkg/definitions"
	"github.com/jingkaihe/agentdefs/pkg/providers"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

type fakeProvider struct {
	label string
	files []types.RawDefinitionFile
	err   error
	calls int
}

func (p *fakeProvider) Label() string { return p.label }

func (p *fakeProvider) FetchAll(context.Context) ([]types.RawDefinitionFile, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.files, nil
}

func agentFile(category, name string) types.RawDefinitionFile {
	return types.RawDefinitionFile{
		RelativePath: fmt.Sprintf("agents/%s/%s.md", category, name),
		Content:      fmt.Sprintf("---\nname: %s\ndescription: the %s agent\n---\nBody of %s\n", name, name, name),
	}
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	catalog   *Catalog
	providers map[string]*fakeProvider
	clock     *clock
}

func newFixture(t *testing.T, labels ...string) *fixture {
	t.Helper()
	ctx := context.Background()

	sqlDB, err := db.OpenInMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	f := &fixture{
		providers: make(map[string]*fakeProvider),
		clock:     &clock{now: time.Unix(1_700_000_000, 0)},
	}
	cfg := &config.Config{}
	for _, label := range labels {
		cfg.Sources = append(cfg.Sources, config.SourceConfig{Label: label, Type: config.SourceTypeLocalDir, Path: "/unused"})
		f.providers[label] = &fakeProvider{label: label}
	}

	f.catalog, err = New(ctx, cfg,
		WithDB(sqlDB),
		WithClock(f.clock.Now),
		WithProviderFactory(func(src config.SourceConfig) (definitions.SyncProvider, error) {
			return f.providers[src.Label], nil
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { f.catalog.Close() })
	return f
}

func TestNewSkipsDisabledSources(t *testing.T) {
	disabled := false
	cfg := &config.Config{
		DatabasePath: filepath.Join(t.TempDir(), "defs.db"),
		Sources: []config.SourceConfig{
			{Label: "a", Type: config.SourceTypeLocalDir, Path: t.TempDir()},
			{Label: "b", Type: config.SourceTypeLocalDir, Path: t.TempDir(), Enabled: &disabled},
		},
	}

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Label())
	assert.IsType(t, &providers.Dir{}, entries[0].Provider)

	_, ok := c.Entry("b")
	assert.False(t, ok)
}

func TestNewProviderFailure(t *testing.T) {
	sqlDB, err := db.OpenInMemory(context.Background())
	require.NoError(t, err)
	defer sqlDB.Close()

	cfg := &config.Config{Sources: []config.SourceConfig{{Label: "a", Type: "svn"}}}
	_, err = New(context.Background(), cfg, WithDB(sqlDB))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source type "svn"`)
}

func TestSync(t *testing.T) {
	f := newFixture(t, "one", "two")
	ctx := context.Background()
	f.providers["one"].files = []types.RawDefinitionFile{agentFile("dev", "alpha"), agentFile("dev", "beta")}
	f.providers["two"].files = []types.RawDefinitionFile{agentFile("ops", "gamma")}

	report, err := f.catalog.Sync(ctx, "one")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Synced)

	entry, ok := f.catalog.Entry("one")
	require.True(t, ok)
	list, err := entry.Store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// Stores share the database but not their rows.
	other, _ := f.catalog.Entry("two")
	list, err = other.Store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.catalog.Sync(ctx, "missing")
	assert.Error(t, err)
}

func TestSyncAllAggregatesFailures(t *testing.T) {
	f := newFixture(t, "one", "broken", "three")
	f.providers["one"].files = []types.RawDefinitionFile{agentFile("dev", "alpha")}
	f.providers["broken"].err = errors.New("connection refused")
	f.providers["three"].files = []types.RawDefinitionFile{agentFile("ops", "gamma")}

	results, err := f.catalog.SyncAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed for [broken]")
	assert.Contains(t, err.Error(), "connection refused")

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.True(t, types.IsProviderError(results[1].Err))
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 1, results[2].Report.Synced)
	assert.Equal(t, 1, f.providers["three"].calls)
}

func TestSyncAllRecordsFailuresOnSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	f := newFixture(t, "one", "broken")
	f.providers["one"].files = []types.RawDefinitionFile{agentFile("dev", "alpha")}
	f.providers["broken"].err = errors.New("connection refused")

	ctx, span := tp.Tracer("test").Start(context.Background(), "sync-all")
	_, err := f.catalog.SyncAll(ctx)
	span.End()
	require.Error(t, err)

	var parent tracetest.SpanStub
	for _, s := range exporter.GetSpans() {
		if s.Name == "sync-all" {
			parent = s
		}
	}
	require.Len(t, parent.Events, 1)
	assert.Equal(t, "exception", parent.Events[0].Name)
	assert.Contains(t, parent.Events[0].Attributes, attribute.String("source", "broken"))
}

func TestEnsureSynced(t *testing.T) {
	t.Run("initial sync for never synced sources", func(t *testing.T) {
		f := newFixture(t, "one")
		f.providers["one"].files = []types.RawDefinitionFile{agentFile("dev", "alpha")}

		feedback, err := f.catalog.EnsureSynced(context.Background())
		require.NoError(t, err)
		require.NotEmpty(t, feedback)
		assert.Contains(t, feedback[0].Message, "No local cache for [one]")
		assert.Equal(t, 1, f.providers["one"].calls)

		// Fresh now, so no second sync.
		feedback, err = f.catalog.EnsureSynced(context.Background())
		require.NoError(t, err)
		assert.Empty(t, feedback)
		assert.Equal(t, 1, f.providers["one"].calls)
	})

	t.Run("stale sources warn but stay usable", func(t *testing.T) {
		f := newFixture(t, "one")
		f.providers["one"].files = []types.RawDefinitionFile{agentFile("dev", "alpha")}
		_, err := f.catalog.Sync(context.Background(), "one")
		require.NoError(t, err)

		f.clock.now = f.clock.now.Add(time.Duration(types.StaleThresholdDays) * 24 * time.Hour)
		feedback, err := f.catalog.EnsureSynced(context.Background())
		require.NoError(t, err)
		require.Len(t, feedback, 1)
		assert.True(t, feedback[0].IsWarning())
		assert.Contains(t, feedback[0].Message, fmt.Sprintf("is %d days old", types.StaleThresholdDays))
		assert.Equal(t, 1, f.providers["one"].calls)
	})

	t.Run("failed initial sync excludes the source", func(t *testing.T) {
		f := newFixture(t, "good", "bad")
		f.providers["good"].files = []types.RawDefinitionFile{agentFile("dev", "alpha")}
		f.providers["bad"].err = errors.New("404")

		feedback, err := f.catalog.EnsureSynced(context.Background())
		require.NoError(t, err)

		assert.Contains(t, feedback, types.WarningFeedback("initial sync failed for [bad]: provider bad: 404"))

		src, err := f.catalog.Source("")
		require.NoError(t, err)
		composite, ok := src.(*definitions.Composite)
		require.True(t, ok)
		require.Len(t, composite.Sources(), 1)
		assert.Equal(t, "good", composite.Sources()[0].Label())
	})

	t.Run("error when nothing is usable", func(t *testing.T) {
		f := newFixture(t, "bad")
		f.providers["bad"].err = errors.New("offline")

		_, err := f.catalog.EnsureSynced(context.Background())
		assert.ErrorIs(t, err, ErrNoUsableSources)
	})
}

func TestSource(t *testing.T) {
	f := newFixture(t, "one", "two")
	ctx := context.Background()
	f.providers["one"].files = []types.RawDefinitionFile{agentFile("dev", "alpha")}
	f.providers["two"].files = []types.RawDefinitionFile{agentFile("ops", "alpha")}
	_, err := f.catalog.SyncAll(ctx)
	require.NoError(t, err)

	single, err := f.catalog.Source("two")
	require.NoError(t, err)
	assert.Equal(t, "two", single.Label())
	list, err := single.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "two", list[0].SourceLabel)

	all, err := f.catalog.Source(definitions.CompositeLabel)
	require.NoError(t, err)
	assert.Equal(t, definitions.CompositeLabel, all.Label())
	list, err = all.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "one", list[0].SourceLabel)
	assert.Equal(t, "two", list[1].SourceLabel)

	_, err = f.catalog.Source("nope")
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	gh := config.GitHubConfig{Token: "t", APIBaseURL: "http://localhost"}
	tests := []struct {
		src   config.SourceConfig
		label string
	}{
		{config.SourceConfig{Label: "cct", Type: config.SourceTypeClaudeCodeTemplates}, "cct"},
		{config.SourceConfig{Label: "aws", Type: config.SourceTypeAwesomeSubagents}, "aws"},
		{config.SourceConfig{Label: "repo", Type: config.SourceTypeGitHubRepo, Owner: "o", Repo: "r", Branch: "main"}, "repo"},
		{config.SourceConfig{Label: "gist", Type: config.SourceTypeGitHubGist, GistID: "abc"}, "gist"},
		{config.SourceConfig{Label: "dir", Type: config.SourceTypeLocalDir, Path: "/tmp"}, "dir"},
	}
	for _, tt := range tests {
		t.Run(tt.src.Type, func(t *testing.T) {
			p, err := NewProvider(gh, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.label, p.Label())
		})
	}

	_, err := NewProvider(gh, config.SourceConfig{Label: "x", Type: "ftp"})
	assert.Error(t, err)
}

func TestUnknownSource(t *testing.T) {
	f := newFixture(t, "one")

	_, err := f.catalog.Source("ghost")
	assert.True(t, IsUnknownSource(err))
	assert.EqualError(t, err, `unknown source "ghost"`)

	_, err = f.catalog.Sync(context.Background(), "ghost")
	assert.True(t, IsUnknownSource(err))

	assert.False(t, IsUnknownSource(errors.New("other")))
}
