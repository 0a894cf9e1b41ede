package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/agentdefs/pkg/catalog"
	"github.com/jingkaihe/agentdefs/pkg/config"
	"github.com/jingkaihe/agentdefs/pkg/db"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b c", truncate("a\n  b\tc", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "héll…", truncate("héllo wörld", 5))
}

func TestOrDash(t *testing.T) {
	assert.Equal(t, "-", orDash(""))
	assert.Equal(t, "x", orDash("x"))
}

func TestPrintSummaries(t *testing.T) {
	var buf bytes.Buffer
	err := printSummaries(&buf, []types.Summary{
		{ID: "agents/dev/reviewer.md", Name: "reviewer", Description: "Reviews code", Kind: types.KindAgent, Category: "dev", SourceLabel: "local"},
		{ID: "commands/deploy.md", Name: "deploy", Kind: types.KindCommand, SourceLabel: "local"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "KIND", "CATEGORY", "SOURCE", "DESCRIPTION"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"agents/dev/reviewer.md", "agent", "dev", "local", "Reviews", "code"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"commands/deploy.md", "command", "-", "local"}, strings.Fields(lines[2]))
}

func TestRenderDefinition(t *testing.T) {
	def := &types.Definition{
		ID:          "agents/dev/reviewer.md",
		Name:        "reviewer",
		Description: "Reviews code",
		Kind:        types.KindAgent,
		Category:    "dev",
		SourceLabel: "local",
		Body:        "You review code.\n",
		Tools:       []string{"Read", "Grep"},
		Model:       "sonnet",
		Metadata:    map[string]string{"color": "blue"},
		Raw:         "---\nname: reviewer\n---\n# Reviewer\n",
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderDefinition(&buf, def, "text"))
		out := buf.String()
		assert.Contains(t, out, "Name:")
		assert.Contains(t, out, "reviewer")
		assert.Contains(t, out, "Agents")
		assert.Contains(t, out, "Read, Grep")
		assert.Contains(t, out, "sonnet")
		assert.Contains(t, out, "color:")
		assert.True(t, strings.HasSuffix(out, "\nYou review code.\n"))
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderDefinition(&buf, def, "json"))
		assert.Contains(t, buf.String(), `"id": "agents/dev/reviewer.md"`)
		assert.Contains(t, buf.String(), `"kind": "agent"`)
	})

	t.Run("raw", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderDefinition(&buf, def, "raw"))
		assert.Equal(t, def.Raw, buf.String())
	})

	t.Run("html", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderDefinition(&buf, def, "html"))
		assert.Contains(t, buf.String(), "<h1")
		assert.Contains(t, buf.String(), "Reviewer")
	})

	t.Run("unsupported", func(t *testing.T) {
		var buf bytes.Buffer
		err := renderDefinition(&buf, def, "yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unsupported format "yaml"`)
	})
}

func TestReportSyncResults(t *testing.T) {
	ok := catalog.SyncResult{Label: "a", Report: &types.SyncReport{Synced: 2}}
	bad := catalog.SyncResult{Label: "b", Err: errors.New("boom")}

	assert.NoError(t, reportSyncResults(nil))
	assert.NoError(t, reportSyncResults([]catalog.SyncResult{ok}))
	assert.NoError(t, reportSyncResults([]catalog.SyncResult{ok, bad}))

	err := reportSyncResults([]catalog.SyncResult{bad})
	require.Error(t, err)
	assert.Equal(t, "all sources failed to sync", err.Error())
}

func TestWatchRoot(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := db.OpenInMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	dir := t.TempDir()
	cfg := &config.Config{
		Sources: []config.SourceConfig{
			{Label: "mine", Type: config.SourceTypeLocalDir, Path: dir, BasePath: "defs"},
			{Label: "gist", Type: config.SourceTypeGitHubGist, GistID: "abc123"},
		},
	}
	c, err := catalog.New(ctx, cfg, catalog.WithDB(sqlDB))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	root, err := watchRoot(c, "mine")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "defs"), root)

	_, err = watchRoot(c, "gist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only local-dir sources can be watched")

	_, err = watchRoot(c, "missing")
	require.Error(t, err)
	assert.True(t, catalog.IsUnknownSource(err))
}
