package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/agentdefs/pkg/db"
)

func TestAllMigrationsApplyAndRollBack(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "definitions.db")

	require.NoError(t, db.RunMigrations(ctx, dbPath, All()))

	applied, err := db.GetMigrationStatus(ctx, dbPath)
	require.NoError(t, err)
	require.Len(t, applied, len(All()))

	for range All() {
		require.NoError(t, db.RollbackMigration(ctx, dbPath, All()))
	}

	applied, err = db.GetMigrationStatus(ctx, dbPath)
	require.NoError(t, err)
	assert.Empty(t, applied)

	require.NoError(t, db.RunMigrations(ctx, dbPath, All()))
}

func TestVersionsAreUnique(t *testing.T) {
	seen := make(map[int64]bool)
	for _, m := range All() {
		assert.False(t, seen[m.Version], "duplicate migration version %d", m.Version)
		seen[m.Version] = true
		assert.NotNil(t, m.Down, "migration %d has no rollback", m.Version)
	}
}

func TestDefinitionJSONColumnsHaveDefaults(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "definitions.db")
	require.NoError(t, db.RunMigrations(ctx, dbPath, All()))

	sqlDB, err := db.Open(ctx, dbPath)
	require.NoError(t, err)
	defer sqlDB.Close()

	_, err = sqlDB.ExecContext(ctx, `INSERT INTO sources (label) VALUES ('mine')`)
	require.NoError(t, err)
	_, err = sqlDB.ExecContext(ctx, `
		INSERT INTO definitions (id, source_label, name, kind, body, raw)
		VALUES ('agents/a.md', 'mine', 'a', 'agent', 'body', 'raw')
	`)
	require.NoError(t, err)

	var row struct {
		Tools    string `db:"tools_json"`
		Metadata string `db:"metadata_json"`
	}
	require.NoError(t, sqlDB.GetContext(ctx, &row,
		`SELECT tools_json, metadata_json FROM definitions WHERE id = 'agents/a.md'`))
	assert.Equal(t, "[]", row.Tools)
	assert.Equal(t, "{}", row.Metadata)
}
