package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/jingkaihe/agentdefs/pkg/definitions"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

const summaryColumns = "id, source_label, name, description, kind, category"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// KindCount is the number of cached definitions of one kind
type KindCount struct {
	Kind  types.Kind
	Count int
}

// List returns every definition of this source ordered by kind then name
func (s *Store) List(ctx context.Context) ([]types.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []dbSummary
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+summaryColumns+" FROM definitions WHERE source_label = ? ORDER BY kind, name",
		s.label)
	if err != nil {
		return nil, &types.StorageError{Op: "list", Err: err}
	}
	return toSummaries(rows), nil
}

// Search returns definitions whose name, description or body contains the
// query. Matching ignores case for ASCII letters only.
func (s *Store) Search(ctx context.Context, query string) ([]types.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pattern := "%" + likeEscaper.Replace(query) + "%"

	var rows []dbSummary
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+summaryColumns+` FROM definitions
		WHERE source_label = ?
			AND (name LIKE ? ESCAPE '\'
				OR description LIKE ? ESCAPE '\'
				OR body LIKE ? ESCAPE '\')
		ORDER BY kind, name
	`, s.label, pattern, pattern, pattern)
	if err != nil {
		return nil, &types.StorageError{Op: "search", Err: err}
	}
	return toSummaries(rows), nil
}

// Fetch returns the full definition. A skill's SKILL.md path resolves to the
// skill's directory ID.
func (s *Store) Fetch(ctx context.Context, id types.ID) (*types.Definition, error) {
	lookup := string(id)
	if definitions.IsSkillEntryPoint(lookup) {
		lookup = definitions.SkillDirectoryID(lookup)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var row dbDefinition
	err := s.db.GetContext(ctx, &row, `
		SELECT `+summaryColumns+`, body, tools_json, model, metadata_json, raw
		FROM definitions WHERE source_label = ? AND id = ?
	`, s.label, lookup)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, &types.StorageError{Op: "fetch " + string(id), Err: err}
	}
	return row.ToDefinition(), nil
}

// Stats counts the cached definitions per kind
func (s *Store) Stats(ctx context.Context) ([]KindCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []dbKindCount
	err := s.db.SelectContext(ctx, &rows,
		"SELECT kind, COUNT(*) AS count FROM definitions WHERE source_label = ? GROUP BY kind ORDER BY kind",
		s.label)
	if err != nil {
		return nil, &types.StorageError{Op: "stats", Err: err}
	}

	counts := make([]KindCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, KindCount{Kind: types.ParseKind(row.Kind), Count: row.Count})
	}
	return counts, nil
}

func toSummaries(rows []dbSummary) []types.Summary {
	summaries := make([]types.Summary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, rows[i].ToSummary())
	}
	return summaries
}
