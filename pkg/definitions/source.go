package definitions

import (
	"context"
	"strings"

	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

// Source is a queryable collection of definitions
type Source interface {
	Label() string
	List(ctx context.Context) ([]types.Summary, error)
	Search(ctx context.Context, query string) ([]types.Summary, error)
	// Fetch returns a *types.NotFoundError when the ID is absent.
	Fetch(ctx context.Context, id types.ID) (*types.Definition, error)
}

// SyncProvider yields every raw file of an upstream collection in one call
type SyncProvider interface {
	Label() string
	FetchAll(ctx context.Context) ([]types.RawDefinitionFile, error)
}

// Lister is the part of Source that DefaultSearch needs
type Lister interface {
	List(ctx context.Context) ([]types.Summary, error)
}

// DefaultSearch lists everything and keeps entries whose name or description
// contains the query, ignoring case.
func DefaultSearch(ctx context.Context, lister Lister, query string) ([]types.Summary, error) {
	summaries, err := lister.List(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matches := []types.Summary{}
	for _, s := range summaries {
		if strings.Contains(strings.ToLower(s.Name), needle) ||
			strings.Contains(strings.ToLower(s.Description), needle) {
			matches = append(matches, s)
		}
	}
	return matches, nil
}
