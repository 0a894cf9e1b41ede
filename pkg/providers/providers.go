// Package providers adapts upstream collections to definitions.SyncProvider.
// Each provider fetches a whole collection and rewrites paths into the
// <kind>/<category>/<name> layout the classifier understands.
package providers

import (
	"context"
	"strings"

	"github.com/jingkaihe/agentdefs/pkg/github"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

// TarballFetcher downloads a repository snapshot
type TarballFetcher interface {
	Fetch(ctx context.Context, owner, repo, ref string) ([]github.File, error)
}

// GistFetcher downloads the files of a gist
type GistFetcher interface {
	Fetch(ctx context.Context, gistID string) ([]github.File, error)
}

// tarballProvider fetches a fixed repository and maps each path with rewrite.
// Paths for which rewrite returns false are dropped.
type tarballProvider struct {
	label   string
	client  TarballFetcher
	owner   string
	repo    string
	ref     string
	rewrite func(path string) (string, bool)
}

func (p *tarballProvider) Label() string { return p.label }

func (p *tarballProvider) FetchAll(ctx context.Context) ([]types.RawDefinitionFile, error) {
	files, err := p.client.Fetch(ctx, p.owner, p.repo, p.ref)
	if err != nil {
		return nil, &types.ProviderError{Label: p.label, Err: err}
	}

	raw := make([]types.RawDefinitionFile, 0, len(files))
	for _, f := range files {
		path, ok := p.rewrite(f.Path)
		if !ok || path == "" {
			continue
		}
		raw = append(raw, types.RawDefinitionFile{RelativePath: path, Content: f.Content})
	}
	return raw, nil
}

// normalizeBasePath returns the base path with exactly one trailing slash,
// or "" when unset.
func normalizeBasePath(basePath string) string {
	basePath = strings.Trim(basePath, "/")
	if basePath == "" {
		return ""
	}
	return basePath + "/"
}
