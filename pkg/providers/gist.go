package providers

import (
	"context"
	"strings"

	"github.com/jingkaihe/agentdefs/pkg/definitions"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

// Gist syncs the flat file list of a gist. PathPrefix places the files in the
// standard layout, e.g. "skills/rust/analyzer" for a gist holding SKILL.md.
type Gist struct {
	label      string
	gistID     string
	pathPrefix string
	client     GistFetcher
}

var _ definitions.SyncProvider = (*Gist)(nil)

// NewGist creates a gist provider
func NewGist(label, gistID, pathPrefix string, client GistFetcher) *Gist {
	return &Gist{
		label:      label,
		gistID:     gistID,
		pathPrefix: strings.Trim(pathPrefix, "/"),
		client:     client,
	}
}

func (g *Gist) Label() string { return g.label }

func (g *Gist) FetchAll(ctx context.Context) ([]types.RawDefinitionFile, error) {
	files, err := g.client.Fetch(ctx, g.gistID)
	if err != nil {
		return nil, &types.ProviderError{Label: g.label, Err: err}
	}

	raw := make([]types.RawDefinitionFile, 0, len(files))
	for _, f := range files {
		path := f.Path
		if g.pathPrefix != "" {
			path = g.pathPrefix + "/" + f.Path
		}
		raw = append(raw, types.RawDefinitionFile{RelativePath: path, Content: f.Content})
	}
	return raw, nil
}
