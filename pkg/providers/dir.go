package providers

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/jingkaihe/agentdefs/pkg/definitions"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

const definitionGlob = "**/*.{md,json}"

// Dir syncs definitions from a local directory laid out like a repository
type Dir struct {
	label string
	root  string
}

var _ definitions.SyncProvider = (*Dir)(nil)

// NewDir creates a provider reading path, optionally narrowed to basePath
func NewDir(label, path, basePath string) *Dir {
	root := path
	if basePath != "" {
		root = filepath.Join(path, filepath.FromSlash(basePath))
	}
	return &Dir{label: label, root: root}
}

// Root is the directory being read
func (d *Dir) Root() string { return d.root }

func (d *Dir) Label() string { return d.label }

// FetchAll reads every markdown and JSON file below the root. Paths use
// forward slashes relative to the root.
func (d *Dir) FetchAll(ctx context.Context) ([]types.RawDefinitionFile, error) {
	info, err := os.Stat(d.root)
	if err != nil {
		return nil, &types.ProviderError{Label: d.label, Err: errors.Wrap(err, "failed to read definition directory")}
	}
	if !info.IsDir() {
		return nil, &types.ProviderError{Label: d.label, Err: errors.Errorf("%s is not a directory", d.root)}
	}

	fsys := os.DirFS(d.root)
	matches, err := doublestar.Glob(fsys, definitionGlob, doublestar.WithFilesOnly())
	if err != nil {
		return nil, &types.ProviderError{Label: d.label, Err: errors.Wrap(err, "failed to list definition files")}
	}

	files := make([]types.RawDefinitionFile, 0, len(matches))
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := fs.ReadFile(fsys, match)
		if err != nil {
			return nil, &types.ProviderError{Label: d.label, Err: errors.Wrapf(err, "failed to read %s", match)}
		}
		files = append(files, types.RawDefinitionFile{RelativePath: match, Content: string(content)})
	}
	return files, nil
}
