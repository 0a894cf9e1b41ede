package providers

import (
	"strings"

	"github.com/jingkaihe/agentdefs/pkg/definitions"
)

// RepoConfig identifies a repository whose tree follows the standard layout
type RepoConfig struct {
	Owner  string
	Repo   string
	Branch string
	// BasePath limits the sync to a subdirectory and is stripped from paths.
	BasePath string
}

// NewRepo syncs an arbitrary GitHub repository
func NewRepo(label string, cfg RepoConfig, client TarballFetcher) definitions.SyncProvider {
	prefix := normalizeBasePath(cfg.BasePath)
	return &tarballProvider{
		label:  label,
		client: client,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		ref:    cfg.Branch,
		rewrite: func(path string) (string, bool) {
			if prefix == "" {
				return path, true
			}
			return strings.CutPrefix(path, prefix)
		},
	}
}
