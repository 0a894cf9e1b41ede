package catalog

import (
	"github.com/pkg/errors"

	"github.com/jingkaihe/agentdefs/pkg/config"
	"github.com/jingkaihe/agentdefs/pkg/definitions"
	"github.com/jingkaihe/agentdefs/pkg/github"
	"github.com/jingkaihe/agentdefs/pkg/providers"
)

// NewProvider builds the sync provider for a configured source
func NewProvider(gh config.GitHubConfig, src config.SourceConfig) (definitions.SyncProvider, error) {
	opts := []github.Option{
		github.WithToken(gh.Token),
		github.WithAPIBaseURL(gh.APIBaseURL),
		github.WithRetry(gh.Retry),
	}

	switch src.Type {
	case config.SourceTypeClaudeCodeTemplates:
		return providers.NewClaudeCodeTemplates(src.Label, github.NewTarballClient(opts...)), nil
	case config.SourceTypeAwesomeSubagents:
		return providers.NewAwesomeSubagents(src.Label, github.NewTarballClient(opts...)), nil
	case config.SourceTypeGitHubRepo:
		return providers.NewRepo(src.Label, providers.RepoConfig{
			Owner:    src.Owner,
			Repo:     src.Repo,
			Branch:   src.Branch,
			BasePath: src.BasePath,
		}, github.NewTarballClient(opts...)), nil
	case config.SourceTypeGitHubGist:
		return providers.NewGist(src.Label, src.GistID, src.PathPrefix, github.NewGistClient(opts...)), nil
	case config.SourceTypeLocalDir:
		return providers.NewDir(src.Label, src.Path, src.BasePath), nil
	default:
		return nil, errors.Errorf("unknown source type %q", src.Type)
	}
}
