package providers

import (
	"strings"

	"github.com/jingkaihe/agentdefs/pkg/definitions"
)

const (
	claudeCodeTemplatesOwner    = "davila7"
	claudeCodeTemplatesRepo     = "claude-code-templates"
	claudeCodeTemplatesBranch   = "main"
	claudeCodeTemplatesBasePath = "cli-tool/components/"
)

// NewClaudeCodeTemplates reads the components tree of davila7/claude-code-templates,
// which is already laid out as <kind>/<category>/<name>.
func NewClaudeCodeTemplates(label string, client TarballFetcher) definitions.SyncProvider {
	return &tarballProvider{
		label:  label,
		client: client,
		owner:  claudeCodeTemplatesOwner,
		repo:   claudeCodeTemplatesRepo,
		ref:    claudeCodeTemplatesBranch,
		rewrite: func(path string) (string, bool) {
			return strings.CutPrefix(path, claudeCodeTemplatesBasePath)
		},
	}
}
