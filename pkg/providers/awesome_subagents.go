package providers

import (
	"strings"

	"github.com/jingkaihe/agentdefs/pkg/definitions"
)

const (
	awesomeSubagentsOwner    = "VoltAgent"
	awesomeSubagentsRepo     = "awesome-claude-code-subagents"
	awesomeSubagentsBranch   = "main"
	awesomeSubagentsPrefix   = "categories/"
	awesomeSubagentsKindRoot = "agents/"
)

// NewAwesomeSubagents reads VoltAgent/awesome-claude-code-subagents, mapping
// categories/01-core-development/backend.md to agents/core-development/backend.md.
func NewAwesomeSubagents(label string, client TarballFetcher) definitions.SyncProvider {
	return &tarballProvider{
		label:   label,
		client:  client,
		owner:   awesomeSubagentsOwner,
		repo:    awesomeSubagentsRepo,
		ref:     awesomeSubagentsBranch,
		rewrite: rewriteAwesomeSubagentsPath,
	}
}

func rewriteAwesomeSubagentsPath(path string) (string, bool) {
	if !strings.HasSuffix(path, ".md") || strings.HasSuffix(path, "README.md") {
		return "", false
	}
	rest, ok := strings.CutPrefix(path, awesomeSubagentsPrefix)
	if !ok {
		return "", false
	}
	categoryDir, file, ok := strings.Cut(rest, "/")
	if !ok {
		return "", false
	}
	return awesomeSubagentsKindRoot + stripNumericPrefix(categoryDir) + "/" + file, true
}

// stripNumericPrefix turns "01-core" into "core". Names without a digit run
// followed by a dash are returned unchanged.
func stripNumericPrefix(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end > 0 && end < len(s) && s[end] == '-' {
		return s[end+1:]
	}
	return s
}
