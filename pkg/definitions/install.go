package definitions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/aymanbagabas/go-udiff"
	"github.com/pkg/errors"

	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

const (
	installRoot          = ".claude"
	defaultSkillCategory = "general"
)

// InstallOutcome describes what Install did to the target file
type InstallOutcome int

// Install outcomes
const (
	InstallCreated InstallOutcome = iota
	InstallUpdated
	InstallUnchanged
)

func (o InstallOutcome) String() string {
	switch o {
	case InstallCreated:
		return "created"
	case InstallUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// InstallResult is the path written and what happened to it
type InstallResult struct {
	Path    string
	Outcome InstallOutcome
}

// ConflictError is returned when the install path holds different content and
// the install was not forced.
type ConflictError struct {
	Path string
	Diff string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists with different content (use --force to overwrite)", e.Path)
}

// InstallPath computes where a definition is installed under target:
//
//	<target>/.claude/agents/<category>/<name>.md
//	<target>/.claude/hooks/<name>.md
//	<target>/.claude/skills/<category|general>/<name>/SKILL.md
func InstallPath(target string, def *types.Definition) string {
	base := filepath.Join(target, installRoot, sanitizeSegment(def.Kind.Dir()))
	name := sanitizeSegment(def.Name)

	if def.Kind == types.KindSkill {
		category := def.Category
		if category == "" {
			category = defaultSkillCategory
		}
		return filepath.Join(base, sanitizeSegment(category), name, skillEntryFile)
	}

	if def.Category != "" {
		return filepath.Join(base, sanitizeSegment(def.Category), name+".md")
	}
	return filepath.Join(base, name+".md")
}

// Install writes the definition's raw content to its install path, creating
// directories as needed. Existing files with different content are only
// overwritten when force is set.
func Install(target string, def *types.Definition, force bool) (*InstallResult, error) {
	if def.Raw == "" {
		return nil, types.ErrNoContent
	}

	path := InstallPath(target, def)
	outcome := InstallCreated

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if string(existing) == def.Raw {
			return &InstallResult{Path: path, Outcome: InstallUnchanged}, nil
		}
		if !force {
			return nil, &ConflictError{
				Path: path,
				Diff: udiff.Unified(path, path, string(existing), def.Raw),
			}
		}
		outcome = InstallUpdated
	case !os.IsNotExist(err):
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create directory for %s", path)
	}
	if err := os.WriteFile(path, []byte(def.Raw), 0o644); err != nil {
		return nil, errors.Wrapf(err, "failed to write %s", path)
	}

	return &InstallResult{Path: path, Outcome: outcome}, nil
}

// sanitizeSegment keeps letters, digits, '-', '_' and '.', replacing anything
// else with '-'. The dot-only names "." and ".." are replaced too.
func sanitizeSegment(s string) string {
	sanitized := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '-'
	}, s)
	if sanitized == "." || sanitized == ".." || sanitized == "" {
		return strings.Repeat("-", max(len(sanitized), 1))
	}
	return sanitized
}
