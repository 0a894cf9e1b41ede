package definitions

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"

	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

// Filter narrows a listing. Zero-valued fields match everything.
type Filter struct {
	Kinds    []types.Kind
	Category string
	// NamePattern is a glob such as "code-*", matched ignoring case.
	NamePattern string
}

// CompiledFilter is a Filter with its name pattern compiled
type CompiledFilter struct {
	filter  Filter
	pattern glob.Glob
}

// Compile validates the name pattern
func (f Filter) Compile() (*CompiledFilter, error) {
	compiled := &CompiledFilter{filter: f}
	if f.NamePattern != "" {
		g, err := glob.Compile(strings.ToLower(f.NamePattern))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid name pattern %q", f.NamePattern)
		}
		compiled.pattern = g
	}
	return compiled, nil
}

// Matches reports whether a summary passes every set criterion
func (c *CompiledFilter) Matches(s types.Summary) bool {
	if len(c.filter.Kinds) > 0 {
		found := false
		for _, kind := range c.filter.Kinds {
			if kind == s.Kind {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.filter.Category != "" && !strings.EqualFold(c.filter.Category, s.Category) {
		return false
	}
	if c.pattern != nil && !c.pattern.Match(strings.ToLower(s.Name)) {
		return false
	}
	return true
}

// Apply returns the matching summaries in their original order
func (c *CompiledFilter) Apply(summaries []types.Summary) []types.Summary {
	matched := []types.Summary{}
	for _, s := range summaries {
		if c.Matches(s) {
			matched = append(matched, s)
		}
	}
	return matched
}
