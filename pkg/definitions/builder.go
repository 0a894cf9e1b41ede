package definitions

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

// Origin is where a document came from, as derived by the path classifier
type Origin struct {
	Path        string
	ID          types.ID
	Name        string
	Kind        types.Kind
	Category    string
	SourceLabel string
}

// NewOrigin classifies a relative path for a source
func NewOrigin(relativePath, sourceLabel string) Origin {
	id, name, kind, category := Classify(relativePath)
	return Origin{
		Path:        relativePath,
		ID:          id,
		Name:        name,
		Kind:        kind,
		Category:    category,
		SourceLabel: sourceLabel,
	}
}

// jsonDefinition is the on-disk shape of a JSON definition file
type jsonDefinition struct {
	Name        string   `json:"name,omitempty" jsonschema:"description=Display name; defaults to the file name"`
	Description string   `json:"description,omitempty" jsonschema:"description=One-line summary"`
	Tools       []string `json:"tools,omitempty" jsonschema:"description=Tools the definition may use"`
	Model       string   `json:"model,omitempty" jsonschema:"description=Preferred model"`
	Kind        string   `json:"kind,omitempty" jsonschema:"description=Overrides the kind derived from the path"`
}

// BuildDefinition picks the JSON or markdown builder by file extension
func BuildDefinition(origin Origin, content string) (*types.Definition, error) {
	if strings.HasSuffix(origin.Path, ".json") {
		return BuildJSONDefinition(origin, content)
	}
	return BuildMarkdownDefinition(origin, content)
}

// BuildMarkdownDefinition builds a definition from a markdown document with
// optional YAML front matter.
func BuildMarkdownDefinition(origin Origin, content string) (*types.Definition, error) {
	parsed, err := ParseFrontmatter(content)
	if err != nil {
		return nil, &types.ParseError{Path: origin.Path, Err: err}
	}

	def := newDefinition(origin, content)
	def.Body = parsed.Body

	fm := parsed.Frontmatter
	if fm == nil {
		return def, nil
	}

	if fm.Name != "" {
		def.Name = fm.Name
	}
	def.Description = fm.Description
	def.Model = fm.Model
	def.Tools = fm.ToolList()
	def.Metadata = fm.Metadata()

	return def, nil
}

// BuildJSONDefinition builds a definition from a JSON object. The body is the
// JSON document itself.
func BuildJSONDefinition(origin Origin, content string) (*types.Definition, error) {
	var doc jsonDefinition
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, &types.ParseError{Path: origin.Path, Err: errors.Wrap(err, "invalid JSON")}
	}

	def := newDefinition(origin, content)
	def.Body = content
	if doc.Name != "" {
		def.Name = doc.Name
	}
	def.Description = doc.Description
	def.Model = doc.Model
	if doc.Tools != nil {
		def.Tools = doc.Tools
	}
	if doc.Kind != "" {
		def.Kind = types.ParseKind(doc.Kind)
	}

	return def, nil
}

func newDefinition(origin Origin, content string) *types.Definition {
	return &types.Definition{
		ID:          origin.ID,
		Name:        origin.Name,
		Kind:        origin.Kind,
		Category:    origin.Category,
		SourceLabel: origin.SourceLabel,
		Tools:       []string{},
		Metadata:    map[string]string{},
		Raw:         content,
	}
}
