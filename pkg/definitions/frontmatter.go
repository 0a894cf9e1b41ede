package definitions

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// ValueKind tags the YAML type of a front matter value
type ValueKind int

// Front matter value kinds
const (
	ValueString ValueKind = iota
	ValueBool
	ValueInt
	ValueFloat
	ValueNull
	ValueComposite
)

// Value is a front matter field that is not modeled explicitly. Only scalar
// values survive into a definition's metadata; nulls, sequences and mappings
// are dropped.
type Value struct {
	Kind ValueKind
	Text string
}

// Scalar returns the metadata string form of a scalar value
func (v Value) Scalar() (string, bool) {
	switch v.Kind {
	case ValueString, ValueBool, ValueInt, ValueFloat:
		return v.Text, true
	default:
		return "", false
	}
}

// Frontmatter holds the fields parsed from a YAML block between --- delimiters
type Frontmatter struct {
	Name        string
	Description string
	// Tools is the raw comma-separated tool list
	Tools  string
	Model  string
	Color  string
	Extras map[string]Value
}

// ToolList splits the comma-separated tools into a trimmed, non-empty list
func (fm *Frontmatter) ToolList() []string {
	tools := []string{}
	for _, tool := range strings.Split(fm.Tools, ",") {
		if tool = strings.TrimSpace(tool); tool != "" {
			tools = append(tools, tool)
		}
	}
	return tools
}

// Metadata returns the scalar extras, plus color when set, as a string map
func (fm *Frontmatter) Metadata() map[string]string {
	metadata := make(map[string]string)
	for key, value := range fm.Extras {
		if s, ok := value.Scalar(); ok {
			metadata[key] = s
		}
	}
	if fm.Color != "" {
		metadata["color"] = fm.Color
	}
	return metadata
}

// ParsedDocument is a markdown document split into front matter and body.
// Frontmatter is nil when the document has none.
type ParsedDocument struct {
	Frontmatter *Frontmatter
	Body        string
}

// ParseFrontmatter splits a markdown document into YAML front matter and body.
// The block must open with --- at the start of the document (leading
// whitespace ignored) and close at the next line starting with ---. A missing
// opening or closing delimiter means the whole input is body; invalid YAML
// inside a delimited block is an error.
func ParseFrontmatter(content string) (*ParsedDocument, error) {
	trimmed := strings.TrimLeftFunc(content, unicode.IsSpace)
	if !strings.HasPrefix(trimmed, frontmatterDelimiter) {
		return &ParsedDocument{Body: content}, nil
	}

	afterOpening := trimmed[len(frontmatterDelimiter):]
	end := strings.Index(afterOpening, "\n"+frontmatterDelimiter)
	if end < 0 {
		return &ParsedDocument{Body: content}, nil
	}

	yamlBlock := afterOpening[:end]
	rest := afterOpening[end+1+len(frontmatterDelimiter):]

	fm, err := decodeFrontmatter(yamlBlock)
	if err != nil {
		return nil, errors.Wrap(err, "invalid YAML in frontmatter")
	}

	return &ParsedDocument{
		Frontmatter: fm,
		Body:        strings.TrimPrefix(rest, "\n"),
	}, nil
}

func decodeFrontmatter(block string) (*Frontmatter, error) {
	fm := &Frontmatter{Extras: make(map[string]Value)}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return fm, nil
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return fm, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("frontmatter must be a mapping")
	}

	seen := make(map[string]bool, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		if seen[key] {
			return nil, errors.Errorf("duplicate key %q", key)
		}
		seen[key] = true
		value := resolveAlias(root.Content[i+1])

		switch key {
		case "name":
			if err := decodeString(value, &fm.Name); err != nil {
				return nil, errors.Wrapf(err, "field %q", key)
			}
		case "description":
			if err := decodeString(value, &fm.Description); err != nil {
				return nil, errors.Wrapf(err, "field %q", key)
			}
		case "model":
			if err := decodeString(value, &fm.Model); err != nil {
				return nil, errors.Wrapf(err, "field %q", key)
			}
		case "color":
			if err := decodeString(value, &fm.Color); err != nil {
				return nil, errors.Wrapf(err, "field %q", key)
			}
		case "tools":
			tools, err := decodeTools(value)
			if err != nil {
				return nil, errors.Wrapf(err, "field %q", key)
			}
			fm.Tools = tools
		default:
			fm.Extras[key] = toValue(value)
		}
	}

	return fm, nil
}

// decodeString accepts any scalar, leaving dst empty for null
func decodeString(node *yaml.Node, dst *string) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil
	}
	if node.Kind != yaml.ScalarNode {
		return errors.New("expected a string")
	}
	*dst = node.Value
	return nil
}

// decodeTools accepts a comma-separated string or a sequence of scalars
func decodeTools(node *yaml.Node) (string, error) {
	if node.Kind != yaml.SequenceNode {
		var s string
		err := decodeString(node, &s)
		return s, err
	}

	items := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		var s string
		if err := decodeString(resolveAlias(item), &s); err != nil {
			return "", err
		}
		items = append(items, s)
	}
	return strings.Join(items, ", "), nil
}

func toValue(node *yaml.Node) Value {
	if node.Kind != yaml.ScalarNode {
		return Value{Kind: ValueComposite}
	}

	switch node.ShortTag() {
	case "!!null":
		return Value{Kind: ValueNull}
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err == nil {
			return Value{Kind: ValueBool, Text: strconv.FormatBool(b)}
		}
	case "!!int":
		// numbers keep the form they were written in
		var n int64
		if err := node.Decode(&n); err == nil {
			return Value{Kind: ValueInt, Text: node.Value}
		}
	case "!!float":
		var f float64
		if err := node.Decode(&f); err == nil {
			return Value{Kind: ValueFloat, Text: node.Value}
		}
	}
	return Value{Kind: ValueString, Text: node.Value}
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}
