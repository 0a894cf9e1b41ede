// Package definitions contains the canonical data model for agent definitions:
// identifiers, kinds, summaries, full records, raw sync files and the
// error types shared by the classifier, parser, store and sources.
package definitions

import (
	"strings"
)

// ID is a source-opaque identifier for a definition. Sources that mirror a
// repository use the file path, or the directory path for skill bundles.
type ID string

// String returns the identifier as a plain string
func (id ID) String() string { return string(id) }

// Kind classifies what a definition represents. The six known kinds are
// exposed as package variables; anything else is carried by OtherKind.
type Kind struct {
	name  string
	known bool
}

// Known definition kinds
var (
	KindAgent   = Kind{name: "agent", known: true}
	KindCommand = Kind{name: "command", known: true}
	KindHook    = Kind{name: "hook", known: true}
	KindMcp     = Kind{name: "mcp", known: true}
	KindSetting = Kind{name: "setting", known: true}
	KindSkill   = Kind{name: "skill", known: true}
)

// OtherKind returns the kind used for unrecognized names
func OtherKind(name string) Kind {
	return Kind{name: name}
}

// ParseKind maps a singular or plural kind name, case-insensitively, to a Kind.
// Unrecognized names become OtherKind of the lowercased input.
func ParseKind(s string) Kind {
	lower := strings.ToLower(s)
	switch lower {
	case "agent", "agents":
		return KindAgent
	case "command", "commands":
		return KindCommand
	case "hook", "hooks":
		return KindHook
	case "mcp", "mcps":
		return KindMcp
	case "setting", "settings":
		return KindSetting
	case "skill", "skills":
		return KindSkill
	default:
		return OtherKind(lower)
	}
}

// KnownKinds returns all known kinds in display order
func KnownKinds() []Kind {
	return []Kind{KindAgent, KindCommand, KindHook, KindMcp, KindSetting, KindSkill}
}

// IsKnown reports whether the kind is one of the six known kinds
func (k Kind) IsKnown() bool { return k.known }

// String returns the canonical storage name of the kind
func (k Kind) String() string { return k.name }

// DisplayLabel returns a human-readable plural label
func (k Kind) DisplayLabel() string {
	switch k {
	case KindAgent:
		return "Agents"
	case KindCommand:
		return "Commands"
	case KindHook:
		return "Hooks"
	case KindMcp:
		return "MCP Servers"
	case KindSetting:
		return "Settings"
	case KindSkill:
		return "Skills"
	default:
		return k.name
	}
}

// Dir returns the directory name used when installing definitions of this kind
func (k Kind) Dir() string {
	switch k {
	case KindAgent:
		return "agents"
	case KindCommand:
		return "commands"
	case KindHook:
		return "hooks"
	case KindMcp:
		return "mcp"
	case KindSetting:
		return "settings"
	case KindSkill:
		return "skills"
	default:
		return k.name
	}
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	*k = ParseKind(string(text))
	return nil
}

// Summary is the lightweight listing form of a definition. It carries no body.
// Empty Description and Category mean the value is absent.
type Summary struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Kind        Kind   `json:"kind"`
	Category    string `json:"category,omitempty"`
	SourceLabel string `json:"source"`
}

// Definition is the full canonical record
type Definition struct {
	ID          ID                `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Kind        Kind              `json:"kind"`
	Category    string            `json:"category,omitempty"`
	SourceLabel string            `json:"source"`
	Body        string            `json:"body"`
	Tools       []string          `json:"tools"`
	Model       string            `json:"model,omitempty"`
	Metadata    map[string]string `json:"metadata"`
	// Raw is the original file content, kept verbatim for reinstalling.
	Raw string `json:"raw"`
}

// Summary projects the definition onto its listing form
func (d *Definition) Summary() Summary {
	return Summary{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Kind:        d.Kind,
		Category:    d.Category,
		SourceLabel: d.SourceLabel,
	}
}

// RawDefinitionFile is a file handed to the store by a sync provider. The path
// is already relative to the definition root.
type RawDefinitionFile struct {
	RelativePath string
	Content      string
}
