// Package definitions classifies, parses and serves agent definitions. It holds
// the pure path classifier, the markdown/JSON document parser, the Source and
// SyncProvider contracts, the composite source and the install writer.
package definitions

import (
	"strings"

	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

const (
	skillsPrefix   = "skills/"
	skillEntryFile = "SKILL.md"
	skillEntryTail = "/" + skillEntryFile
	unknownKind    = "unknown"
)

// IsDefinitionFile reports whether a relative path is a markdown or JSON file
// outside any hidden directory.
func IsDefinitionFile(relativePath string) bool {
	for _, segment := range strings.Split(relativePath, "/") {
		if strings.HasPrefix(segment, ".") {
			return false
		}
	}
	return strings.HasSuffix(relativePath, ".md") || strings.HasSuffix(relativePath, ".json")
}

// IsSkillEntryPoint reports whether the path is a skill bundle's SKILL.md
func IsSkillEntryPoint(relativePath string) bool {
	return strings.HasPrefix(relativePath, skillsPrefix) && strings.HasSuffix(relativePath, skillEntryTail)
}

// IsSkillReference reports whether the path is an auxiliary file inside a
// skill bundle. References are excluded from listings.
func IsSkillReference(relativePath string) bool {
	return strings.HasPrefix(relativePath, skillsPrefix) && !strings.HasSuffix(relativePath, skillEntryTail)
}

// IsSkillDirectoryID reports whether an ID names a skill directory rather than a file
func IsSkillDirectoryID(id string) bool {
	return strings.HasPrefix(id, skillsPrefix) &&
		!strings.HasSuffix(id, ".md") &&
		!strings.HasSuffix(id, ".json")
}

// SkillEntryPointPath returns the SKILL.md path behind a skill directory ID.
// Any other ID is returned unchanged.
func SkillEntryPointPath(id string) string {
	if !IsSkillDirectoryID(id) {
		return id
	}
	return strings.TrimSuffix(id, "/") + skillEntryTail
}

// SkillDirectoryID returns the bundle directory for a SKILL.md path
func SkillDirectoryID(relativePath string) string {
	return strings.TrimSuffix(relativePath, skillEntryTail)
}

// ParseSkillPath extracts the name and category from skills/<category>/<name>/SKILL.md.
// Other shapes fall back to the last directory segment as name with no category.
func ParseSkillPath(relativePath string) (string, types.Kind, string) {
	parts := strings.Split(relativePath, "/")
	if len(parts) == 4 {
		return parts[2], types.KindSkill, parts[1]
	}

	dir := SkillDirectoryID(relativePath)
	name := dir
	if idx := strings.LastIndex(dir, "/"); idx >= 0 {
		name = dir[idx+1:]
	}
	return name, types.KindSkill, ""
}

// ParseRelativePath extracts name, kind and category from a path such as
//
//	agents/<category>/<name>.md  -> kind agent, category
//	hooks/<name>.md              -> kind hook, no category
//	<name>.md                    -> kind "unknown", no category
//
// Segments past the third are ignored for the category.
func ParseRelativePath(relativePath string) (string, types.Kind, string) {
	parts := strings.Split(relativePath, "/")
	name := fileStem(parts[len(parts)-1])

	switch len(parts) {
	case 1:
		return name, types.OtherKind(unknownKind), ""
	case 2:
		return name, types.ParseKind(parts[0]), ""
	default:
		return name, types.ParseKind(parts[0]), parts[1]
	}
}

// Classify derives the ID and path-based classification of a raw file. Skill
// entry points are keyed by their bundle directory.
func Classify(relativePath string) (types.ID, string, types.Kind, string) {
	if IsSkillEntryPoint(relativePath) {
		name, kind, category := ParseSkillPath(relativePath)
		return types.ID(SkillDirectoryID(relativePath)), name, kind, category
	}
	name, kind, category := ParseRelativePath(relativePath)
	return types.ID(relativePath), name, kind, category
}

func fileStem(fileName string) string {
	if stem, ok := strings.CutSuffix(fileName, ".md"); ok {
		return stem
	}
	if stem, ok := strings.CutSuffix(fileName, ".json"); ok {
		return stem
	}
	return fileName
}
