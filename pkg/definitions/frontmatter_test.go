package definitions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontmatter(t *testing.T) {
	t.Run("with front matter", func(t *testing.T) {
		content := "---\nname: reviewer\ndescription: Reviews code\ntools: Read, Grep\nmodel: sonnet\n---\n# Body\n"
		parsed, err := ParseFrontmatter(content)
		require.NoError(t, err)
		require.NotNil(t, parsed.Frontmatter)

		assert.Equal(t, "reviewer", parsed.Frontmatter.Name)
		assert.Equal(t, "Reviews code", parsed.Frontmatter.Description)
		assert.Equal(t, "sonnet", parsed.Frontmatter.Model)
		assert.Equal(t, []string{"Read", "Grep"}, parsed.Frontmatter.ToolList())
		assert.Equal(t, "# Body\n", parsed.Body)
	})

	t.Run("no front matter", func(t *testing.T) {
		content := "# Just markdown\n\nText.\n"
		parsed, err := ParseFrontmatter(content)
		require.NoError(t, err)
		assert.Nil(t, parsed.Frontmatter)
		assert.Equal(t, content, parsed.Body)
	})

	t.Run("missing closing delimiter", func(t *testing.T) {
		content := "---\nname: broken\nstill going"
		parsed, err := ParseFrontmatter(content)
		require.NoError(t, err)
		assert.Nil(t, parsed.Frontmatter)
		assert.Equal(t, content, parsed.Body)
	})

	t.Run("leading whitespace", func(t *testing.T) {
		parsed, err := ParseFrontmatter("\n  \n---\nname: spaced\n---\nbody")
		require.NoError(t, err)
		require.NotNil(t, parsed.Frontmatter)
		assert.Equal(t, "spaced", parsed.Frontmatter.Name)
		assert.Equal(t, "body", parsed.Body)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := ParseFrontmatter("---\nname: [unclosed\n---\nbody")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid YAML in frontmatter")
	})

	t.Run("duplicate key", func(t *testing.T) {
		_, err := ParseFrontmatter("---\nname: a\nname: b\n---\nbody")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid YAML in frontmatter")
		assert.Contains(t, err.Error(), `duplicate key "name"`)
	})

	t.Run("duplicate extra key", func(t *testing.T) {
		_, err := ParseFrontmatter("---\nname: a\ncolor: red\ncolor: blue\n---\nbody")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate key "color"`)
	})

	t.Run("non-mapping yaml", func(t *testing.T) {
		_, err := ParseFrontmatter("---\n- a\n- b\n---\nbody")
		require.Error(t, err)
	})

	t.Run("empty block", func(t *testing.T) {
		parsed, err := ParseFrontmatter("---\n---\nbody")
		require.NoError(t, err)
		require.NotNil(t, parsed.Frontmatter)
		assert.Empty(t, parsed.Frontmatter.Name)
		assert.Equal(t, "body", parsed.Body)
	})
}

func TestFrontmatterToolList(t *testing.T) {
	tests := []struct {
		name     string
		tools    string
		expected []string
	}{
		{"empty", "", []string{}},
		{"single", "Read", []string{"Read"}},
		{"trims and drops empties", " Read , ,Write,  ", []string{"Read", "Write"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm := &Frontmatter{Tools: tt.tools}
			assert.Equal(t, tt.expected, fm.ToolList())
		})
	}

	t.Run("yaml sequence", func(t *testing.T) {
		parsed, err := ParseFrontmatter("---\ntools:\n  - Read\n  - Bash\n---\n")
		require.NoError(t, err)
		assert.Equal(t, []string{"Read", "Bash"}, parsed.Frontmatter.ToolList())
	})
}

func TestFrontmatterMetadataIsLossy(t *testing.T) {
	content := `---
name: x
color: blue
version: 2
ratio: 1.5
whole: 1.0
big: 1e3
enabled: true
label: hello
nothing: null
list: [a, b]
nested:
  key: value
---
`
	parsed, err := ParseFrontmatter(content)
	require.NoError(t, err)

	metadata := parsed.Frontmatter.Metadata()
	assert.Equal(t, map[string]string{
		"color":   "blue",
		"version": "2",
		"ratio":   "1.5",
		"whole":   "1.0",
		"big":     "1e3",
		"enabled": "true",
		"label":   "hello",
	}, metadata)

	assert.Equal(t, ValueComposite, parsed.Frontmatter.Extras["list"].Kind)
	assert.Equal(t, ValueComposite, parsed.Frontmatter.Extras["nested"].Kind)
	assert.Equal(t, ValueNull, parsed.Frontmatter.Extras["nothing"].Kind)
	assert.Equal(t, ValueInt, parsed.Frontmatter.Extras["version"].Kind)
	assert.Equal(t, ValueFloat, parsed.Frontmatter.Extras["whole"].Kind)
	assert.Equal(t, ValueFloat, parsed.Frontmatter.Extras["big"].Kind)
}
