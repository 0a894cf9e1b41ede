package definitions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

func TestBuildMarkdownDefinition(t *testing.T) {
	t.Run("front matter fields", func(t *testing.T) {
		content := "---\nname: Code Reviewer\ndescription: Reviews PRs\ntools: Read, Grep, Bash\nmodel: opus\ncolor: red\npriority: 3\n---\nYou review code.\n"
		def, err := BuildMarkdownDefinition(NewOrigin("agents/dev/code-reviewer.md", "test"), content)
		require.NoError(t, err)

		assert.Equal(t, types.ID("agents/dev/code-reviewer.md"), def.ID)
		assert.Equal(t, "Code Reviewer", def.Name)
		assert.Equal(t, "Reviews PRs", def.Description)
		assert.Equal(t, types.KindAgent, def.Kind)
		assert.Equal(t, "dev", def.Category)
		assert.Equal(t, "test", def.SourceLabel)
		assert.Equal(t, []string{"Read", "Grep", "Bash"}, def.Tools)
		assert.Equal(t, "opus", def.Model)
		assert.Equal(t, map[string]string{"color": "red", "priority": "3"}, def.Metadata)
		assert.Equal(t, "You review code.\n", def.Body)
		assert.Equal(t, content, def.Raw)
	})

	t.Run("name falls back to path", func(t *testing.T) {
		def, err := BuildMarkdownDefinition(NewOrigin("hooks/pre-commit.md", "test"), "---\ndescription: Runs checks\n---\nbody")
		require.NoError(t, err)
		assert.Equal(t, "pre-commit", def.Name)
		assert.Equal(t, "Runs checks", def.Description)
		assert.Empty(t, def.Category)
	})

	t.Run("no front matter", func(t *testing.T) {
		content := "# Plain\n"
		def, err := BuildMarkdownDefinition(NewOrigin("commands/git/commit.md", "test"), content)
		require.NoError(t, err)
		assert.Equal(t, "commit", def.Name)
		assert.Empty(t, def.Description)
		assert.Empty(t, def.Tools)
		assert.Empty(t, def.Metadata)
		assert.Equal(t, content, def.Body)
		assert.Equal(t, content, def.Raw)
	})

	t.Run("skill entry point", func(t *testing.T) {
		def, err := BuildMarkdownDefinition(NewOrigin("skills/rust/analyzer/SKILL.md", "test"), "---\ndescription: Analyze\n---\nSteps")
		require.NoError(t, err)
		assert.Equal(t, types.ID("skills/rust/analyzer"), def.ID)
		assert.Equal(t, "analyzer", def.Name)
		assert.Equal(t, types.KindSkill, def.Kind)
		assert.Equal(t, "rust", def.Category)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := BuildMarkdownDefinition(NewOrigin("agents/dev/bad.md", "test"), "---\nname: [oops\n---\n")
		require.Error(t, err)
		assert.True(t, types.IsParseError(err))
		assert.Contains(t, err.Error(), "agents/dev/bad.md")
	})
}

func TestBuildJSONDefinition(t *testing.T) {
	t.Run("fields", func(t *testing.T) {
		content := `{"name":"Postgres","description":"DB access","tools":["query"],"model":"haiku"}`
		def, err := BuildJSONDefinition(NewOrigin("mcps/database/postgres.json", "test"), content)
		require.NoError(t, err)

		assert.Equal(t, "Postgres", def.Name)
		assert.Equal(t, "DB access", def.Description)
		assert.Equal(t, []string{"query"}, def.Tools)
		assert.Equal(t, "haiku", def.Model)
		assert.Equal(t, types.KindMcp, def.Kind)
		assert.Equal(t, "database", def.Category)
		assert.Equal(t, content, def.Body)
		assert.Equal(t, content, def.Raw)
	})

	t.Run("kind override", func(t *testing.T) {
		def, err := BuildJSONDefinition(NewOrigin("settings/statusline.json", "test"), `{"kind":"hooks"}`)
		require.NoError(t, err)
		assert.Equal(t, types.KindHook, def.Kind)
		assert.Equal(t, "statusline", def.Name)
		assert.Empty(t, def.Tools)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := BuildJSONDefinition(NewOrigin("settings/broken.json", "test"), `{not json`)
		require.Error(t, err)
		assert.True(t, types.IsParseError(err))
	})

	t.Run("not an object", func(t *testing.T) {
		_, err := BuildJSONDefinition(NewOrigin("settings/list.json", "test"), `[1, 2]`)
		require.Error(t, err)
		assert.True(t, types.IsParseError(err))
	})
}

func TestBuildDefinitionDispatchesOnExtension(t *testing.T) {
	def, err := BuildDefinition(NewOrigin("settings/a.json", "test"), `{"name":"json"}`)
	require.NoError(t, err)
	assert.Equal(t, "json", def.Name)

	def, err = BuildDefinition(NewOrigin("agents/a.md", "test"), "---\nname: md\n---\n")
	require.NoError(t, err)
	assert.Equal(t, "md", def.Name)
}
