package definitions

import "github.com/invopop/jsonschema"

// JSONSchema describes the JSON definition file format
func JSONSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&jsonDefinition{})
	schema.Title = "Agent definition"
	schema.Description = "A JSON agent, command, hook, MCP server, setting or skill definition"
	return schema
}
