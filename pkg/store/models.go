package store

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"

	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

// JSONField is a generic type for handling JSON marshaling/unmarshaling in database
type JSONField[T any] struct {
	Data T
}

// Scan implements the sql.Scanner interface for reading from database
func (j *JSONField[T]) Scan(value any) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.Errorf("cannot scan %T into JSONField", value)
		}
		bytes = []byte(str)
	}

	return json.Unmarshal(bytes, &j.Data)
}

// Value implements the driver.Valuer interface for writing to database.
// The compact JSON is stored as TEXT.
func (j JSONField[T]) Value() (driver.Value, error) {
	data, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// dbSummary represents the listing columns of the definitions table
type dbSummary struct {
	ID          string  `db:"id"`
	SourceLabel string  `db:"source_label"`
	Name        string  `db:"name"`
	Description *string `db:"description"` // NULL in database
	Kind        string  `db:"kind"`
	Category    *string `db:"category"` // NULL in database
}

// dbDefinition represents the definitions table structure
type dbDefinition struct {
	dbSummary
	Body     string                       `db:"body"`
	Tools    JSONField[[]string]          `db:"tools_json"`
	Model    *string                      `db:"model"` // NULL in database
	Metadata JSONField[map[string]string] `db:"metadata_json"`
	Raw      string                       `db:"raw"`
}

// dbKindCount is a row of the per-kind statistics query
type dbKindCount struct {
	Kind  string `db:"kind"`
	Count int    `db:"count"`
}

// ToSummary converts database row to domain model
func (s *dbSummary) ToSummary() types.Summary {
	return types.Summary{
		ID:          types.ID(s.ID),
		Name:        s.Name,
		Description: fromNullable(s.Description),
		Kind:        types.ParseKind(s.Kind),
		Category:    fromNullable(s.Category),
		SourceLabel: s.SourceLabel,
	}
}

// ToDefinition converts database record to domain model
func (d *dbDefinition) ToDefinition() *types.Definition {
	def := &types.Definition{
		ID:          types.ID(d.ID),
		Name:        d.Name,
		Description: fromNullable(d.Description),
		Kind:        types.ParseKind(d.Kind),
		Category:    fromNullable(d.Category),
		SourceLabel: d.SourceLabel,
		Body:        d.Body,
		Tools:       d.Tools.Data,
		Model:       fromNullable(d.Model),
		Metadata:    d.Metadata.Data,
		Raw:         d.Raw,
	}
	if def.Tools == nil {
		def.Tools = []string{}
	}
	if def.Metadata == nil {
		def.Metadata = map[string]string{}
	}
	return def
}

// fromDefinition converts domain model to database record under the given label
func fromDefinition(label string, def *types.Definition) dbDefinition {
	tools := def.Tools
	if tools == nil {
		tools = []string{}
	}
	metadata := def.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	return dbDefinition{
		dbSummary: dbSummary{
			ID:          string(def.ID),
			SourceLabel: label,
			Name:        def.Name,
			Description: toNullable(def.Description),
			Kind:        def.Kind.String(),
			Category:    toNullable(def.Category),
		},
		Body:     def.Body,
		Tools:    JSONField[[]string]{Data: tools},
		Model:    toNullable(def.Model),
		Metadata: JSONField[map[string]string]{Data: metadata},
		Raw:      def.Raw,
	}
}

func toNullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fromNullable(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
