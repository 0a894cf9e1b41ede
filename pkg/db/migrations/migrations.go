// Package migrations contains all database migrations for the definitions cache.
// Migrations use Rails-style timestamp versioning (YYYYMMDDHHmmss).
package migrations

import (
	"github.com/jingkaihe/agentdefs/pkg/db"
)

// All returns all registered migrations in the correct order.
// New migrations should be added to this list.
func All() []db.Migration {
	return []db.Migration{
		Migration20260301090000CreateDefinitions(),
		Migration20260301090001AddDefinitionIndexes(),
	}
}
