package migrations

import (
	"database/sql"

	"github.com/jingkaihe/agentdefs/pkg/db"
	"github.com/pkg/errors"
)

// Migration20260301090001AddDefinitionIndexes adds lookup indexes on kind and name.
func Migration20260301090001AddDefinitionIndexes() db.Migration {
	return db.Migration{
		Version:     20260301090001,
		Description: "Add kind and name indexes for definitions",
		Up: func(tx *sql.Tx) error {
			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_definitions_kind ON definitions(kind)",
				"CREATE INDEX IF NOT EXISTS idx_definitions_name ON definitions(name)",
			}

			for _, idx := range indexes {
				if _, err := tx.Exec(idx); err != nil {
					return errors.Wrap(err, "failed to create index")
				}
			}
			return nil
		},
		Down: func(tx *sql.Tx) error {
			dropIndexes := []string{
				"DROP INDEX IF EXISTS idx_definitions_name",
				"DROP INDEX IF EXISTS idx_definitions_kind",
			}

			for _, drop := range dropIndexes {
				if _, err := tx.Exec(drop); err != nil {
					return errors.Wrap(err, "failed to drop index")
				}
			}
			return nil
		},
	}
}
