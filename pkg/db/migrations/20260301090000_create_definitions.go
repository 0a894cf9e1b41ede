package migrations

import (
	"database/sql"

	"github.com/jingkaihe/agentdefs/pkg/db"
	"github.com/pkg/errors"
)

// Migration20260301090000CreateDefinitions creates the sources and definitions tables.
func Migration20260301090000CreateDefinitions() db.Migration {
	return db.Migration{
		Version:     20260301090000,
		Description: "Create sources and definitions tables",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS sources (
					label TEXT PRIMARY KEY,
					last_synced_at TEXT
				)
			`); err != nil {
				return errors.Wrap(err, "failed to create sources table")
			}

			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS definitions (
					id TEXT NOT NULL,
					source_label TEXT NOT NULL,
					name TEXT NOT NULL,
					description TEXT,
					kind TEXT NOT NULL,
					category TEXT,
					body TEXT NOT NULL,
					tools_json TEXT NOT NULL DEFAULT '[]',
					model TEXT,
					metadata_json TEXT NOT NULL DEFAULT '{}',
					raw TEXT NOT NULL,
					PRIMARY KEY (source_label, id),
					FOREIGN KEY (source_label) REFERENCES sources(label)
				)
			`); err != nil {
				return errors.Wrap(err, "failed to create definitions table")
			}

			return nil
		},
		Down: func(tx *sql.Tx) error {
			if _, err := tx.Exec("DROP TABLE IF EXISTS definitions"); err != nil {
				return errors.Wrap(err, "failed to drop definitions table")
			}
			if _, err := tx.Exec("DROP TABLE IF EXISTS sources"); err != nil {
				return errors.Wrap(err, "failed to drop sources table")
			}
			return nil
		},
	}
}
