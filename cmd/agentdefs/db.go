package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/agentdefs/pkg/db"
	"github.com/jingkaihe/agentdefs/pkg/db/migrations"
	"github.com/jingkaihe/agentdefs/pkg/presenter"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management commands",
	Long:  `Commands for managing the definitions cache database (migrations, status, etc.)`,
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database migration status",
	Long:  `Shows the current database migration status, including applied and pending migrations.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		dbPath := appConfig.DatabasePath

		applied, err := db.GetMigrationStatus(ctx, dbPath)
		if err != nil {
			return errors.Wrap(err, "failed to get migration status")
		}

		appliedMap := make(map[int64]bool)
		for _, v := range applied {
			appliedMap[v] = true
		}

		allMigrations := migrations.All()

		fmt.Println("Database Migration Status")
		fmt.Println("=========================")
		fmt.Printf("Database: %s\n\n", dbPath)

		appliedCount := 0
		for _, m := range allMigrations {
			status := "[ ]"
			if appliedMap[m.Version] {
				status = "[✓]"
				appliedCount++
			}
			fmt.Printf("%s %d - %s\n", status, m.Version, m.Description)
		}

		fmt.Printf("\nApplied: %d/%d migrations\n", appliedCount, len(allMigrations))

		settings, err := db.ReadSettings(ctx, dbPath)
		if err != nil {
			return errors.Wrap(err, "failed to read database settings")
		}
		fmt.Printf("Journal mode: %s, synchronous: %s, foreign keys: %s\n",
			settings.JournalMode, settings.Synchronous, settings.ForeignKeys)
		if err := settings.Check(); err != nil {
			presenter.Warning(fmt.Sprintf("Database is misconfigured: %v", err))
		}

		return nil
	},
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long:  `Applies every pending migration to the definitions cache database. Opening a store does this too.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		dbPath := appConfig.DatabasePath

		before, err := db.GetMigrationStatus(ctx, dbPath)
		if err != nil {
			return errors.Wrap(err, "failed to get migration status")
		}

		if err := db.RunMigrations(ctx, dbPath, migrations.All()); err != nil {
			return errors.Wrap(err, "failed to apply migrations")
		}

		after, err := db.GetMigrationStatus(ctx, dbPath)
		if err != nil {
			return errors.Wrap(err, "failed to get migration status")
		}

		if len(after) == len(before) {
			presenter.Info("Database is up to date")
			return nil
		}
		presenter.Success(fmt.Sprintf("Applied %d migration(s)", len(after)-len(before)))
		return nil
	},
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Rollback the last database migration",
	Long:  `Rolls back the most recently applied database migration. Cached definitions may be lost.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		dbPath := appConfig.DatabasePath

		applied, err := db.GetMigrationStatus(ctx, dbPath)
		if err != nil {
			return errors.Wrap(err, "failed to get migration status")
		}

		if len(applied) == 0 {
			presenter.Warning("No migrations to rollback")
			return nil
		}

		lastVersion := applied[len(applied)-1]

		var description string
		for _, m := range migrations.All() {
			if m.Version == lastVersion {
				description = m.Description
				break
			}
		}

		presenter.Info(fmt.Sprintf("Rolling back migration %d: %s", lastVersion, description))

		if err := db.RollbackMigration(ctx, dbPath, migrations.All()); err != nil {
			return errors.Wrap(err, "failed to rollback migration")
		}

		presenter.Success(fmt.Sprintf("Successfully rolled back migration %d", lastVersion))

		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbRollbackCmd)
}
