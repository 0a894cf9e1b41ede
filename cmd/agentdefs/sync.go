package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/agentdefs/pkg/catalog"
	"github.com/jingkaihe/agentdefs/pkg/logger"
	"github.com/jingkaihe/agentdefs/pkg/presenter"
)

var syncCmd = &cobra.Command{
	Use:   "sync [source...]",
	Short: "Refresh the local cache from configured sources",
	Long: `Fetches every definition from the given sources, or from all enabled sources
when none are named, and replaces their cached copies. A failing source does not
stop the others.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		var results []catalog.SyncResult
		if len(args) == 0 {
			var syncErr error
			results, syncErr = c.SyncAll(ctx)
			if syncErr != nil {
				logger.G(ctx).WithError(syncErr).Debug("some sources failed")
			}
		} else {
			for _, label := range args {
				report, err := c.Sync(ctx, label)
				results = append(results, catalog.SyncResult{Label: label, Report: report, Err: err})
			}
		}

		return reportSyncResults(results)
	},
}

func reportSyncResults(results []catalog.SyncResult) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			presenter.Error(r.Err, fmt.Sprintf("sync failed for [%s]", r.Label))
			failed++
			continue
		}
		presenter.SyncReport(r.Label, r.Report)
	}

	switch {
	case len(results) == 0:
		presenter.Warning("No sources are enabled")
	case failed == len(results):
		return errors.New("all sources failed to sync")
	case failed > 0:
		presenter.Warning(fmt.Sprintf("%d of %d sources failed to sync", failed, len(results)))
	default:
		presenter.Success(fmt.Sprintf("Synced %d sources", len(results)))
	}
	return nil
}
