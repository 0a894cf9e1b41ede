package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/agentdefs/pkg/presenter"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache freshness and definition counts per source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		c, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		presenter.Section("Sources")
		presenter.Info(fmt.Sprintf("Database: %s\n", appConfig.DatabasePath))

		for _, entry := range c.Entries() {
			status, err := entry.Store.SyncStatus(ctx)
			if err != nil {
				presenter.Error(err, fmt.Sprintf("failed to read status of [%s]", entry.Label()))
				continue
			}
			presenter.SyncStatus(entry.Label(), status)

			counts, err := entry.Store.Stats(ctx)
			if err != nil {
				presenter.Error(err, fmt.Sprintf("failed to count definitions of [%s]", entry.Label()))
				continue
			}
			if len(counts) == 0 {
				continue
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, kc := range counts {
				fmt.Fprintf(tw, "    %s\t%d\n", kc.Kind.DisplayLabel(), kc.Count)
			}
			tw.Flush()
		}
		return nil
	},
}
