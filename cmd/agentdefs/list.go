package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/agentdefs/pkg/presenter"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		label, _ := cmd.Flags().GetString("source")
		c, source, err := openSyncedSource(ctx, label)
		if err != nil {
			return err
		}
		defer c.Close()

		summaries, err := source.List(ctx)
		if err != nil {
			return err
		}
		summaries = filter.Apply(summaries)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, summaries)
		}
		if len(summaries) == 0 {
			presenter.Info("No definitions found")
			return nil
		}
		return printSummaries(os.Stdout, summaries)
	},
}

func init() {
	listCmd.Flags().StringP("source", "s", "", "Source label to list (default all)")
	listCmd.Flags().Bool("json", false, "Output JSON")
	filterFlags(listCmd)
}
