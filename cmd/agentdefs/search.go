package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/agentdefs/pkg/presenter"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search cached definitions",
	Long:  `Case-insensitive substring search over definition names, descriptions and bodies.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		summaries, err := source.Search(ctx, args[0])
		if err != nil {
			return err
		}
		summaries = filter.Apply(summaries)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, summaries)
		}
		if len(summaries) == 0 {
			presenter.Info(fmt.Sprintf("No definitions match %q", args[0]))
			return nil
		}
		return printSummaries(os.Stdout, summaries)
	},
}

func init() {
	searchCmd.Flags().StringP("source", "s", "", "Source label to search (default all)")
	searchCmd.Flags().Bool("json", false, "Output JSON")
	filterFlags(searchCmd)
}
