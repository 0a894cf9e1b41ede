package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/agentdefs/pkg/catalog"
	"github.com/jingkaihe/agentdefs/pkg/definitions"
	"github.com/jingkaihe/agentdefs/pkg/presenter"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

// descriptionWidth truncates descriptions in tables
const descriptionWidth = 60

func openCatalog(ctx context.Context) (*catalog.Catalog, error) {
	return catalog.New(ctx, appConfig)
}

// openSyncedSource opens the catalog, makes sure each source has data, and
// resolves label to a single source or the composite of all usable ones.
func openSyncedSource(ctx context.Context, label string) (*catalog.Catalog, definitions.Source, error) {
	c, err := openCatalog(ctx)
	if err != nil {
		return nil, nil, err
	}

	feedback, err := c.EnsureSynced(ctx)
	showFeedback(feedback)
	if err != nil {
		c.Close()
		return nil, nil, err
	}

	source, err := c.Source(label)
	if err != nil {
		c.Close()
		return nil, nil, err
	}
	return c, source, nil
}

func showFeedback(feedback []types.Feedback) {
	for _, fb := range feedback {
		switch fb.Level {
		case types.FeedbackWarning:
			presenter.Warning(fb.Message)
		case types.FeedbackError:
			presenter.Error(fmt.Errorf("%s", fb.Message), "")
		default:
			presenter.Info(fb.Message)
		}
	}
}

// filterFlags registers --kind, --category and --name
func filterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("kind", "k", nil, "Only show these kinds (agent, command, hook, mcp, setting, skill)")
	cmd.Flags().StringP("category", "c", "", "Only show this category")
	cmd.Flags().StringP("name", "n", "", "Only show names matching this glob, e.g. 'code-*'")
}

func filterFromFlags(cmd *cobra.Command) (*definitions.CompiledFilter, error) {
	filter := definitions.Filter{}
	kinds, _ := cmd.Flags().GetStringSlice("kind")
	for _, k := range kinds {
		filter.Kinds = append(filter.Kinds, types.ParseKind(k))
	}
	filter.Category, _ = cmd.Flags().GetString("category")
	filter.NamePattern, _ = cmd.Flags().GetString("name")
	return filter.Compile()
}

func printSummaries(w io.Writer, summaries []types.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tCATEGORY\tSOURCE\tDESCRIPTION")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Kind, orDash(s.Category), s.SourceLabel, truncate(s.Description, descriptionWidth))
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to at most width runes, collapsing newlines
func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
