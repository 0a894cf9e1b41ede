package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/agentdefs/pkg/definitions"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one definition",
	Long: `Show a definition by ID. Skill bundles may be addressed by their directory or
by their SKILL.md path.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		label, _ := cmd.Flags().GetString("source")
		format, _ := cmd.Flags().GetString("format")

		c, source, err := openSyncedSource(ctx, label)
		if err != nil {
			return err
		}
		defer c.Close()

		def, err := source.Fetch(ctx, types.ID(args[0]))
		if err != nil {
			return err
		}

		return renderDefinition(os.Stdout, def, format)
	},
}

func init() {
	showCmd.Flags().StringP("source", "s", "", "Source label to read from (default all)")
	showCmd.Flags().StringP("format", "f", "text", "Output format (text, json, raw, html)")
}

func renderDefinition(w io.Writer, def *types.Definition, format string) error {
	switch format {
	case "text", "":
		return printDefinition(w, def)
	case "json":
		return printJSON(w, def)
	case "raw":
		_, err := io.WriteString(w, def.Raw)
		return err
	case "html":
		html, err := definitions.RenderHTML(def.Raw)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, html)
		return err
	default:
		return errors.Errorf("unsupported format %q", format)
	}
}

func printDefinition(w io.Writer, def *types.Definition) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", def.Name)
	fmt.Fprintf(tw, "ID:\t%s\n", def.ID)
	fmt.Fprintf(tw, "Kind:\t%s\n", def.Kind.DisplayLabel())
	fmt.Fprintf(tw, "Category:\t%s\n", orDash(def.Category))
	fmt.Fprintf(tw, "Source:\t%s\n", def.SourceLabel)
	if def.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", def.Description)
	}
	if len(def.Tools) > 0 {
		fmt.Fprintf(tw, "Tools:\t%s\n", strings.Join(def.Tools, ", "))
	}
	if def.Model != "" {
		fmt.Fprintf(tw, "Model:\t%s\n", def.Model)
	}

	keys := make([]string, 0, len(def.Metadata))
	for k := range def.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s:\t%s\n", k, def.Metadata[k])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if body := strings.TrimSpace(def.Body); body != "" {
		fmt.Fprintf(w, "\n%s\n", body)
	}
	return nil
}
