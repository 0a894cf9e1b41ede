package main

import (
	"github.com/spf13/cobra"

	"github.com/jingkaihe/agentdefs/pkg/logger"
	"github.com/jingkaihe/agentdefs/pkg/mcp"
	"github.com/jingkaihe/agentdefs/pkg/presenter"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve definitions to MCP clients over stdio",
	Long: `Runs a Model Context Protocol server on stdin/stdout with the tools
list_definitions, search_definitions and get_definition.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		// stdout carries the protocol
		presenter.SetQuiet(true)

		c, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		feedback, err := c.EnsureSynced(ctx)
		log := logger.G(ctx)
		for _, fb := range feedback {
			if fb.Level == types.FeedbackInfo {
				log.Info(fb.Message)
			} else {
				log.Warn(fb.Message)
			}
		}
		if err != nil {
			return err
		}

		log.Info("serving MCP on stdio")
		return mcp.NewServer(c).ServeStdio()
	},
}
