package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/agentdefs/pkg/definitions"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of .json definition files",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return printJSON(os.Stdout, definitions.JSONSchema())
	},
}
