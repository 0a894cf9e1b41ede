package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/agentdefs/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version information of agentdefs in JSON format.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		json, err := version.Get().JSON()
		if err != nil {
			return err
		}
		fmt.Println(json)
		return nil
	},
}
