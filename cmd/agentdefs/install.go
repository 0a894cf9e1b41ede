package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/agentdefs/pkg/definitions"
	"github.com/jingkaihe/agentdefs/pkg/presenter"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

var installCmd = &cobra.Command{
	Use:   "install <id>",
	Short: "Install a definition into a project's .claude directory",
	Long: `Writes the original file of a definition under <target>/.claude/. Existing files
with different content are only replaced with --force or after confirmation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		label, _ := cmd.Flags().GetString("source")
		target, _ := cmd.Flags().GetString("target")
		force, _ := cmd.Flags().GetBool("force")
		yes, _ := cmd.Flags().GetBool("yes")

		c, source, err := openSyncedSource(ctx, label)
		if err != nil {
			return err
		}
		defer c.Close()

		def, err := source.Fetch(ctx, types.ID(args[0]))
		if err != nil {
			return err
		}

		result, err := definitions.Install(target, def, force)
		var conflict *definitions.ConflictError
		if errors.As(err, &conflict) {
			presenter.Warning(fmt.Sprintf("%s already exists with different content", conflict.Path))
			presenter.Info(conflict.Diff)
			if !yes && !confirm("Overwrite it?") {
				return errors.New("install cancelled")
			}
			result, err = definitions.Install(target, def, true)
		}
		if err != nil {
			return err
		}

		switch result.Outcome {
		case definitions.InstallUnchanged:
			presenter.Info(fmt.Sprintf("%s is already up to date", result.Path))
		default:
			presenter.Success(fmt.Sprintf("Installed %s (%s)", result.Path, result.Outcome))
		}
		return nil
	},
}

func confirm(question string) bool {
	answer := strings.ToLower(presenter.Prompt(question, "y", "N"))
	return answer == "y" || answer == "yes"
}

func init() {
	installCmd.Flags().StringP("source", "s", "", "Source label to install from (default all)")
	installCmd.Flags().StringP("target", "t", ".", "Project directory to install into")
	installCmd.Flags().Bool("force", false, "Overwrite an existing file without asking")
	installCmd.Flags().BoolP("yes", "y", false, "Answer yes to the overwrite prompt")
}
