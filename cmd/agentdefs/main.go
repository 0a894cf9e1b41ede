package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/agentdefs/pkg/config"
	"github.com/jingkaihe/agentdefs/pkg/logger"
	"github.com/jingkaihe/agentdefs/pkg/presenter"
)

var (
	configFile string
	appConfig  *config.Config
	shutdownFn func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "agentdefs",
	Short: "Browse, search and install agent definitions",
	Long: `agentdefs mirrors collections of agent, command, hook, MCP, setting and skill
definitions from GitHub repositories, gists and local directories into a local
SQLite cache, and lets you list, search, show and install them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.InitViper(viper.GetViper(), configFile); err != nil {
			return err
		}

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		appConfig = cfg

		if err := logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
			return err
		}

		shutdown, err := initTracing(cmd.Context(), cfg)
		if err != nil {
			logger.G(cmd.Context()).WithError(err).Warn("failed to initialise tracing")
			return nil
		}
		shutdownFn = shutdown
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if shutdownFn != nil {
			if err := shutdownFn(cmd.Context()); err != nil {
				logger.G(cmd.Context()).WithError(err).Warn("failed to flush traces")
			}
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default $HOME/.agentdefs/config.yaml or ./config.yaml)")
	flags.String("log-level", "info", "Log level (panic, fatal, error, warn, info, debug, trace)")
	flags.String("log-format", "fmt", "Log format (fmt, json)")
	flags.String("database", "", "Path to the definitions cache database")

	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_format", flags.Lookup("log-format"))
	viper.BindPFlag("database_path", flags.Lookup("database"))

	rootCmd.AddCommand(withTracing(syncCmd))
	rootCmd.AddCommand(withTracing(listCmd))
	rootCmd.AddCommand(withTracing(searchCmd))
	rootCmd.AddCommand(withTracing(showCmd))
	rootCmd.AddCommand(withTracing(installCmd))
	rootCmd.AddCommand(withTracing(statusCmd))
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		presenter.Error(err, "")
		fmt.Fprintln(os.Stderr, "Run 'agentdefs --help' for usage.")
		os.Exit(1)
	}
}
