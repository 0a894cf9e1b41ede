package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/agentdefs/pkg/logger"
	"github.com/jingkaihe/agentdefs/pkg/presenter"
	"github.com/jingkaihe/agentdefs/pkg/server"
)

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	Host string
	Port int
}

// NewServeConfig creates a new ServeConfig with default values
func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Host: "localhost",
		Port: 8080,
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve cached definitions over a JSON API",
	Long: `Start a local HTTP server exposing the definitions cache:

  GET /api/sources
  GET /api/definitions?source=&kind=&category=&name=&q=
  GET /api/definitions/{id}?source=&format=json|raw|html
  GET /api/schema

The server will be available at http://localhost:8080 by default.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServeCommand(cmd.Context(), getServeConfigFromFlags(cmd))
	},
}

func init() {
	defaults := NewServeConfig()
	serveCmd.Flags().String("host", defaults.Host, "Host to bind the server to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to bind the server to")
}

// getServeConfigFromFlags extracts serve configuration from command flags
func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()

	if host, err := cmd.Flags().GetString("host"); err == nil {
		config.Host = host
	}
	if port, err := cmd.Flags().GetInt("port"); err == nil {
		config.Port = port
	}

	return config
}

// validateServeConfig validates the serve configuration
func validateServeConfig(config *ServeConfig) error {
	if config.Host == "" {
		return errors.New("host cannot be empty")
	}

	if config.Host != "localhost" && config.Host != "0.0.0.0" {
		if ip := net.ParseIP(config.Host); ip == nil {
			if strings.Contains(config.Host, " ") || strings.Contains(config.Host, ":") {
				return errors.Errorf("invalid host: %s", config.Host)
			}
		}
	}

	if config.Port < 1 || config.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", config.Port)
	}

	if config.Port < 1024 {
		logger.G(context.Background()).WithField("port", config.Port).Warn("using privileged port (< 1024) may require elevated permissions")
	}

	return nil
}

func runServeCommand(ctx context.Context, config *ServeConfig) error {
	if err := validateServeConfig(config); err != nil {
		return errors.Wrap(err, "invalid server configuration")
	}

	c, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	feedback, err := c.EnsureSynced(ctx)
	showFeedback(feedback)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(c, &server.Config{Host: config.Host, Port: config.Port})
	if err != nil {
		return err
	}

	logger.G(ctx).WithFields(map[string]any{
		"host": config.Host,
		"port": config.Port,
	}).Info("starting API server")

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	presenter.Info("Press Ctrl+C to stop the server")
	if err := srv.Start(ctx); err != nil {
		return errors.Wrap(err, "server failed")
	}

	presenter.Info(fmt.Sprintf("Server on %s:%d stopped", config.Host, config.Port))
	return nil
}
