// Package config loads agentdefs settings from ~/.agentdefs/config.yaml,
// ./config.yaml and AGENTDEFS_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/jingkaihe/agentdefs/pkg/db"
	"github.com/jingkaihe/agentdefs/pkg/definitions"
	"github.com/jingkaihe/agentdefs/pkg/github"
)

// EnvPrefix prefixes every environment override, e.g. AGENTDEFS_LOG_LEVEL
const EnvPrefix = "AGENTDEFS"

// Source types
const (
	SourceTypeClaudeCodeTemplates = "claude-code-templates"
	SourceTypeAwesomeSubagents    = "awesome-subagents"
	SourceTypeGitHubRepo          = "github-repo"
	SourceTypeGitHubGist          = "github-gist"
	SourceTypeLocalDir            = "local-dir"
)

const defaultBranch = "main"

// SourceConfig is one entry of the sources list
type SourceConfig struct {
	Label   string `mapstructure:"label"`
	Type    string `mapstructure:"type"`
	Enabled *bool  `mapstructure:"enabled"`

	// github-repo
	Owner    string `mapstructure:"owner"`
	Repo     string `mapstructure:"repo"`
	Branch   string `mapstructure:"branch"`
	BasePath string `mapstructure:"base_path"`

	// github-gist
	GistID     string `mapstructure:"gist_id"`
	PathPrefix string `mapstructure:"path_prefix"`

	// local-dir; BasePath applies too
	Path string `mapstructure:"path"`
}

// IsEnabled reports whether the source takes part in syncs and queries
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// GitHubConfig configures the GitHub transport
type GitHubConfig struct {
	Token      string             `mapstructure:"token"`
	APIBaseURL string             `mapstructure:"api_base_url"`
	Retry      github.RetryConfig `mapstructure:"retry"`
}

// TracingConfig configures OpenTelemetry tracing
type TracingConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Sampler string  `mapstructure:"sampler"`
	Ratio   float64 `mapstructure:"ratio"`
}

// Config is the resolved application configuration
type Config struct {
	DatabasePath string         `mapstructure:"database_path"`
	LogLevel     string         `mapstructure:"log_level"`
	LogFormat    string         `mapstructure:"log_format"`
	GitHub       GitHubConfig   `mapstructure:"github"`
	Tracing      TracingConfig  `mapstructure:"tracing"`
	Sources      []SourceConfig `mapstructure:"sources"`
}

// DefaultSources are used when no sources are configured
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Label: SourceTypeClaudeCodeTemplates, Type: SourceTypeClaudeCodeTemplates},
		{Label: SourceTypeAwesomeSubagents, Type: SourceTypeAwesomeSubagents},
	}
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	retry := github.DefaultRetryConfig()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "fmt")
	v.SetDefault("github.api_base_url", github.DefaultAPIBaseURL)
	v.SetDefault("github.retry.attempts", retry.Attempts)
	v.SetDefault("github.retry.initial_delay_ms", retry.InitialDelay)
	v.SetDefault("github.retry.max_delay_ms", retry.MaxDelay)
	v.SetDefault("github.retry.backoff_type", retry.BackoffType)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.sampler", "always")
	v.SetDefault("tracing.ratio", 1.0)
}

// InitViper wires environment variables and config file lookup into v. A
// missing config file is not an error.
func InitViper(v *viper.Viper, configFile string) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.agentdefs")
		v.AddConfigPath(".")
	}

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "failed to read config file")
	}
	return nil
}

// Load resolves the configuration held by v and validates it
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabasePath: v.GetString("database_path"),
		LogLevel:     v.GetString("log_level"),
		LogFormat:    v.GetString("log_format"),
		GitHub: GitHubConfig{
			Token:      v.GetString("github.token"),
			APIBaseURL: v.GetString("github.api_base_url"),
			Retry: github.RetryConfig{
				Attempts:     v.GetInt("github.retry.attempts"),
				InitialDelay: v.GetInt("github.retry.initial_delay_ms"),
				MaxDelay:     v.GetInt("github.retry.max_delay_ms"),
				BackoffType:  v.GetString("github.retry.backoff_type"),
			},
		},
		Tracing: TracingConfig{
			Enabled: v.GetBool("tracing.enabled"),
			Sampler: v.GetString("tracing.sampler"),
			Ratio:   v.GetFloat64("tracing.ratio"),
		},
	}

	if raw := v.Get("sources"); raw != nil {
		sources, err := DecodeSources(raw)
		if err != nil {
			return nil, err
		}
		cfg.Sources = sources
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DecodeSources decodes the raw sources list. Unknown keys are rejected so
// typos surface instead of silently disabling a setting.
func DecodeSources(raw any) ([]SourceConfig, error) {
	var sources []SourceConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &sources,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sources decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "invalid sources configuration")
	}
	return sources, nil
}

func (c *Config) applyDefaults() error {
	if c.DatabasePath == "" {
		path, err := db.DefaultDBPath()
		if err != nil {
			return err
		}
		c.DatabasePath = path
	}
	path, err := expandHome(c.DatabasePath)
	if err != nil {
		return err
	}
	c.DatabasePath = path

	if c.GitHub.Token == "" {
		c.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if c.GitHub.APIBaseURL == "" {
		c.GitHub.APIBaseURL = github.DefaultAPIBaseURL
	}

	if len(c.Sources) == 0 {
		c.Sources = DefaultSources()
	}
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.Type == SourceTypeGitHubRepo && src.Branch == "" {
			src.Branch = defaultBranch
		}
		if src.Type == SourceTypeLocalDir && src.Path != "" {
			expanded, err := expandHome(src.Path)
			if err != nil {
				return err
			}
			src.Path = expanded
		}
	}
	return nil
}

// Validate reports every configuration problem at once
func (c *Config) Validate() error {
	var result *multierror.Error

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, errors.Errorf("invalid log_level %q", c.LogLevel))
	}

	seen := make(map[string]bool)
	for i, src := range c.Sources {
		where := fmt.Sprintf("sources[%d]", i)
		if src.Label != "" {
			where = fmt.Sprintf("source %q", src.Label)
		}

		switch {
		case src.Label == "":
			result = multierror.Append(result, errors.Errorf("%s: label is required", where))
		case src.Label == definitions.CompositeLabel:
			result = multierror.Append(result, errors.Errorf("%s: label %q is reserved", where, definitions.CompositeLabel))
		case seen[src.Label]:
			result = multierror.Append(result, errors.Errorf("%s: duplicate label", where))
		}
		seen[src.Label] = true

		for _, err := range src.validate() {
			result = multierror.Append(result, errors.Wrap(err, where))
		}
	}

	return result.ErrorOrNil()
}

func (s SourceConfig) validate() []error {
	var errs []error
	require := func(value, key string) {
		if value == "" {
			errs = append(errs, errors.Errorf("%s is required for type %s", key, s.Type))
		}
	}

	switch s.Type {
	case SourceTypeClaudeCodeTemplates, SourceTypeAwesomeSubagents:
	case SourceTypeGitHubRepo:
		require(s.Owner, "owner")
		require(s.Repo, "repo")
	case SourceTypeGitHubGist:
		require(s.GistID, "gist_id")
	case SourceTypeLocalDir:
		require(s.Path, "path")
	case "":
		errs = append(errs, errors.New("type is required"))
	default:
		errs = append(errs, errors.Errorf("unknown type %q", s.Type))
	}
	return errs
}

// EnabledSources returns the enabled sources in configuration order
func (c *Config) EnabledSources() []SourceConfig {
	enabled := make([]SourceConfig, 0, len(c.Sources))
	for _, src := range c.Sources {
		if src.IsEnabled() {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

// Source returns the configured source with the given label
func (c *Config) Source(label string) (SourceConfig, bool) {
	for _, src := range c.Sources {
		if src.Label == label {
			return src, true
		}
	}
	return SourceConfig{}, false
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
