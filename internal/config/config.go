// Package config loads formintake settings from flags, FORMINTAKE_*
// environment variables, an optional config file and built-in defaults,
// in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teemow/formintake/internal/graph"
	"github.com/teemow/formintake/internal/logging"
	"github.com/teemow/formintake/internal/poller"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FORMINTAKE"

// DefaultConfigName is searched for in the working directory when no
// config file is given.
const DefaultConfigName = "formintake"

// Config holds all settings.
type Config struct {
	Subject string        `mapstructure:"subject"`
	Graph   GraphConfig   `mapstructure:"graph"`
	Poll    PollConfig    `mapstructure:"poll"`
	Log     LogConfig     `mapstructure:"log"`
	Extract ExtractConfig `mapstructure:"extract"`
}

// GraphConfig holds Microsoft Graph endpoints.
type GraphConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	AuthorityURL string        `mapstructure:"authority_url"`
	Scope        string        `mapstructure:"scope"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// PollConfig controls the mailbox poller.
type PollConfig struct {
	BootstrapWindow time.Duration `mapstructure:"bootstrap_window"`
	CursorPolicy    string        `mapstructure:"cursor_policy"`
	Lock            bool          `mapstructure:"lock"`
	StrictExit      bool          `mapstructure:"strict_exit"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ExtractConfig controls the PDF extractor.
type ExtractConfig struct {
	Layout string `mapstructure:"layout"`
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"log-level":   "log.level",
	"log-format":  "log.format",
	"strict-exit": "poll.strict_exit",
	"layout":      "extract.layout",
	"subject":     "subject",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("subject", poller.DefaultSubject)

	v.SetDefault("graph.base_url", graph.DefaultBaseURL)
	v.SetDefault("graph.authority_url", "")
	v.SetDefault("graph.scope", graph.DefaultScope)
	v.SetDefault("graph.timeout", graph.DefaultTimeout)

	v.SetDefault("poll.bootstrap_window", poller.DefaultBootstrapWindow)
	v.SetDefault("poll.cursor_policy", string(poller.PolicyMax))
	v.SetDefault("poll.lock", true)
	v.SetDefault("poll.strict_exit", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatText)

	v.SetDefault("extract.layout", "")
}

// LoadDotEnv loads environment files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration. configFile may be empty, in which case
// ./formintake.{yaml,json,toml} is used when present. flags may be nil;
// only flags that were set on the command line override other sources.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the commands cannot use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Subject) == "" {
		return fmt.Errorf("subject must not be empty")
	}
	if c.Graph.Timeout <= 0 {
		return fmt.Errorf("graph.timeout must be positive, got %s", c.Graph.Timeout)
	}
	if c.Poll.BootstrapWindow <= 0 {
		return fmt.Errorf("poll.bootstrap_window must be positive, got %s", c.Poll.BootstrapWindow)
	}
	if _, err := poller.ParseCursorPolicy(c.Poll.CursorPolicy); err != nil {
		return fmt.Errorf("poll.cursor_policy: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("log.format: invalid log format %q, must be one of: text, json", c.Log.Format)
	}
	return nil
}

// GraphOptions returns the Graph client options described by the config.
func (c *Config) GraphOptions() graph.Options {
	return graph.Options{
		BaseURL:      c.Graph.BaseURL,
		AuthorityURL: c.Graph.AuthorityURL,
		Scope:        c.Graph.Scope,
		Timeout:      c.Graph.Timeout,
	}
}

// PollerConfig returns the poller settings described by the config.
// Validate must have succeeded.
func (c *Config) PollerConfig() poller.Config {
	policy, _ := poller.ParseCursorPolicy(c.Poll.CursorPolicy)
	return poller.Config{
		Subject:         c.Subject,
		BootstrapWindow: c.Poll.BootstrapWindow,
		CursorPolicy:    policy,
	}
}
