package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tcec-chess/livefeed/internal/config"
	"github.com/tcec-chess/livefeed/pkg/errors"
)

// EnvPrefix prefixes every environment variable read by livefeed.
const EnvPrefix = "LIVEFEED"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string

	v *viper.Viper
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (bound by BindFlags)
// 2. Environment variables (LIVEFEED_*)
// 3. .env files
// 4. Config file (~/.livefeed.yaml or ./.livefeed.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	config.SetDefaults(v)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".livefeed")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	return &Config{
		Verbose:    v.GetBool("verbose"),
		Quiet:      v.GetBool("quiet"),
		NoColor:    v.GetBool("no_color"),
		Format:     v.GetString("format"),
		ConfigFile: v.ConfigFileUsed(),
		LogLevel:   v.GetString("log_level"),
		LogFormat:  v.GetString("log_format"),
		LogOutput:  v.GetString("log_output"),
		v:          v,
	}, nil
}

// readConfig reads the config file. A missing file is not an error when
// none was named explicitly.
func readConfig(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return errors.NewConfigError("config", "failed to read config file", err)
}

// Viper returns the settings the live configuration is read from.
func (c *Config) Viper() *viper.Viper {
	if c.v == nil {
		c.v = viper.New()
		config.SetDefaults(c.v)
	}
	return c.v
}

// UseConfigFile replaces the config file with path and reads it.
func (c *Config) UseConfigFile(path string) error {
	v := c.Viper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.NewConfigError("config", "failed to read "+path, err)
	}
	c.ConfigFile = v.ConfigFileUsed()
	return nil
}

// BindFlags makes changed flags take precedence over every other source.
// Flag names use dashes; the matching keys use underscores.
func (c *Config) BindFlags(flags *pflag.FlagSet, names ...string) error {
	v := c.Viper()
	for _, name := range names {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flag); err != nil {
			return errors.NewConfigError("flags", "failed to bind "+name, err)
		}
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
