// Package config loads process settings for the reconciliation server.
package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds server configuration. Business rules are not here; they live
// in the rule document named by Rules.Path.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Sources SourcesConfig `mapstructure:"sources"`
	Log     LogConfig     `mapstructure:"log"`
	CORS    CORSConfig    `mapstructure:"cors"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// RulesConfig points at a YAML rule document; empty uses the built-in rules.
type RulesConfig struct {
	Path string `mapstructure:"path"`
}

// SourcesConfig names the export files reloaded on schedule or on demand.
type SourcesConfig struct {
	Billing        string `mapstructure:"billing"`
	Payroll        string `mapstructure:"payroll"`
	ReloadSchedule string `mapstructure:"reload_schedule"`
}

// Configured reports whether both files are set.
func (s SourcesConfig) Configured() bool {
	return s.Billing != "" && s.Payroll != ""
}

// LogConfig selects the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// CORSConfig lists allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from defaults, an optional file and the
// environment. Env var overrides use prefix RECON_, e.g. RECON_SERVER_PORT.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("rules.path", "")
	v.SetDefault("sources.billing", "")
	v.SetDefault("sources.payroll", "")
	v.SetDefault("sources.reload_schedule", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetConfigType("yaml")
	if path := os.Getenv("RECON_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("reconcile")
	}

	v.SetEnvPrefix("RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !eris.As(err, &notFound) {
			return Config{}, eris.Wrap(err, "read config")
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, eris.Wrap(err, "unmarshal config")
	}
	return c, nil
}
