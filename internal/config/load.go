package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// TAREAS_AUTH_JWT_SECRET for auth.jwt_secret.
const EnvPrefix = "TAREAS"

var defaults = map[string]any{
	"server.port":                  8080,
	"server.log_level":             "info",
	"server.timezone":              "UTC",
	"server.read_timeout_seconds":  15,
	"server.write_timeout_seconds": 15,
	"server.cors_allowed_origins":  []string{"http://localhost:5173"},
	"database.url":                 "",
	"database.max_open_conns":      25,
	"database.max_idle_conns":      5,
	"database.auto_migrate":        false,
	"auth.jwt_secret":              "",
	"auth.token_lifetime_minutes":  1440,
	"auth.bcrypt_cost":             10,
}

// Load reads configuration from defaults, an optional config file and
// environment variables, in increasing order of precedence.
// An empty configFile looks for config.yaml in the working directory and
// ignores it when absent. Returns a validated Config.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
