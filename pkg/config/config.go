// Package config loads the recordctl configuration from an optional YAML file
// and RECORD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/tinywasm/record/pkg/logger"
)

// EnvPrefix is the environment variable prefix, e.g. RECORD_DATABASE_DSN.
const EnvPrefix = "RECORD_"

type Database struct {
	Driver     string `mapstructure:"driver"`
	DSN        string `mapstructure:"dsn"`
	Migrations string `mapstructure:"migrations"`
}

type Query struct {
	DefaultLimit int `mapstructure:"default_limit"`
}

type Config struct {
	Database Database      `mapstructure:"database"`
	Log      logger.Config `mapstructure:"log"`
	Query    Query         `mapstructure:"query"`

	// Schema is the path of the entity schema YAML file.
	Schema string `mapstructure:"schema"`
	// Routes is the path of the route table YAML file.
	Routes string `mapstructure:"routes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:record.db")
	v.SetDefault("database.migrations", "migrations")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("query.default_limit", 50)
	v.SetDefault("schema", "schema.yaml")
	v.SetDefault("routes", "routes.yaml")
}

// Load reads file (optional, may be empty) and overlays environment variables
// starting with prefix: RECORD_DATABASE_DSN -> database.dsn.
func Load(file, prefix string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", file, err)
			}
		}
	}

	prefixUpper := strings.ToUpper(prefix)
	for _, envStr := range os.Environ() {
		key, value, ok := strings.Cut(envStr, "=")
		if !ok || !strings.HasPrefix(key, prefixUpper) {
			continue
		}
		// Only the first underscore separates sections: RECORD_QUERY_DEFAULT_LIMIT -> query.default_limit
		propKey := strings.ToLower(strings.TrimPrefix(key, prefixUpper))
		propKey = strings.Replace(propKey, "_", ".", 1)
		v.Set(propKey, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Query.DefaultLimit <= 0 {
		return nil, fmt.Errorf("query.default_limit must be positive, got %d", cfg.Query.DefaultLimit)
	}
	return &cfg, nil
}
