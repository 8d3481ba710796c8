package connector

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from file and environment variables.
// An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString("QUERYFN_DRIVER", &cfg.Driver)
	setString("QUERYFN_DSN", &cfg.DSN)
	setString("QUERYFN_HOST", &cfg.Host)
	setString("QUERYFN_DATABASE", &cfg.Database)
	setString("QUERYFN_USER", &cfg.Username)
	setString("QUERYFN_PASSWORD", &cfg.Password)
	setString("QUERYFN_LOG_LEVEL", &cfg.Logging.Level)

	for key, dst := range map[string]*int{
		"QUERYFN_PORT":     &cfg.Port,
		"QUERYFN_POOL_MIN": &cfg.Pool.MinOpen,
		"QUERYFN_POOL_MAX": &cfg.Pool.MaxOpen,
	} {
		if err := setInt(key, dst); err != nil {
			return err
		}
	}
	return nil
}
