package connector

import (
	"time"

	"github.com/Konsultn-Engineering/queryfn/errs"
)

// Config represents database connection configuration.
type Config struct {
	Driver         string            `json:"driver" yaml:"driver"`
	Host           string            `json:"host" yaml:"host"`
	Port           int               `json:"port" yaml:"port"`
	Database       string            `json:"database" yaml:"database"`
	Username       string            `json:"username" yaml:"username"`
	Password       string            `json:"password" yaml:"password"`
	SSLMode        string            `json:"ssl_mode" yaml:"ssl_mode"`
	Path           string            `json:"path" yaml:"path"` // sqlite3 database file
	DSN            string            `json:"dsn" yaml:"dsn"`   // overrides the fields above when set
	Params         map[string]string `json:"params" yaml:"params"`
	Pool           PoolConfig        `json:"pool" yaml:"pool"`
	ConnectTimeout time.Duration     `json:"connect_timeout" yaml:"connect_timeout"`
	Trace          bool              `json:"trace" yaml:"trace"`
	Logging        LoggingConfig     `json:"logging" yaml:"logging"`
}

// PoolConfig defines connection pool settings.
type PoolConfig struct {
	MinOpen         int           `json:"min_open" yaml:"min_open"`
	MaxOpen         int           `json:"max_open" yaml:"max_open"`
	MaxLifetime     time.Duration `json:"max_lifetime" yaml:"max_lifetime"`
	MaxIdleTime     time.Duration `json:"max_idle_time" yaml:"max_idle_time"`
	HealthCheckFreq time.Duration `json:"health_check_freq" yaml:"health_check_freq"`
	AcquireTimeout  time.Duration `json:"acquire_timeout" yaml:"acquire_timeout"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig returns the configuration used when nothing is supplied.
func DefaultConfig() Config {
	return Config{
		Driver:  "postgres",
		Host:    "localhost",
		Port:    5432,
		SSLMode: "prefer",
		Pool: PoolConfig{
			MinOpen:     1,
			MaxOpen:     10,
			MaxLifetime: time.Hour,
			MaxIdleTime: 30 * time.Minute,
		},
		ConnectTimeout: 10 * time.Second,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the pool bounds and the connection target. It never
// touches the network.
func (c *Config) Validate() error {
	if err := c.Pool.Validate(); err != nil {
		return err
	}
	if c.Driver == "" {
		return errs.Configf("driver", "is required")
	}
	if c.DSN != "" {
		return nil
	}

	switch c.Driver {
	case "sqlite3", "sqlite":
		if c.Path == "" {
			return errs.Configf("path", "is required for %s", c.Driver)
		}
	default:
		if c.Host == "" {
			return errs.Configf("host", "is required for %s", c.Driver)
		}
		if c.Port < 0 || c.Port > 65535 {
			return errs.Configf("port", "invalid port: %d", c.Port)
		}
	}
	return nil
}

// Validate enforces 0 < MinOpen <= MaxOpen.
func (p *PoolConfig) Validate() error {
	if p.MinOpen <= 0 {
		return errs.Configf("pool.min_open", "must be > 0, got %d", p.MinOpen)
	}
	if p.MaxOpen < p.MinOpen {
		return errs.Configf("pool.max_open", "must be >= min_open (%d), got %d", p.MinOpen, p.MaxOpen)
	}
	if p.AcquireTimeout < 0 {
		return errs.Configf("pool.acquire_timeout", "must not be negative")
	}
	return nil
}
