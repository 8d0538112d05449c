package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AdminConfig names the account that must exist, with admin rights, after
// database initialization. Loaded once at process start, immutable afterward.
type AdminConfig struct {
	Email string `mapstructure:"email"`
}

// PoolConfig tunes the database/sql connection pool.
type PoolConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DefaultPoolConfig returns the pool settings used when the config file and
// environment are silent.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
	}
}

// DatabaseConfig selects the driver and connection target.
type DatabaseConfig struct {
	Driver string     `mapstructure:"driver"`
	DSN    string     `mapstructure:"dsn"`
	Pool   PoolConfig `mapstructure:"pool"`
}

// SeedConfig points at the YAML seed fixture. Empty file means the embedded
// default fixture.
type SeedConfig struct {
	File string `mapstructure:"file"`
}

// ServerConfig controls the health/readiness HTTP server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	RateLimit       int           `mapstructure:"rate_limit"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// Config is the full application configuration, resolved from keen.yaml,
// KEEN_* environment variables, and flags before orchestration begins.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// Load resolves the configuration from the given viper instance, applying
// defaults and validating the result.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.pool.max_open_conns", 25)
	v.SetDefault("database.pool.max_idle_conns", 5)
	v.SetDefault("database.pool.conn_max_lifetime", "5m")
	v.SetDefault("database.pool.conn_max_idle_time", "1m")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate reports configuration errors before any database work starts.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q; supported: postgres, sqlite", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required (set KEEN_DATABASE_DSN or database.dsn in keen.yaml)")
	}
	if c.Admin.Email == "" {
		return fmt.Errorf("admin.email is required (set KEEN_ADMIN_EMAIL or admin.email in keen.yaml)")
	}
	if !strings.Contains(c.Admin.Email, "@") {
		return fmt.Errorf("admin.email %q is not a valid email address", c.Admin.Email)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}
