package config

import (
    "errors"
    "fmt"
    "os"

    "gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
    Logging    LoggingConfig    `yaml:"logging"`
    Metrics    MetricsConfig    `yaml:"metrics"`
    Migrations MigrationsConfig `yaml:"migrations"`
}

// LoggingConfig describes the logging pipeline: level, layout and appenders
type LoggingConfig struct {
    Level     string          `yaml:"level"` // debug, info, warn, error, fatal
    Context   string          `yaml:"context"`
    Layout    LayoutConfig    `yaml:"layout"`
    Appenders AppendersConfig `yaml:"appenders"`
    Async     AsyncConfig     `yaml:"async"`
    RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// LayoutConfig selects how records are rendered
type LayoutConfig struct {
    Type    string `yaml:"type"`    // pattern, json
    Pattern string `yaml:"pattern"` // only for type pattern
}

// AppendersConfig lists the enabled outputs
type AppendersConfig struct {
    Console ConsoleAppenderConfig `yaml:"console"`
    File    FileAppenderConfig    `yaml:"file"`
}

// ConsoleAppenderConfig for stdout/stderr output
type ConsoleAppenderConfig struct {
    Enabled bool   `yaml:"enabled"`
    Target  string `yaml:"target"` // stdout, stderr
}

// FileAppenderConfig for file-based output with rotation
type FileAppenderConfig struct {
    Enabled    bool   `yaml:"enabled"`
    Path       string `yaml:"path"`
    MaxSizeMB  int    `yaml:"max_size_mb"`
    MaxBackups int    `yaml:"max_backups"`
    MaxAgeDays int    `yaml:"max_age_days"`
    Compress   bool   `yaml:"compress"`
}

// AsyncConfig puts a buffered queue in front of the appenders
type AsyncConfig struct {
    Enabled    bool   `yaml:"enabled"`
    BufferSize int    `yaml:"buffer_size"`
    DropPolicy string `yaml:"drop_policy"` // "oldest" or "newest"
}

// RateLimitConfig caps how many records reach the appenders
type RateLimitConfig struct {
    MaxPerSec int `yaml:"max_per_sec"` // 0 = unlimited
}

// MetricsConfig for Prometheus metrics
type MetricsConfig struct {
    Enabled bool `yaml:"enabled"` // Enable Prometheus metrics endpoint
    Port    int  `yaml:"port"`    // HTTP port for /metrics endpoint
}

// MigrationsConfig tunes the migration registry
type MigrationsConfig struct {
    CacheSize int `yaml:"cache_size"` // cached migration chains
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
    return &Config{
        Logging: LoggingConfig{
            Level:   "info",
            Context: "logtrail",
            Layout: LayoutConfig{
                Type:    "pattern",
                Pattern: "[%date][%level][%logger] %message",
            },
            Appenders: AppendersConfig{
                Console: ConsoleAppenderConfig{
                    Enabled: true,
                    Target:  "stdout",
                },
                File: FileAppenderConfig{
                    Enabled:    false,
                    Path:       "/var/log/logtrail/logtrail.log",
                    MaxSizeMB:  100,
                    MaxBackups: 10,
                    MaxAgeDays: 30,
                    Compress:   true,
                },
            },
            Async: AsyncConfig{
                Enabled:    false,
                BufferSize: 1000,
                DropPolicy: "oldest",
            },
            RateLimit: RateLimitConfig{
                MaxPerSec: 0,
            },
        },
        Metrics: MetricsConfig{
            Enabled: false,
            Port:    9090,
        },
        Migrations: MigrationsConfig{
            CacheSize: 128,
        },
    }
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
    data, err := os.ReadFile(path)
    if err != nil {
        return nil, fmt.Errorf("reading config file: %w", err)
    }

    cfg := DefaultConfig()
    if err := yaml.Unmarshal(data, cfg); err != nil {
        return nil, fmt.Errorf("parsing config file: %w", err)
    }

    if err := cfg.Validate(); err != nil {
        return nil, fmt.Errorf("validating config file: %w", err)
    }

    return cfg, nil
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
    var errs []error

    switch c.Logging.Layout.Type {
    case "", "pattern", "json":
    default:
        errs = append(errs, fmt.Errorf("logging.layout.type: unknown layout %q", c.Logging.Layout.Type))
    }

    switch c.Logging.Appenders.Console.Target {
    case "", "stdout", "stderr":
    default:
        errs = append(errs, fmt.Errorf("logging.appenders.console.target: unknown target %q", c.Logging.Appenders.Console.Target))
    }

    if c.Logging.Appenders.File.Enabled && c.Logging.Appenders.File.Path == "" {
        errs = append(errs, errors.New("logging.appenders.file.path: required when the file appender is enabled"))
    }

    switch c.Logging.Async.DropPolicy {
    case "", "oldest", "newest":
    default:
        errs = append(errs, fmt.Errorf("logging.async.drop_policy: unknown policy %q", c.Logging.Async.DropPolicy))
    }

    if c.Logging.RateLimit.MaxPerSec < 0 {
        errs = append(errs, fmt.Errorf("logging.rate_limit.max_per_sec: %d is negative", c.Logging.RateLimit.MaxPerSec))
    }

    if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
        errs = append(errs, fmt.Errorf("metrics.port: %d out of range", c.Metrics.Port))
    }

    // errors.Join returns nil for an empty slice
    return errors.Join(errs...)
}
