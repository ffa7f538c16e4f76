package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Tracker configuration
	Tracker TrackerConfig `yaml:"tracker"`

	// Category rules configuration
	Categories CategoriesConfig `yaml:"categories"`

	// Daemon configuration
	Daemon DaemonConfig `yaml:"daemon"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Web server configuration
	Web WebConfig `yaml:"web"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path          string `yaml:"path"`           // Path to SQLite database file
	RetentionDays int    `yaml:"retention_days"` // Days of sessions kept across a day change; 0 keeps only today
}

// TrackerConfig holds tracking behavior configuration
type TrackerConfig struct {
	TickPeriod    time.Duration `yaml:"tick_period"`    // How often the visible windows are sampled
	FlushInterval time.Duration `yaml:"flush_interval"` // Longest span a running session stays unflushed
	MinTickPeriod time.Duration `yaml:"-"`              // Minimum allowed tick period
	MaxTickPeriod time.Duration `yaml:"-"`              // Maximum allowed tick period
}

// CategoriesConfig holds categorizer configuration
type CategoriesConfig struct {
	RulesFile string `yaml:"rules_file"` // YAML rule table; empty means built-in rules
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `yaml:"pid_file"` // Path to PID file for daemon management
	LogFile string `yaml:"log_file"` // Where the daemonized child writes its log
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string `yaml:"host"` // Host to bind web server to
	Port int    `yaml:"port"` // Port for web server
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:          "", // Empty means use default ~/.config/deskflow/usage_data.db
			RetentionDays: 30,
		},
		Tracker: TrackerConfig{
			TickPeriod:    1 * time.Second,
			FlushInterval: 5 * time.Second,
			MinTickPeriod: 100 * time.Millisecond,
			MaxTickPeriod: 60 * time.Second,
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/deskflow-%d.pid", os.Getuid()),
			LogFile: fmt.Sprintf("/tmp/deskflow-%d.log", os.Getuid()),
		},
		Log: LogConfig{
			Level: "info",
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + os.Getuid()%50000,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Tracker.TickPeriod < c.Tracker.MinTickPeriod {
		return fmt.Errorf("tick period (%v) cannot be less than minimum (%v)",
			c.Tracker.TickPeriod, c.Tracker.MinTickPeriod)
	}

	if c.Tracker.TickPeriod > c.Tracker.MaxTickPeriod {
		return fmt.Errorf("tick period (%v) cannot be greater than maximum (%v)",
			c.Tracker.TickPeriod, c.Tracker.MaxTickPeriod)
	}

	if c.Tracker.FlushInterval < c.Tracker.TickPeriod {
		return fmt.Errorf("flush interval (%v) cannot be less than tick period (%v)",
			c.Tracker.FlushInterval, c.Tracker.TickPeriod)
	}

	if c.Database.RetentionDays < 0 {
		return fmt.Errorf("retention days cannot be negative")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// SetTickPeriod sets the tick period with validation
func (c *Config) SetTickPeriod(period time.Duration) error {
	if period < c.Tracker.MinTickPeriod {
		return fmt.Errorf("tick period cannot be less than %v", c.Tracker.MinTickPeriod)
	}
	if period > c.Tracker.MaxTickPeriod {
		return fmt.Errorf("tick period cannot be greater than %v", c.Tracker.MaxTickPeriod)
	}
	c.Tracker.TickPeriod = period
	return nil
}

// SetFlushInterval sets the flush interval with validation
func (c *Config) SetFlushInterval(interval time.Duration) error {
	if interval < c.Tracker.TickPeriod {
		return fmt.Errorf("flush interval cannot be less than tick period %v", c.Tracker.TickPeriod)
	}
	c.Tracker.FlushInterval = interval
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
    Retention Days: %d
  Tracker:
    Tick Period: %v
    Flush Interval: %v
  Categories:
    Rules File: %s
  Daemon:
    PID File: %s
    Log File: %s
  Log:
    Level: %s
  Web:
    Host: %s
    Port: %d`,
		c.Database.Path,
		c.Database.RetentionDays,
		c.Tracker.TickPeriod,
		c.Tracker.FlushInterval,
		c.Categories.RulesFile,
		c.Daemon.PIDFile,
		c.Daemon.LogFile,
		c.Log.Level,
		c.Web.Host,
		c.Web.Port,
	)
}
