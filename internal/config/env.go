package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override default and file values
func LoadFromEnv(cfg *Config) {
	// Database configuration
	if dbPath := os.Getenv("DESKFLOW_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if retention := os.Getenv("DESKFLOW_RETENTION_DAYS"); retention != "" {
		if days, err := strconv.Atoi(retention); err == nil && days >= 0 {
			cfg.Database.RetentionDays = days
		}
	}

	// Tracker configuration
	if tick := os.Getenv("DESKFLOW_TICK_PERIOD"); tick != "" {
		if period, ok := parseDuration(tick); ok {
			if period >= cfg.Tracker.MinTickPeriod && period <= cfg.Tracker.MaxTickPeriod {
				cfg.Tracker.TickPeriod = period
			}
		}
	}

	if flush := os.Getenv("DESKFLOW_FLUSH_INTERVAL"); flush != "" {
		if interval, ok := parseDuration(flush); ok {
			cfg.Tracker.FlushInterval = interval
		}
	}

	// Categories configuration
	if rules := os.Getenv("DESKFLOW_RULES_FILE"); rules != "" {
		cfg.Categories.RulesFile = rules
	}

	// Daemon configuration
	if pidFile := os.Getenv("DESKFLOW_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	if logFile := os.Getenv("DESKFLOW_LOG_FILE"); logFile != "" {
		cfg.Daemon.LogFile = logFile
	}

	if level := os.Getenv("DESKFLOW_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	// Web configuration
	if webHost := os.Getenv("DESKFLOW_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("DESKFLOW_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}
}

// parseDuration accepts Go duration strings ("1500ms") or plain seconds ("5").
func parseDuration(s string) (time.Duration, bool) {
	if seconds, err := strconv.Atoi(s); err == nil {
		if seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// New creates a new Config with default values and loads from environment
func New() *Config {
	cfg := Default()
	LoadFromEnv(cfg)
	return cfg
}
