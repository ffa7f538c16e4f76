package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "tick below minimum",
			mutate:  func(c *Config) { c.Tracker.TickPeriod = time.Millisecond },
			wantErr: "tick period",
		},
		{
			name:    "flush shorter than tick",
			mutate:  func(c *Config) { c.Tracker.FlushInterval = 500 * time.Millisecond },
			wantErr: "flush interval",
		},
		{
			name:    "negative retention",
			mutate:  func(c *Config) { c.Database.RetentionDays = -1 },
			wantErr: "retention",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "log level",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Web.Port = 70000 },
			wantErr: "web port",
		},
		{
			name:    "empty pid file",
			mutate:  func(c *Config) { c.Daemon.PIDFile = "" },
			wantErr: "PID file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DESKFLOW_DB_PATH", "/tmp/x.db")
	t.Setenv("DESKFLOW_RETENTION_DAYS", "7")
	t.Setenv("DESKFLOW_TICK_PERIOD", "2")
	t.Setenv("DESKFLOW_FLUSH_INTERVAL", "30s")
	t.Setenv("DESKFLOW_RULES_FILE", "/tmp/rules.yaml")
	t.Setenv("DESKFLOW_LOG_LEVEL", "debug")
	t.Setenv("DESKFLOW_WEB_PORT", "9999")

	cfg := New()
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, 7, cfg.Database.RetentionDays)
	assert.Equal(t, 2*time.Second, cfg.Tracker.TickPeriod)
	assert.Equal(t, 30*time.Second, cfg.Tracker.FlushInterval)
	assert.Equal(t, "/tmp/rules.yaml", cfg.Categories.RulesFile)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9999, cfg.Web.Port)
}

func TestLoadFromEnvIgnoresInvalid(t *testing.T) {
	t.Setenv("DESKFLOW_TICK_PERIOD", "-3")
	t.Setenv("DESKFLOW_FLUSH_INTERVAL", "soon")
	t.Setenv("DESKFLOW_WEB_PORT", "0")

	cfg := New()
	def := Default()
	assert.Equal(t, def.Tracker.TickPeriod, cfg.Tracker.TickPeriod)
	assert.Equal(t, def.Tracker.FlushInterval, cfg.Tracker.FlushInterval)
	assert.Equal(t, def.Web.Port, cfg.Web.Port)
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("tracker:\n  flush_interval: 10s\ndatabase:\n  retention_days: 0\nweb:\n  port: 8123\n")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	cfg := Default()
	require.NoError(t, LoadFile(cfg, path))

	assert.Equal(t, 10*time.Second, cfg.Tracker.FlushInterval)
	assert.Equal(t, time.Second, cfg.Tracker.TickPeriod)
	assert.Equal(t, 0, cfg.Database.RetentionDays)
	assert.Equal(t, 8123, cfg.Web.Port)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	t.Setenv("DESKFLOW_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o644))
	t.Setenv("DESKFLOW_CONFIG", path)
	t.Setenv("DESKFLOW_LOG_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}
