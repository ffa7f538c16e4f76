package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points config, database and PID file at a temp dir.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: error\n"), 0o644))

	t.Setenv("DESKFLOW_CONFIG", cfgPath)
	t.Setenv("DESKFLOW_DB_PATH", filepath.Join(dir, "usage_data.db"))
	t.Setenv("DESKFLOW_PID_FILE", filepath.Join(dir, "deskflow.pid"))
	t.Setenv("DESKFLOW_DAEMON_CHILD", "")

	reportDate, reportFormat, scoresFrom, scoresTo = "", "text", "", ""
	scoreSet, clearYes = 0, false
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.Contains(t, out, "deskflow version "+version)
}

func TestCategoriesCommand(t *testing.T) {
	isolate(t)

	out := execute(t, "categories")
	assert.Contains(t, out, "rules:")
	assert.Contains(t, out, "spotify")
	assert.Contains(t, out, "Entertainment")
}

func TestReportAndScoreCommands(t *testing.T) {
	isolate(t)

	out := execute(t, "report", "--date", "2026-10-15", "--format", "json")
	assert.Contains(t, out, `"date": "2026-10-15"`)
	assert.Contains(t, out, `"rating": "Needs Focus"`)

	out = execute(t, "score", "--date", "2026-10-14", "--set", "91")
	assert.Contains(t, out, "2026-10-14")
	assert.Contains(t, out, "Excellent")

	out = execute(t, "scores", "--from", "2026-10-01", "--to", "2026-10-31", "--format", "yaml")
	assert.Contains(t, out, "rating: Excellent")

	out = execute(t, "clear", "--yes")
	assert.Contains(t, out, "Database cleared successfully")
}

func TestReportRejectsBadDate(t *testing.T) {
	isolate(t)

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"report", "--date", "tomorrow"})
	assert.Error(t, rootCmd.Execute())
}

func TestStopWhenNotRunning(t *testing.T) {
	isolate(t)

	out := execute(t, "stop")
	assert.Contains(t, out, "Daemon is not running")
}
