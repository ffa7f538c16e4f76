package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/deskflow/deskflow/internal/config"
	"github.com/deskflow/deskflow/internal/daemon"
	"github.com/deskflow/deskflow/internal/database"
	"github.com/deskflow/deskflow/internal/logging"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

const appName = "deskflow"

var logLevel string

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Desktop activity tracker",
	Long: `deskflow records which windows are on screen, groups the time into
categories and scores each day by its productive share.

Quick Start:
  deskflow start                 # Track in the background
  deskflow serve                 # Track in the background with the web dashboard
  deskflow report                # Today's category summary
  deskflow score --date 2025-01-06

Environment Variables:
  DESKFLOW_CONFIG           Config file (default ~/.config/deskflow/config.yaml)
  DESKFLOW_DB_PATH          Database file path
  DESKFLOW_TICK_PERIOD      Sampling period (e.g. 1s)
  DESKFLOW_FLUSH_INTERVAL   Longest unflushed session (e.g. 5s)
  DESKFLOW_RETENTION_DAYS   Days of sessions kept across a day change
  DESKFLOW_RULES_FILE       YAML category rules
  DESKFLOW_PID_FILE         PID file path
  DESKFLOW_LOG_LEVEL        debug, info, warn, error`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s version %s\n", appName, version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

// loadConfig resolves the effective configuration for a command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// app bundles what most commands need.
type app struct {
	cfg     *config.Config
	db      *database.DB
	repo    *database.Repository
	logger  *log.Logger
	logFile io.Closer
}

// openApp loads configuration and opens the database. A daemon child logs
// to the configured log file, everything else to stderr.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	var out io.Writer = os.Stderr
	if daemon.IsChild() && cfg.Daemon.LogFile != "" {
		f, err := logging.OpenFile(cfg.Daemon.LogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		a.logFile = f
	}
	a.logger = logging.New(out, cfg.Log.Level)

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		_ = db.Close()
		a.Close()
		return nil, err
	}

	a.db = db
	a.repo = database.NewRepository(db)
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
