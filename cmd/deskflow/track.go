package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskflow/deskflow/internal/category"
	"github.com/deskflow/deskflow/internal/daemon"
	"github.com/deskflow/deskflow/internal/reporter"
	"github.com/deskflow/deskflow/internal/tracker"
	"github.com/deskflow/deskflow/internal/web"
	"github.com/deskflow/deskflow/pkg/detector"
	"github.com/deskflow/deskflow/pkg/utils"
)

var (
	withWeb bool
	webPort int
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the tracking daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startDaemon(cmd, withWeb)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tracking daemon with the web API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startDaemon(cmd, true)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Track in the foreground until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTracker(withWeb)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the tracking daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dm := daemon.New(cfg.Daemon.PIDFile)

		running, pid, err := dm.IsRunning()
		if err != nil {
			return fmt.Errorf("failed to check daemon status: %w", err)
		}
		out := cmd.OutOrStdout()
		if !running {
			fmt.Fprintln(out, "Daemon is not running")
			return nil
		}

		fmt.Fprintf(out, "Stopping daemon (PID: %d)...\n", pid)
		if err := dm.Stop(); err != nil {
			return fmt.Errorf("failed to stop daemon: %w", err)
		}
		fmt.Fprintln(out, "Daemon stopped successfully")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status, the active window and today's totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		dm := daemon.New(a.cfg.Daemon.PIDFile)
		running, pid, err := dm.IsRunning()
		if err != nil {
			return fmt.Errorf("failed to check daemon status: %w", err)
		}

		if running {
			fmt.Fprintf(out, "Status: Running (PID: %d)\n", pid)
			fmt.Fprintf(out, "Tick Period: %v\n", a.cfg.Tracker.TickPeriod)
			fmt.Fprintf(out, "Flush Interval: %v\n", a.cfg.Tracker.FlushInterval)
		} else {
			fmt.Fprintln(out, "Status: Not running")
		}

		rep := reporter.New(a.cfg, a.repo, a.logger)
		if report, err := rep.DailyReport(""); err == nil {
			fmt.Fprintf(out, "Today: %s tracked, productivity %s\n",
				utils.FormatHoursMinutes(report.TotalSeconds),
				reporter.RatingStyle(report.Rating).Render(fmt.Sprintf("%.1f%% (%s)", report.Percent, report.Rating)))
		}
		if count, err := a.repo.CountSessions(rep.Today()); err == nil {
			fmt.Fprintf(out, "Sessions Today: %d\n", count)
		}
		if last, err := a.repo.GetLatestSession(); err == nil && last != nil {
			fmt.Fprintf(out, "Last Session: %s [%s] ended %s\n",
				last.AppName, last.Category, last.EndTime.Local().Format(time.DateTime))
		}

		// Current window detection works without the daemon.
		lister, err := detector.New()
		if err != nil {
			fmt.Fprintf(out, "\nCould not detect current window: %v\n", err)
			return nil
		}
		defer lister.Close()

		info, err := lister.ActiveWindow()
		if err == nil && info != nil {
			categorizer, cerr := loadCategorizer(a.cfg.Categories.RulesFile)
			if cerr != nil {
				return cerr
			}
			fmt.Fprintf(out, "\nCurrent Window:\n")
			fmt.Fprintf(out, "  App: %s\n", info.AppName)
			fmt.Fprintf(out, "  Process: %s\n", info.ProcessName)
			fmt.Fprintf(out, "  Title: %s\n", info.Title)
			fmt.Fprintf(out, "  Category: %s\n", categorizer.Categorize(info.Title, info.ProcessName))
			fmt.Fprintf(out, "  Display: %s\n", info.DisplayServer)
		}
		return nil
	},
}

func init() {
	startCmd.Flags().BoolVar(&withWeb, "web", false, "Also serve the web API")
	runCmd.Flags().BoolVar(&withWeb, "web", false, "Also serve the web API")
	for _, c := range []*cobra.Command{startCmd, serveCmd, runCmd} {
		c.Flags().IntVarP(&webPort, "port", "p", 0, "Web server port (overrides config)")
	}

	rootCmd.AddCommand(startCmd, serveCmd, runCmd, stopCmd, statusCmd)
}

func loadCategorizer(rulesFile string) (*category.Categorizer, error) {
	rules, err := category.LoadRules(rulesFile)
	if err != nil {
		return nil, err
	}
	return category.New(rules), nil
}

// startDaemon forks a detached child unless this process already is one.
func startDaemon(cmd *cobra.Command, serveWeb bool) error {
	if daemon.IsChild() {
		return runTracker(serveWeb)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("%w (PID: %d)", daemon.ErrAlreadyRunning, pid)
	}

	childPID, err := daemon.Spawn(os.Args[1:])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Daemon started successfully (PID: %d)\n", childPID)
	if serveWeb {
		port := cfg.Web.Port
		if webPort > 0 {
			port = webPort
		}
		fmt.Fprintf(out, "Web API available at: http://%s:%d\n", cfg.Web.Host, port)
	}
	fmt.Fprintf(out, "Logs: %s\n", cfg.Daemon.LogFile)
	fmt.Fprintf(out, "Stop with: %s stop\n", appName)
	return nil
}

// runTracker runs the tick loop in this process until SIGINT or SIGTERM.
func runTracker(serveWeb bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	dm := daemon.New(a.cfg.Daemon.PIDFile)
	if err := dm.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := dm.RemovePID(); err != nil {
			logger.Warn("failed to remove PID file", "err", err)
		}
	}()

	categorizer, err := loadCategorizer(a.cfg.Categories.RulesFile)
	if err != nil {
		return err
	}

	rep := reporter.New(a.cfg, a.repo, logger)
	if rollover, err := rep.RollOver(); err != nil {
		logger.Error("day rollover failed", "err", err)
	} else if rollover.Previous != rollover.Today {
		logger.Info("new day", "previous", rollover.Previous, "today", rollover.Today,
			"scored", len(rollover.Scored), "purged", rollover.Purged)
	}

	lister, err := detector.New()
	if err != nil {
		return fmt.Errorf("failed to initialize window lister: %w", err)
	}
	defer lister.Close()

	svc := tracker.NewService(a.cfg, a.repo, lister, categorizer, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var server *web.Server
	if serveWeb {
		handler := web.NewHandler(a.cfg, a.repo, rep, svc, logger)
		server = web.NewServer(a.cfg, handler, webPort, logger)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("web server error", "err", err)
				cancel()
			}
		}()
	}

	logger.Info("starting deskflow", "pid", os.Getpid())
	logger.Debug(a.cfg.String())

	err = svc.Start(ctx)

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("web server shutdown error", "err", err)
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("tracker error: %w", err)
	}

	logger.Info("daemon stopped successfully")
	return nil
}
