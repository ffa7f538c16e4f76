package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deskflow/deskflow/internal/models"
	"github.com/deskflow/deskflow/internal/reporter"
)

var (
	reportDate   string
	reportFormat string
	scoreSet     float64
	scoresFrom   string
	scoresTo     string
	clearYes     bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the category summary of a day",
	Example: `  deskflow report
  deskflow report --date 2025-01-06 --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		rep := reporter.New(a.cfg, a.repo, a.logger)
		report, err := rep.DailyReport(reportDate)
		if err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		text, err := reporter.Format(report, reportFormat)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute and store the productivity score of a day",
	Example: `  deskflow score
  deskflow score --date 2025-01-06
  deskflow score --set 82.5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		rep := reporter.New(a.cfg, a.repo, a.logger)

		var score *models.ProductivityScore
		if cmd.Flags().Changed("set") {
			score, err = rep.StoreScore(reportDate, scoreSet)
		} else {
			score, err = rep.ComputeAndStoreScore(reportDate)
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), formatScore(*score))
		return nil
	},
}

func formatScore(s models.ProductivityScore) string {
	return fmt.Sprintf("%s  %s", s.Date,
		reporter.RatingStyle(s.Rating).Render(fmt.Sprintf("%.1f%% (%s)", s.Percent, s.Rating)))
}

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "List stored productivity scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		rep := reporter.New(a.cfg, a.repo, a.logger)
		scores, err := rep.Scores(scoresFrom, scoresTo)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if reportFormat != "" && reportFormat != "text" {
			text, err := reporter.Format(scores, reportFormat)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, text)
			return nil
		}

		if len(scores) == 0 {
			fmt.Fprintln(out, "No scores stored for this range.")
			return nil
		}
		for _, s := range scores {
			fmt.Fprintln(out, formatScore(s))
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all sessions and scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !clearYes {
			fmt.Fprint(out, "This will delete all tracking data. Are you sure? (yes/no): ")
			response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "yes" && response != "y" {
				fmt.Fprintln(out, "Operation cancelled")
				return nil
			}
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.repo.Clear(); err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}

		fmt.Fprintln(out, "Database cleared successfully")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{reportCmd, scoreCmd} {
		c.Flags().StringVarP(&reportDate, "date", "d", "", "Date as YYYY-MM-DD (default today)")
	}
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "text", "Output format: text, json, yaml")
	scoresCmd.Flags().StringVarP(&reportFormat, "format", "f", "text", "Output format: text, json, yaml")
	scoreCmd.Flags().Float64Var(&scoreSet, "set", 0, "Store this percentage instead of computing it")
	scoresCmd.Flags().StringVar(&scoresFrom, "from", "", "First date (default six days before --to)")
	scoresCmd.Flags().StringVar(&scoresTo, "to", "", "Last date (default today)")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(reportCmd, scoreCmd, scoresCmd, clearCmd)
}
