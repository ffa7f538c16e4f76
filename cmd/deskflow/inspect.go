package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deskflow/deskflow/internal/category"
	"github.com/deskflow/deskflow/internal/reporter"
	"github.com/deskflow/deskflow/pkg/detector"
	"github.com/deskflow/deskflow/pkg/integrations/process"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List the windows the tracker would see right now",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		categorizer, err := loadCategorizer(cfg.Categories.RulesFile)
		if err != nil {
			return err
		}

		lister, err := detector.New()
		if err != nil {
			return err
		}
		defer lister.Close()

		keys, err := lister.VisibleWindows()
		if err != nil {
			return fmt.Errorf("failed to list windows: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(keys) == 0 {
			fmt.Fprintln(out, "No visible windows.")
			return nil
		}

		sort.Slice(keys, func(i, j int) bool {
			if keys[i].ProcessName != keys[j].ProcessName {
				return keys[i].ProcessName < keys[j].ProcessName
			}
			return keys[i].Title < keys[j].Title
		})

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROCESS\tCATEGORY\tTITLE")
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%s\t%s\n", k.ProcessName, categorizer.Categorize(k.Title, k.ProcessName), k.Title)
		}
		return w.Flush()
	},
}

var processesCmd = &cobra.Command{
	Use:   "processes",
	Short: "List running user processes",
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := process.NewReader("")
		if !reader.IsAvailable() {
			return fmt.Errorf("process listing needs /proc")
		}

		procs, err := reader.ListProcesses()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PID\tNAME\tCOMMAND")
		for _, p := range procs {
			fmt.Fprintf(w, "%d\t%s\t%s\n", p.PID, p.Name, p.Cmdline)
		}
		return w.Flush()
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Print the active category rules as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		categorizer, err := loadCategorizer(cfg.Categories.RulesFile)
		if err != nil {
			return err
		}

		text, err := reporter.FormatYAML(struct {
			Rules []category.Rule `yaml:"rules"`
		}{Rules: categorizer.Rules()})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(windowsCmd, processesCmd, categoriesCmd)
}
