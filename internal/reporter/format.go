package reporter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/deskflow/deskflow/internal/aggregator"
	"github.com/deskflow/deskflow/internal/models"
	"github.com/deskflow/deskflow/pkg/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	productiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var ratingColors = map[string]lipgloss.Color{
	aggregator.RatingExcellent:  lipgloss.Color("42"),
	aggregator.RatingGood:       lipgloss.Color("114"),
	aggregator.RatingAverage:    lipgloss.Color("214"),
	aggregator.RatingNeedsFocus: lipgloss.Color("203"),
}

// RatingStyle returns the display style for a rating label.
func RatingStyle(rating string) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	if c, ok := ratingColors[rating]; ok {
		style = style.Foreground(c)
	}
	return style
}

// FormatText formats the report as human-readable text
func FormatText(report *models.DailyReport) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Activity Report - "+report.Date) + "\n")
	fmt.Fprintf(&b, "Total Time: %s (%d sessions)\n",
		utils.FormatHoursMinutes(report.TotalSeconds), report.SessionCount)
	fmt.Fprintf(&b, "Productivity: %s\n\n",
		RatingStyle(report.Rating).Render(fmt.Sprintf("%.1f%% (%s)", report.Percent, report.Rating)))

	if len(report.Categories) == 0 {
		b.WriteString("No activity recorded for this date.\n")
		return b.String()
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-20s %10s %9s", "Category", "Time", "Percent")) + "\n")
	b.WriteString(dimStyle.Render(strings.Repeat("-", 41)) + "\n")

	for _, c := range report.Categories {
		line := fmt.Sprintf("%-20s %10s %8.1f%%",
			truncate(c.Category, 20),
			utils.FormatHoursMinutes(c.TotalSeconds),
			c.Percentage)
		if c.Productive {
			line = productiveStyle.Render(line + " *")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + dimStyle.Render("* counted as productive") + "\n")
	return b.String()
}

// FormatJSON formats the report as JSON
func FormatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// FormatYAML formats the report as YAML
func FormatYAML(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return string(data), nil
}

// Format renders v as text, json or yaml. Text is only defined for daily reports.
func Format(v any, format string) (string, error) {
	switch format {
	case "", "text":
		report, ok := v.(*models.DailyReport)
		if !ok {
			return FormatJSON(v)
		}
		return FormatText(report), nil
	case "json":
		return FormatJSON(v)
	case "yaml", "yml":
		return FormatYAML(v)
	default:
		return "", fmt.Errorf("unknown format %q (valid: text, json, yaml)", format)
	}
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
