package reporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/deskflow/internal/aggregator"
	"github.com/deskflow/deskflow/internal/models"
)

func sampleReport() *models.DailyReport {
	summary := aggregator.CategorySummary{"Work": 5400, "Gaming": 1800}
	percent, rating := aggregator.Score(summary)
	return &models.DailyReport{
		Date:         "2026-10-15",
		Categories:   aggregator.Breakdown(summary),
		Summary:      summary,
		TotalSeconds: summary.Total(),
		SessionCount: 3,
		Percent:      percent,
		Rating:       rating,
	}
}

func TestFormatText(t *testing.T) {
	out := FormatText(sampleReport())

	assert.Contains(t, out, "Activity Report - 2026-10-15")
	assert.Contains(t, out, "2h 00m")
	assert.Contains(t, out, "3 sessions")
	assert.Contains(t, out, "75.0% (Good)")
	assert.Contains(t, out, "Work")
	assert.Contains(t, out, "1h 30m")
	assert.Contains(t, out, "Gaming")
	assert.Contains(t, out, "30m 00s")
}

func TestFormatTextEmpty(t *testing.T) {
	out := FormatText(&models.DailyReport{Date: "2026-10-15", Rating: aggregator.RatingNeedsFocus})
	assert.Contains(t, out, "No activity recorded")
}

func TestFormat(t *testing.T) {
	report := sampleReport()

	js, err := Format(report, "json")
	require.NoError(t, err)
	assert.Contains(t, js, `"productivity_percent": 75`)

	y, err := Format(report, "yaml")
	require.NoError(t, err)
	assert.Contains(t, y, "2026-10-15")
	assert.Contains(t, y, "rating: Good")

	_, err = Format(report, "xml")
	assert.Error(t, err)

	scores := []models.ProductivityScore{{Date: "2026-10-15", Percent: 80, Rating: "Good"}}
	out, err := Format(scores, "text")
	require.NoError(t, err)
	assert.Contains(t, out, `"rating": "Good"`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
