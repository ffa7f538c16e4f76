// Package aggregator reduces sessions into per-category totals and a
// productivity score.
package aggregator

import (
	"sort"

	"github.com/deskflow/deskflow/internal/models"
)

// CategorySummary maps a category label to accumulated seconds.
type CategorySummary map[string]int64

// Rating labels, best first.
const (
	RatingExcellent  = "Excellent"
	RatingGood       = "Good"
	RatingAverage    = "Average"
	RatingNeedsFocus = "Needs Focus"
)

// ProductiveCategories is the allow-list of categories counted as productive.
var ProductiveCategories = map[string]bool{
	"Work":        true,
	"Development": true,
	"Education":   true,
	"Research":    true,
	"Writing":     true,
	"Tools":       true,
	"System":      true,
}

// IsProductive reports whether category is on the allow-list.
func IsProductive(category string) bool {
	return ProductiveCategories[category]
}

// Summarize sums session durations per category. Negative durations count as zero.
func Summarize(sessions []models.Session) CategorySummary {
	summary := make(CategorySummary)
	for _, s := range sessions {
		summary[s.Category] += s.Seconds()
	}
	return summary
}

// Total returns the sum of all categories.
func (s CategorySummary) Total() int64 {
	var total int64
	for _, v := range s {
		total += v
	}
	return total
}

// Productive returns the seconds spent in allow-listed categories.
func (s CategorySummary) Productive() int64 {
	var productive int64
	for category, v := range s {
		if IsProductive(category) {
			productive += v
		}
	}
	return productive
}

// Score returns the productive share of the summary as a percentage along
// with its rating. An empty summary scores 0.
func Score(summary CategorySummary) (float64, string) {
	total := summary.Total()
	if total <= 0 {
		return 0, Rating(0)
	}
	percent := float64(summary.Productive()) / float64(total) * 100
	return percent, Rating(percent)
}

// Rating maps a percentage to its qualitative label. Thresholds are inclusive.
func Rating(percent float64) string {
	switch {
	case percent >= 90:
		return RatingExcellent
	case percent >= 70:
		return RatingGood
	case percent >= 50:
		return RatingAverage
	default:
		return RatingNeedsFocus
	}
}

// Breakdown lists categories by time spent, largest first, ties by name.
func Breakdown(summary CategorySummary) []models.CategoryTotal {
	total := summary.Total()
	out := make([]models.CategoryTotal, 0, len(summary))
	for category, secs := range summary {
		ct := models.CategoryTotal{
			Category:     category,
			TotalSeconds: secs,
			TotalMinutes: float64(secs) / 60.0,
			Productive:   IsProductive(category),
		}
		if total > 0 {
			ct.Percentage = float64(secs) / float64(total) * 100.0
		}
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSeconds != out[j].TotalSeconds {
			return out[i].TotalSeconds > out[j].TotalSeconds
		}
		return out[i].Category < out[j].Category
	})
	return out
}
