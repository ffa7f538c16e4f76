package reporter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/deskflow/internal/aggregator"
	"github.com/deskflow/deskflow/internal/config"
	"github.com/deskflow/deskflow/internal/database"
	"github.com/deskflow/deskflow/internal/logging"
	"github.com/deskflow/deskflow/internal/models"
)

func newTestReporter(t *testing.T) (*Reporter, *database.Repository) {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "deskflow.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { _ = db.Close() })

	repo := database.NewRepository(db)
	r := New(config.Default(), repo, logging.Discard())
	r.Now = func() time.Time { return localTime("2026-10-15", 10, 0, 0) }
	return r, repo
}

func localTime(date string, hour, min, sec int) time.Time {
	d, err := models.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute + time.Duration(sec)*time.Second)
}

func addSession(t *testing.T, repo *database.Repository, date, category string, seconds int) {
	t.Helper()
	start := localTime(date, 9, 0, 0)
	s := models.NewSession("app", "title", category, start, start.Add(time.Duration(seconds)*time.Second))
	require.NoError(t, repo.AppendSession(&s))
}

func TestGetCategorySummary(t *testing.T) {
	r, repo := newTestReporter(t)
	addSession(t, repo, "2026-10-15", "Work", 60)
	addSession(t, repo, "2026-10-15", "Work", 30)
	addSession(t, repo, "2026-10-15", "Music", 10)
	addSession(t, repo, "2026-10-14", "Gaming", 500)

	summary, err := r.GetCategorySummary("")
	require.NoError(t, err)
	assert.Equal(t, aggregator.CategorySummary{"Work": 90, "Music": 10}, summary)

	summary, err = r.GetCategorySummary("2026-10-14")
	require.NoError(t, err)
	assert.Equal(t, aggregator.CategorySummary{"Gaming": 500}, summary)
}

func TestInvalidDate(t *testing.T) {
	r, _ := newTestReporter(t)

	_, err := r.GetCategorySummary("15/10/2026")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = r.ComputeAndStoreScore("2026-13-01")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestComputeAndStoreScore(t *testing.T) {
	r, repo := newTestReporter(t)
	addSession(t, repo, "2026-10-15", "Work", 60)
	addSession(t, repo, "2026-10-15", "Gaming", 60)

	score, err := r.ComputeAndStoreScore("2026-10-15")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, score.Percent, 1e-9)
	assert.Equal(t, aggregator.RatingAverage, score.Rating)

	addSession(t, repo, "2026-10-15", "Research", 120)
	_, err = r.ComputeAndStoreScore("2026-10-15")
	require.NoError(t, err)

	stored, err := repo.GetScore("2026-10-15")
	require.NoError(t, err)
	assert.InDelta(t, 75.0, stored.Percent, 1e-9)
	assert.Equal(t, aggregator.RatingGood, stored.Rating)
}

func TestComputeAndStoreScoreEmptyDay(t *testing.T) {
	r, repo := newTestReporter(t)

	score, err := r.ComputeAndStoreScore("2026-10-01")
	require.NoError(t, err)
	assert.Zero(t, score.Percent)
	assert.Equal(t, aggregator.RatingNeedsFocus, score.Rating)

	_, err = repo.GetScore("2026-10-01")
	assert.NoError(t, err)
}

func TestStoreScore(t *testing.T) {
	r, repo := newTestReporter(t)

	score, err := r.StoreScore("", 92.5)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15", score.Date)
	assert.Equal(t, aggregator.RatingExcellent, score.Rating)

	stored, err := repo.GetScore("2026-10-15")
	require.NoError(t, err)
	assert.InDelta(t, 92.5, stored.Percent, 1e-9)

	_, err = r.StoreScore("", 101)
	assert.ErrorIs(t, err, ErrInvalidPercent)
}

func TestScoresDefaultRange(t *testing.T) {
	r, repo := newTestReporter(t)
	require.NoError(t, repo.UpsertScore("2026-10-01", 10, aggregator.RatingNeedsFocus))
	require.NoError(t, repo.UpsertScore("2026-10-09", 60, aggregator.RatingAverage))
	require.NoError(t, repo.UpsertScore("2026-10-15", 80, aggregator.RatingGood))

	scores, err := r.Scores("", "")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "2026-10-09", scores[0].Date)
	assert.Equal(t, "2026-10-15", scores[1].Date)
}

func TestDailyReport(t *testing.T) {
	r, repo := newTestReporter(t)
	addSession(t, repo, "2026-10-15", "Music", 30)
	addSession(t, repo, "2026-10-15", "Work", 90)

	report, err := r.DailyReport("")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15", report.Date)
	assert.Equal(t, 2, report.SessionCount)
	assert.Equal(t, int64(120), report.TotalSeconds)
	assert.InDelta(t, 75.0, report.Percent, 1e-9)
	require.Len(t, report.Categories, 2)
	assert.Equal(t, "Work", report.Categories[0].Category)
	assert.True(t, report.Categories[0].Productive)

	_, err = repo.GetScore("2026-10-15")
	assert.ErrorIs(t, err, database.ErrScoreNotFound)
}

func TestRollOverFirstRun(t *testing.T) {
	r, repo := newTestReporter(t)
	r.config.Database.RetentionDays = 0
	addSession(t, repo, "2026-10-13", "Work", 60)
	addSession(t, repo, "2026-10-14", "Gaming", 60)
	addSession(t, repo, "2026-10-15", "Work", 60)

	result, err := r.RollOver()
	require.NoError(t, err)
	assert.Equal(t, "", result.Previous)
	assert.Equal(t, []string{"2026-10-13", "2026-10-14"}, result.Scored)
	assert.Equal(t, int64(2), result.Purged)

	marker, err := repo.LastProcessedDate()
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15", marker)

	score, err := repo.GetScore("2026-10-14")
	require.NoError(t, err)
	assert.Zero(t, score.Percent)

	left, err := repo.SessionsForDate("2026-10-15")
	require.NoError(t, err)
	assert.Len(t, left, 1)

	again, err := r.RollOver()
	require.NoError(t, err)
	assert.Empty(t, again.Scored)
	assert.Zero(t, again.Purged)
}

func TestRollOverKeepsRetentionWindow(t *testing.T) {
	r, repo := newTestReporter(t)
	r.config.Database.RetentionDays = 1
	require.NoError(t, repo.SetLastProcessedDate("2026-10-14"))
	addSession(t, repo, "2026-10-13", "Work", 60)
	addSession(t, repo, "2026-10-14", "Work", 60)

	result, err := r.RollOver()
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14", result.Previous)
	assert.Equal(t, []string{"2026-10-14"}, result.Scored)
	assert.Equal(t, int64(1), result.Purged)

	_, err = repo.GetScore("2026-10-13")
	assert.ErrorIs(t, err, database.ErrScoreNotFound)

	kept, err := repo.SessionsForDate("2026-10-14")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}
