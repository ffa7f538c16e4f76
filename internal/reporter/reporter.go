package reporter

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/deskflow/deskflow/internal/aggregator"
	"github.com/deskflow/deskflow/internal/config"
	"github.com/deskflow/deskflow/internal/models"
)

// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// ErrInvalidPercent is returned when a stored score is outside [0, 100].
var ErrInvalidPercent = errors.New("percent must be between 0 and 100")

// Store is the persistence the reporter reads from and writes scores to.
type Store interface {
	SessionsForDate(date string) ([]models.Session, error)
	SessionDatesBefore(date string) ([]string, error)
	PurgeSessionsBefore(date string) (int64, error)
	UpsertScore(date string, percent float64, rating string) error
	ScoresBetween(from, to string) ([]models.ProductivityScore, error)
	LastProcessedDate() (string, error)
	SetLastProcessedDate(date string) error
}

// Reporter handles summaries, scores and report generation
type Reporter struct {
	config *config.Config
	repo   Store
	logger *log.Logger

	Now func() time.Time
}

// New creates a new reporter
func New(cfg *config.Config, repo Store, logger *log.Logger) *Reporter {
	return &Reporter{
		config: cfg,
		repo:   repo,
		logger: logger,
		Now:    time.Now,
	}
}

// Today returns the current local date.
func (r *Reporter) Today() string {
	return models.DateOf(r.Now())
}

// ResolveDate validates date, substituting today for "".
func (r *Reporter) ResolveDate(date string) (string, error) {
	if date == "" {
		return r.Today(), nil
	}
	if _, err := models.ParseDate(date); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return date, nil
}

// GetCategorySummary sums the sessions of date per category.
func (r *Reporter) GetCategorySummary(date string) (aggregator.CategorySummary, error) {
	date, err := r.ResolveDate(date)
	if err != nil {
		return nil, err
	}

	sessions, err := r.repo.SessionsForDate(date)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return aggregator.Summarize(sessions), nil
}

// ComputeAndStoreScore scores date from its sessions and stores the result,
// replacing any earlier score for the same date.
func (r *Reporter) ComputeAndStoreScore(date string) (*models.ProductivityScore, error) {
	date, err := r.ResolveDate(date)
	if err != nil {
		return nil, err
	}

	summary, err := r.GetCategorySummary(date)
	if err != nil {
		return nil, err
	}

	percent, rating := aggregator.Score(summary)
	if err := r.repo.UpsertScore(date, percent, rating); err != nil {
		return nil, fmt.Errorf("failed to store score: %w", err)
	}

	return &models.ProductivityScore{
		Date:      date,
		Percent:   percent,
		Rating:    rating,
		UpdatedAt: r.Now(),
	}, nil
}

// StoreScore records an externally computed percentage for date.
func (r *Reporter) StoreScore(date string, percent float64) (*models.ProductivityScore, error) {
	date, err := r.ResolveDate(date)
	if err != nil {
		return nil, err
	}
	if percent < 0 || percent > 100 {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidPercent, percent)
	}

	rating := aggregator.Rating(percent)
	if err := r.repo.UpsertScore(date, percent, rating); err != nil {
		return nil, fmt.Errorf("failed to store score: %w", err)
	}

	return &models.ProductivityScore{
		Date:      date,
		Percent:   percent,
		Rating:    rating,
		UpdatedAt: r.Now(),
	}, nil
}

// Scores lists stored scores for dates in [from, to]. Empty bounds default
// to the last seven days ending today.
func (r *Reporter) Scores(from, to string) ([]models.ProductivityScore, error) {
	to, err := r.ResolveDate(to)
	if err != nil {
		return nil, err
	}
	if from == "" {
		end, _ := models.ParseDate(to)
		from = end.AddDate(0, 0, -6).Format(models.DateLayout)
	} else if from, err = r.ResolveDate(from); err != nil {
		return nil, err
	}

	scores, err := r.repo.ScoresBetween(from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}
	return scores, nil
}

// DailyReport builds the category breakdown and score of date without storing anything.
func (r *Reporter) DailyReport(date string) (*models.DailyReport, error) {
	date, err := r.ResolveDate(date)
	if err != nil {
		return nil, err
	}

	sessions, err := r.repo.SessionsForDate(date)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	summary := aggregator.Summarize(sessions)
	percent, rating := aggregator.Score(summary)
	total := summary.Total()

	return &models.DailyReport{
		Date:         date,
		Categories:   aggregator.Breakdown(summary),
		Summary:      summary,
		TotalSeconds: total,
		TotalHours:   float64(total) / 3600.0,
		SessionCount: len(sessions),
		Percent:      percent,
		Rating:       rating,
		GeneratedAt:  r.Now(),
	}, nil
}

// Rollover is the outcome of RollOver.
type Rollover struct {
	Previous string   // marker found on entry, "" on first run
	Today    string   // marker stored on exit
	Scored   []string // dates whose score was computed
	Purged   int64    // sessions deleted
}

// RollOver runs once at tracker start. When the stored day marker is not
// today it scores the unscored days since the marker, purges sessions older
// than the retention window and moves the marker to today.
func (r *Reporter) RollOver() (*Rollover, error) {
	today := r.Today()

	last, err := r.repo.LastProcessedDate()
	if err != nil {
		return nil, fmt.Errorf("failed to read day marker: %w", err)
	}

	result := &Rollover{Previous: last, Today: today}
	if last == today {
		return result, nil
	}

	dates, err := r.repo.SessionDatesBefore(today)
	if err != nil {
		return nil, err
	}
	for _, date := range dates {
		if date < last {
			continue
		}
		score, err := r.ComputeAndStoreScore(date)
		if err != nil {
			return nil, err
		}
		result.Scored = append(result.Scored, date)
		r.logger.Info("scored previous day", "date", date, "percent", fmt.Sprintf("%.1f", score.Percent), "rating", score.Rating)
	}

	todayStart, _ := models.ParseDate(today)
	cutoff := todayStart.AddDate(0, 0, -r.config.Database.RetentionDays).Format(models.DateLayout)
	purged, err := r.repo.PurgeSessionsBefore(cutoff)
	if err != nil {
		return nil, err
	}
	result.Purged = purged
	if purged > 0 {
		r.logger.Info("purged old sessions", "before", cutoff, "count", purged)
	}

	if err := r.repo.SetLastProcessedDate(today); err != nil {
		return nil, fmt.Errorf("failed to store day marker: %w", err)
	}
	return result, nil
}
