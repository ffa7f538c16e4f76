package database

import (
	"time"

	"github.com/deskflow/deskflow/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrScoreNotFound is returned when no score has been stored for a date.
var ErrScoreNotFound = errors.New("productivity score not found")

// Repository is the durable sink for sessions, scores and bookkeeping state.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// AppendSession stores a completed session. Appending the same session ID
// twice is a no-op, so a retried write never double counts.
func (r *Repository) AppendSession(session *models.Session) error {
	if session.Date == "" {
		session.Date = models.DateOf(session.StartTime)
	}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(session)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert session")
	}
	return nil
}

// SessionsForDate returns every session whose start falls on date.
func (r *Repository) SessionsForDate(date string) ([]models.Session, error) {
	var sessions []models.Session
	result := r.db.Where("date = ?", date).Order("start_time ASC").Find(&sessions)
	if result.Error != nil {
		return nil, errors.Wrapf(result.Error, "failed to query sessions for %s", date)
	}
	return sessions, nil
}

// CountSessions returns the number of sessions stored for date.
func (r *Repository) CountSessions(date string) (int64, error) {
	var count int64
	result := r.db.Model(&models.Session{}).Where("date = ?", date).Count(&count)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to count sessions")
	}
	return count, nil
}

// GetLatestSession retrieves the most recently ended session
func (r *Repository) GetLatestSession() (*models.Session, error) {
	var session models.Session
	result := r.db.Order("end_time DESC").First(&session)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest session")
	}
	return &session, nil
}

// SessionDatesBefore lists the distinct dates with sessions strictly before date, oldest first.
func (r *Repository) SessionDatesBefore(date string) ([]string, error) {
	var dates []string
	result := r.db.Model(&models.Session{}).
		Where("date < ?", date).
		Distinct("date").
		Order("date ASC").
		Pluck("date", &dates)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to list session dates")
	}
	return dates, nil
}

// PurgeSessionsBefore deletes sessions dated strictly before date.
func (r *Repository) PurgeSessionsBefore(date string) (int64, error) {
	result := r.db.Where("date < ?", date).Delete(&models.Session{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to purge old sessions")
	}
	return result.RowsAffected, nil
}

// UpsertScore stores the score for date, replacing any previous value.
func (r *Repository) UpsertScore(date string, percent float64, rating string) error {
	score := &models.ProductivityScore{
		Date:      date,
		Percent:   percent,
		Rating:    rating,
		UpdatedAt: time.Now(),
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"percent", "rating", "updated_at"}),
	}).Create(score)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to store productivity score")
	}
	return nil
}

// GetScore returns the stored score for date, or ErrScoreNotFound.
func (r *Repository) GetScore(date string) (*models.ProductivityScore, error) {
	var score models.ProductivityScore
	result := r.db.Where("date = ?", date).First(&score)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrScoreNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get productivity score")
	}
	return &score, nil
}

// ScoresBetween returns scores for dates in [from, to], oldest first.
func (r *Repository) ScoresBetween(from, to string) ([]models.ProductivityScore, error) {
	var scores []models.ProductivityScore
	result := r.db.Where("date >= ? AND date <= ?", from, to).Order("date ASC").Find(&scores)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query productivity scores")
	}
	return scores, nil
}

// LastProcessedDate returns the stored day marker, or "" if none is set.
func (r *Repository) LastProcessedDate() (string, error) {
	var state models.AppState
	result := r.db.Where("state_key = ?", models.StateLastProcessedDate).First(&state)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", errors.Wrap(result.Error, "failed to read last processed date")
	}
	return state.Value, nil
}

// SetLastProcessedDate stores the day marker.
func (r *Repository) SetLastProcessedDate(date string) error {
	state := &models.AppState{Key: models.StateLastProcessedDate, Value: date, UpdatedAt: time.Now()}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(state)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to store last processed date")
	}
	return nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// RecentErrors returns the newest error logs, newest first.
func (r *Repository) RecentErrors(limit int) ([]models.ErrorLog, error) {
	var logs []models.ErrorLog
	result := r.db.Order("timestamp DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// Clear removes all sessions and scores from the database
func (r *Repository) Clear() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM sessions").Error; err != nil {
			return errors.Wrap(err, "failed to clear sessions")
		}
		if err := tx.Exec("DELETE FROM productivity_scores").Error; err != nil {
			return errors.Wrap(err, "failed to clear productivity scores")
		}
		return nil
	})
}
