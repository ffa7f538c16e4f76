package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar-date format used to partition sessions and scores.
const DateLayout = "2006-01-02"

// Session is a finished, immutable span of time a window was visible.
type Session struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id" yaml:"id"`
	AppName     string    `gorm:"not null;index" json:"app_name" yaml:"app_name"`
	WindowTitle string    `gorm:"not null" json:"window_title" yaml:"window_title"`
	Category    string    `gorm:"not null;index" json:"category" yaml:"category"`
	StartTime   time.Time `gorm:"not null" json:"start_time" yaml:"start_time"`
	EndTime     time.Time `gorm:"not null" json:"end_time" yaml:"end_time"`
	Date        string    `gorm:"not null;index;size:10" json:"date" yaml:"date"` // local date of StartTime
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-" yaml:"-"`
}

// NewSession builds a Session with a fresh ID. An end before start (clock
// moved backwards) is clamped to start.
func NewSession(appName, windowTitle, category string, start, end time.Time) Session {
	if end.Before(start) {
		end = start
	}
	return Session{
		ID:          uuid.NewString(),
		AppName:     appName,
		WindowTitle: windowTitle,
		Category:    category,
		StartTime:   start,
		EndTime:     end,
		Date:        DateOf(start),
	}
}

// Duration is EndTime-StartTime, never negative.
func (s Session) Duration() time.Duration {
	d := s.EndTime.Sub(s.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// Seconds is Duration in whole seconds.
func (s Session) Seconds() int64 {
	return int64(s.Duration() / time.Second)
}

// DateOf returns the local calendar date of t.
func DateOf(t time.Time) string {
	return t.In(time.Local).Format(DateLayout)
}

// ParseDate validates a YYYY-MM-DD date in local time.
func ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, time.Local)
}
