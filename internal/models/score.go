package models

import "time"

// ProductivityScore is the productive share of one day's tracked time.
// There is at most one row per date; later computations overwrite earlier ones.
type ProductivityScore struct {
	Date      string    `gorm:"primaryKey;size:10" json:"date" yaml:"date"`
	Percent   float64   `gorm:"not null" json:"percent" yaml:"percent"`
	Rating    string    `gorm:"not null;default:''" json:"rating" yaml:"rating"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at" yaml:"updated_at"`
}

// AppState is a small key/value table for process bookkeeping.
type AppState struct {
	Key       string    `gorm:"column:state_key;primaryKey;size:64"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// StateLastProcessedDate marks the last local date the tracker started on.
const StateLastProcessedDate = "last_processed_date"

// CategoryTotal is one category's share of a day.
type CategoryTotal struct {
	Category     string  `json:"category" yaml:"category"`
	TotalSeconds int64   `json:"total_seconds" yaml:"total_seconds"`
	TotalMinutes float64 `json:"total_minutes" yaml:"total_minutes"`
	Percentage   float64 `json:"percentage" yaml:"percentage"`
	Productive   bool    `json:"productive" yaml:"productive"`
}

// DailyReport is the category summary of one date plus its score.
type DailyReport struct {
	Date         string           `json:"date" yaml:"date"`
	Categories   []CategoryTotal  `json:"categories" yaml:"categories"`
	Summary      map[string]int64 `json:"summary" yaml:"summary"`
	TotalSeconds int64            `json:"total_seconds" yaml:"total_seconds"`
	TotalHours   float64          `json:"total_hours" yaml:"total_hours"`
	SessionCount int              `json:"session_count" yaml:"session_count"`
	Percent      float64          `json:"productivity_percent" yaml:"productivity_percent"`
	Rating       string           `json:"rating" yaml:"rating"`
	GeneratedAt  time.Time        `json:"generated_at" yaml:"generated_at"`
}
