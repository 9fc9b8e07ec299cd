package model

import (
	"time"
)

const DefaultReminderInterval = 60

type ReminderSettings struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	IntervalMinutes int        `db:"interval_minutes" json:"interval_minutes"`
	EmailEnabled    bool       `db:"email_enabled" json:"email_enabled"`
	LastReminder    *time.Time `db:"last_reminder" json:"last_reminder,omitempty"`
	NextReminder    *time.Time `db:"next_reminder" json:"next_reminder,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

type Alarm struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Time      string    `db:"time" json:"time"` // HH:MM
	Enabled   bool      `db:"enabled" json:"enabled"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
