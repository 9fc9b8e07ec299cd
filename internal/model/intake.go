package model

import (
	"time"
)

type Intake struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	ClientID    *string   `db:"client_id" json:"client_id,omitempty"` // id the client used before the add was confirmed
	AmountMl    int       `db:"amount_ml" json:"amount_ml"`
	TimestampMs int64     `db:"timestamp_ms" json:"timestamp_ms"`
	DateKey     string    `db:"date_key" json:"date_key"` // YYYY-MM-DD in the user's time zone
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DailyTotal is one row of a per-day aggregation.
type DailyTotal struct {
	DateKey     string `db:"date_key" json:"date_key"`
	TotalMl     int    `db:"total_ml" json:"total_ml"`
	IntakeCount int    `db:"intake_count" json:"intake_count"`
}
