package model

import (
	"time"
)

var AnalyticsPeriods = []int{7, 30, 90}

// AnalyticsSnapshot stores a computed summary as JSON so old reports stay
// readable after the summary shape changes.
type AnalyticsSnapshot struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	StartDate string    `db:"start_date" json:"start_date"`
	Period    int       `db:"period" json:"period"`
	Payload   string    `db:"payload" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
