package model

import (
	"time"
)

const (
	AchievementTypeDailyGoal = "daily_goal"
	AchievementTypeBadge     = "badge"
)

// AchievementRecord is a server-side award. Daily goal records are written
// by the intake service; badge records mirror unlocks from a session.
type AchievementRecord struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Type        string    `db:"type" json:"type"`
	Code        string    `db:"code" json:"code,omitempty"` // badge definition id, empty for daily goals
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Icon        string    `db:"icon" json:"icon"`
	DateKey     string    `db:"date_key" json:"date_key"`
	UnlockedAt  time.Time `db:"unlocked_at" json:"unlocked_at"`
}
