package model

import "time"

const (
	ActivityLow      = "low"
	ActivityModerate = "moderate"
	ActivityHigh     = "high"

	ClimateCool      = "cool"
	ClimateTemperate = "temperate"
	ClimateHot       = "hot"

	DefaultDailyGoalMl = 2500
)

// Profile holds the hydration settings of a user. DailyGoalMl is the stored
// goal; CustomGoal marks it as set by hand rather than derived from weight.
type Profile struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Name          string    `db:"name" json:"name"`
	WeightKg      *float64  `db:"weight_kg" json:"weight_kg,omitempty"`
	ActivityLevel string    `db:"activity_level" json:"activity_level"`
	Climate       string    `db:"climate" json:"climate"`
	DailyGoalMl   int       `db:"daily_goal_ml" json:"daily_goal_ml"`
	CustomGoal    bool      `db:"custom_goal" json:"custom_goal"`
	TimeZone      string    `db:"time_zone" json:"time_zone"`
	SoundEnabled  bool      `db:"sound_enabled" json:"sound_enabled"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

func ValidActivityLevel(s string) bool {
	return s == ActivityLow || s == ActivityModerate || s == ActivityHigh
}

func ValidClimate(s string) bool {
	return s == ClimateCool || s == ClimateTemperate || s == ClimateHot
}
