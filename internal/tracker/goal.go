package tracker

import "math"

const (
	ActivityLow      = "low"
	ActivityModerate = "moderate"
	ActivityHigh     = "high"

	ClimateCool      = "cool"
	ClimateTemperate = "temperate"
	ClimateHot       = "hot"
)

// DefaultDailyGoalMl applies when the user has not set up a profile.
const DefaultDailyGoalMl = 3000

// Profile holds the inputs of the personal goal formula.
type Profile struct {
	WeightKg      float64 `json:"weight_kg"`
	ActivityLevel string  `json:"activity_level"`
	Climate       string  `json:"climate"`
	CustomGoalMl  int     `json:"custom_goal_ml,omitempty"`
}

// DailyGoal returns the daily target in ml for p. A custom goal wins;
// otherwise 35 ml per kg adjusted for activity and climate.
func DailyGoal(p *Profile) int {
	if p == nil {
		return DefaultDailyGoalMl
	}
	if p.CustomGoalMl > 0 {
		return p.CustomGoalMl
	}
	if p.WeightKg <= 0 {
		return DefaultDailyGoalMl
	}

	base := p.WeightKg * 35
	switch p.ActivityLevel {
	case ActivityHigh:
		base *= 1.3
	case ActivityModerate:
		base *= 1.15
	}
	switch p.Climate {
	case ClimateHot:
		base *= 1.2
	case ClimateCool:
		base *= 0.95
	}
	return int(math.Round(base))
}

// Percentage is intake as a share of goal, capped at 100. A non-positive goal
// yields 0.
func Percentage(intakeMl, goalMl int) int {
	if goalMl <= 0 || intakeMl <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(intakeMl) / float64(goalMl)))
	return min(100, p)
}
