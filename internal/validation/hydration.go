package validation

import (
	"slices"
	"strconv"

	"github.com/templui/hydrate/internal/apperror"
	"github.com/templui/hydrate/internal/model"
)

const (
	MaxIntakeMl    = 5000
	MinDailyGoalMl = 500
	MaxDailyGoalMl = 10000
)

// ValidateAmount accepts a single intake between 1 ml and MaxIntakeMl.
func ValidateAmount(amountMl int) error {
	if amountMl <= 0 {
		return apperror.Validation("invalid_amount", "amount must be a positive number of ml")
	}
	if amountMl > MaxIntakeMl {
		return apperror.Validation("amount_too_large", "amount must not exceed "+strconv.Itoa(MaxIntakeMl)+" ml")
	}
	return nil
}

func ValidateDailyGoal(goalMl int) error {
	if goalMl < MinDailyGoalMl || goalMl > MaxDailyGoalMl {
		return apperror.Validation("invalid_daily_goal", "daily goal must be between 500 and 10000 ml").
			WithMeta("daily_goal_ml", strconv.Itoa(goalMl))
	}
	return nil
}

func ValidateWeight(kg float64) error {
	if kg < 20 || kg > 400 {
		return apperror.Validation("invalid_weight", "weight must be between 20 and 400 kg")
	}
	return nil
}

var ErrInvalidPeriod = apperror.Validation("invalid_period", "period must be 7, 30 or 90 days")

// ValidateAnalyticsPeriod accepts only the periods in model.AnalyticsPeriods.
func ValidateAnalyticsPeriod(days int) error {
	if !slices.Contains(model.AnalyticsPeriods, days) {
		return ErrInvalidPeriod.WithMeta("period", strconv.Itoa(days))
	}
	return nil
}
