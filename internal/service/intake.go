package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/templui/hydrate/internal/model"
	"github.com/templui/hydrate/internal/repository"
	"github.com/templui/hydrate/internal/tracker"
	"github.com/templui/hydrate/internal/validation"
)

const weekWindow = 7 * 24 * time.Hour

// TodayStats summarizes the current day on the server.
type TodayStats struct {
	TotalToday  int    `json:"total_today"`
	LastIntake  *int64 `json:"last_intake,omitempty"` // epoch ms
	IntakeCount int    `json:"intake_count"`
}

type DeleteResult struct {
	Success bool `json:"success"`
}

type IntakeService struct {
	intakeRepository      repository.IntakeRepository
	profileRepository     repository.ProfileRepository
	achievementRepository repository.AchievementRepository
	defaultLocation       *time.Location
	now                   func() time.Time
}

func NewIntakeService(
	intakeRepository repository.IntakeRepository,
	profileRepository repository.ProfileRepository,
	achievementRepository repository.AchievementRepository,
	defaultLocation *time.Location,
) *IntakeService {
	if defaultLocation == nil {
		defaultLocation = time.UTC
	}
	return &IntakeService{
		intakeRepository:      intakeRepository,
		profileRepository:     profileRepository,
		achievementRepository: achievementRepository,
		defaultLocation:       defaultLocation,
		now:                   time.Now,
	}
}

// Location returns the time zone that defines a user's days.
func (s *IntakeService) Location(ctx context.Context, userID string) *time.Location {
	profile, err := s.profileRepository.ByUserID(ctx, userID)
	if err != nil || profile.TimeZone == "" {
		return s.defaultLocation
	}
	loc, err := time.LoadLocation(profile.TimeZone)
	if err != nil {
		return s.defaultLocation
	}
	return loc
}

// AddIntake stores an intake at `at` (now when zero) and, when the day's total
// reaches the stored goal, records that day's goal achievement once.
func (s *IntakeService) AddIntake(ctx context.Context, userID string, amountMl int, at time.Time) (*model.Intake, error) {
	return s.AddClientIntake(ctx, userID, "", amountMl, at)
}

// AddClientIntake is AddIntake keyed by the id the client gave the event.
// Repeating a call with the same clientID returns the stored intake instead of
// adding a second one.
func (s *IntakeService) AddClientIntake(ctx context.Context, userID, clientID string, amountMl int, at time.Time) (*model.Intake, error) {
	err := validation.ValidateAmount(amountMl)
	if err != nil {
		return nil, err
	}
	if clientID != "" {
		existing, err := s.intakeRepository.ByClientID(ctx, userID, clientID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repository.ErrIntakeNotFound) {
			return nil, fmt.Errorf("failed to look up intake: %w", err)
		}
	}
	if at.IsZero() {
		at = s.now()
	}

	loc := s.Location(ctx, userID)
	intake := &model.Intake{
		ID:          uuid.New().String(),
		UserID:      userID,
		AmountMl:    amountMl,
		TimestampMs: at.UnixMilli(),
		DateKey:     tracker.DateKey(at.UnixMilli(), loc),
		CreatedAt:   s.now(),
	}
	if clientID != "" {
		intake.ClientID = &clientID
	}

	err = s.intakeRepository.Create(ctx, intake)
	if errors.Is(err, repository.ErrDuplicateClientID) {
		// a concurrent retry of the same add won
		return s.intakeRepository.ByClientID(ctx, userID, clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create intake: %w", err)
	}

	err = s.awardDailyGoal(ctx, userID, intake.DateKey)
	if err != nil {
		// the intake is stored; a missing award is not worth failing the add
		slog.Error("failed to award daily goal", "error", err, "user_id", userID, "date", intake.DateKey)
	}

	return intake, nil
}

func (s *IntakeService) awardDailyGoal(ctx context.Context, userID, dateKey string) error {
	profile, err := s.profileRepository.ByUserID(ctx, userID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	total, err := s.intakeRepository.DayTotal(ctx, userID, dateKey)
	if err != nil {
		return err
	}
	if profile.DailyGoalMl <= 0 || total < profile.DailyGoalMl {
		return nil
	}

	_, err = s.achievementRepository.ForDate(ctx, userID, model.AchievementTypeDailyGoal, dateKey)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrAchievementNotFound) {
		return err
	}

	return s.achievementRepository.Create(ctx, &model.AchievementRecord{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        model.AchievementTypeDailyGoal,
		Title:       "Daily Goal Achieved!",
		Description: fmt.Sprintf("Reached your daily goal of %dml", profile.DailyGoalMl),
		Icon:        "trophy",
		DateKey:     dateKey,
		UnlockedAt:  s.now(),
	})
}

func (s *IntakeService) TodayIntakes(ctx context.Context, userID string) ([]*model.Intake, error) {
	today := tracker.DateKey(s.now().UnixMilli(), s.Location(ctx, userID))
	return s.intakeRepository.ByDate(ctx, userID, today)
}

// WeeklyIntakes returns intakes from the trailing seven days.
func (s *IntakeService) WeeklyIntakes(ctx context.Context, userID string) ([]*model.Intake, error) {
	now := s.now()
	return s.intakeRepository.Between(ctx, userID, now.Add(-weekWindow).UnixMilli(), now.UnixMilli()+1)
}

func (s *IntakeService) DailyStats(ctx context.Context, userID string) (TodayStats, error) {
	intakes, err := s.TodayIntakes(ctx, userID)
	if err != nil {
		return TodayStats{}, err
	}

	var stats TodayStats
	for _, in := range intakes {
		stats.TotalToday += in.AmountMl
		if stats.LastIntake == nil || in.TimestampMs > *stats.LastIntake {
			ts := in.TimestampMs
			stats.LastIntake = &ts
		}
	}
	stats.IntakeCount = len(intakes)
	return stats, nil
}

// DailyTotals returns per-day totals for the last `days` days including today.
func (s *IntakeService) DailyTotals(ctx context.Context, userID string, days int) ([]model.DailyTotal, error) {
	loc := s.Location(ctx, userID)
	now := s.now().In(loc)
	from := now.AddDate(0, 0, -(days - 1)).Format(tracker.DateLayout)
	to := now.Format(tracker.DateLayout)
	return s.intakeRepository.DailyTotals(ctx, userID, from, to)
}

// DeleteIntake removes an intake owned by userID. A missing or foreign intake
// reports Success=false.
func (s *IntakeService) DeleteIntake(ctx context.Context, intakeID, userID string) (DeleteResult, error) {
	err := s.intakeRepository.Delete(ctx, intakeID, userID)
	if errors.Is(err, repository.ErrIntakeNotFound) {
		return DeleteResult{Success: false}, nil
	}
	if err != nil {
		return DeleteResult{}, fmt.Errorf("failed to delete intake: %w", err)
	}
	return DeleteResult{Success: true}, nil
}
