package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/templui/hydrate/internal/apperror"
	"github.com/templui/hydrate/internal/model"
	"github.com/templui/hydrate/internal/reminder"
	"github.com/templui/hydrate/internal/repository"
	"github.com/templui/hydrate/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type CreateUserInput struct {
	Name          string
	Email         string
	Password      string   // optional
	WeightKg      *float64 // optional
	ActivityLevel string
	Climate       string
	DailyGoalMl   *int // optional explicit goal
}

// AuthResult mirrors the login response: failures are reported in Error,
// not as a Go error.
type AuthResult struct {
	Success bool        `json:"success"`
	UserID  string      `json:"user_id,omitempty"`
	User    *model.User `json:"-"`
	Error   string      `json:"error,omitempty"`
}

// SettingsUpdate is a partial update; nil fields are left unchanged.
type SettingsUpdate struct {
	Name             *string  `json:"name"`
	DailyGoalMl      *int     `json:"daily_goal_ml"`
	WeightKg         *float64 `json:"weight_kg"`
	ActivityLevel    *string  `json:"activity_level"`
	Climate          *string  `json:"climate"`
	ReminderInterval *int     `json:"reminder_interval"`
	TimeZone         *string  `json:"time_zone"`
	SoundEnabled     *bool    `json:"sound_enabled"`
}

type DeleteDataResult struct {
	DeletedIntakes      int64 `json:"deleted_intakes"`
	DeletedAchievements int64 `json:"deleted_achievements"`
}

type UserService struct {
	userRepository        repository.UserRepository
	profileRepository     repository.ProfileRepository
	intakeRepository      repository.IntakeRepository
	achievementRepository repository.AchievementRepository
	analyticsRepository   repository.AnalyticsRepository
	reminderService       *ReminderService
	fileService           *FileService
	emailService          *EmailService
	defaultInterval       int
}

func NewUserService(
	userRepository repository.UserRepository,
	profileRepository repository.ProfileRepository,
	intakeRepository repository.IntakeRepository,
	achievementRepository repository.AchievementRepository,
	analyticsRepository repository.AnalyticsRepository,
	reminderService *ReminderService,
	fileService *FileService,
	emailService *EmailService,
	defaultInterval int,
) *UserService {
	if defaultInterval <= 0 {
		defaultInterval = model.DefaultReminderInterval
	}
	return &UserService{
		userRepository:        userRepository,
		profileRepository:     profileRepository,
		intakeRepository:      intakeRepository,
		achievementRepository: achievementRepository,
		analyticsRepository:   analyticsRepository,
		reminderService:       reminderService,
		fileService:           fileService,
		emailService:          emailService,
		defaultInterval:       defaultInterval,
	}
}

// ServerDailyGoal computes the stored goal: an explicit goal wins, otherwise
// 35 ml per kg scaled by activity and a hot climate, otherwise 2500 ml.
func ServerDailyGoal(weightKg *float64, activityLevel, climate string, explicit *int) int {
	if weightKg == nil || *weightKg <= 0 {
		if explicit != nil && *explicit > 0 {
			return *explicit
		}
		return model.DefaultDailyGoalMl
	}

	goal := *weightKg * 35
	switch activityLevel {
	case model.ActivityHigh:
		goal *= 1.3
	case model.ActivityModerate:
		goal *= 1.15
	}
	if climate == model.ClimateHot {
		goal *= 1.2
	}
	return int(math.Round(goal))
}

// CreateUser registers a user with profile, reminder settings and default
// alarms. It is idempotent by email: an existing user's id is returned as is.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (string, error) {
	email := validation.NormalizeEmail(in.Email)
	err := validation.ValidateEmail(email)
	if err != nil {
		return "", err
	}

	existing, err := s.userRepository.ByEmail(ctx, email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	name := strings.TrimSpace(in.Name)
	err = validation.ValidateName(name)
	if err != nil {
		return "", err
	}
	if in.WeightKg != nil {
		err = validation.ValidateWeight(*in.WeightKg)
		if err != nil {
			return "", err
		}
	}
	if in.DailyGoalMl != nil {
		err = validation.ValidateDailyGoal(*in.DailyGoalMl)
		if err != nil {
			return "", err
		}
	}

	// defaults apply to the stored profile, not to the initial goal
	activity := in.ActivityLevel
	if !model.ValidActivityLevel(activity) {
		activity = model.ActivityModerate
	}
	climate := in.Climate
	if !model.ValidClimate(climate) {
		climate = model.ClimateTemperate
	}

	user := &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		CreatedAt: time.Now(),
	}
	if in.Password != "" {
		err = validation.ValidatePassword(in.Password)
		if err != nil {
			return "", err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		hashStr := string(hash)
		user.PasswordHash = &hashStr
	}

	err = s.userRepository.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		// lost a race with a concurrent signup for the same address
		existing, lookupErr := s.userRepository.ByEmail(ctx, email)
		if lookupErr == nil {
			return existing.ID, nil
		}
		return "", fmt.Errorf("failed to look up user: %w", lookupErr)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	profile := &model.Profile{
		UserID:        user.ID,
		Name:          name,
		WeightKg:      in.WeightKg,
		ActivityLevel: activity,
		Climate:       climate,
		DailyGoalMl:   ServerDailyGoal(in.WeightKg, in.ActivityLevel, in.Climate, in.DailyGoalMl),
		CustomGoal:    in.WeightKg == nil && in.DailyGoalMl != nil,
		SoundEnabled:  true,
	}
	err = s.profileRepository.Create(ctx, profile)
	if err != nil {
		return "", fmt.Errorf("failed to create profile: %w", err)
	}

	_, err = s.reminderService.Init(ctx, user.ID, s.defaultInterval)
	if err != nil {
		return "", fmt.Errorf("failed to create reminder settings: %w", err)
	}

	if s.emailService != nil {
		err = s.emailService.SendWelcomeEmail(ctx, email, name, profile.DailyGoalMl)
		if err != nil {
			slog.Warn("failed to send welcome email", "user_id", user.ID, "error", err)
		}
	}

	slog.Info("user created", "user_id", user.ID, "daily_goal_ml", profile.DailyGoalMl)
	return user.ID, nil
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) AuthResult {
	user, err := s.userRepository.ByEmail(ctx, validation.NormalizeEmail(email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{Error: "User not found"}
	}
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		return AuthResult{Error: "Authentication unavailable"}
	}

	if !user.HasPassword() {
		return AuthResult{Error: "Invalid credentials"}
	}
	err = bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password))
	if err != nil {
		return AuthResult{Error: "Invalid credentials"}
	}

	return AuthResult{Success: true, UserID: user.ID, User: user}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	return s.userRepository.ByID(ctx, id)
}

func (s *UserService) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.userRepository.ByEmail(ctx, validation.NormalizeEmail(email))
}

func (s *UserService) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	return s.profileRepository.ByUserID(ctx, userID)
}

// UpdateSettings applies a partial update. An explicit daily goal pins the
// goal; changing weight, activity or climate recomputes it unless pinned.
func (s *UserService) UpdateSettings(ctx context.Context, userID string, update SettingsUpdate) (*model.Profile, error) {
	profile, err := s.profileRepository.ByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	recompute := false
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		err = validation.ValidateName(name)
		if err != nil {
			return nil, err
		}
		profile.Name = name
	}
	if update.WeightKg != nil {
		err = validation.ValidateWeight(*update.WeightKg)
		if err != nil {
			return nil, err
		}
		weight := *update.WeightKg
		profile.WeightKg = &weight
		recompute = true
	}
	if update.ActivityLevel != nil {
		if !model.ValidActivityLevel(*update.ActivityLevel) {
			return nil, apperror.Validation("invalid_activity_level", "activity level must be low, moderate or high")
		}
		profile.ActivityLevel = *update.ActivityLevel
		recompute = true
	}
	if update.Climate != nil {
		if !model.ValidClimate(*update.Climate) {
			return nil, apperror.Validation("invalid_climate", "climate must be cool, temperate or hot")
		}
		profile.Climate = *update.Climate
		recompute = true
	}
	if update.TimeZone != nil {
		if *update.TimeZone != "" {
			_, err = time.LoadLocation(*update.TimeZone)
			if err != nil {
				return nil, apperror.Validation("invalid_time_zone", "unknown time zone").WithMeta("time_zone", *update.TimeZone)
			}
		}
		profile.TimeZone = *update.TimeZone
	}
	if update.SoundEnabled != nil {
		profile.SoundEnabled = *update.SoundEnabled
	}

	switch {
	case update.DailyGoalMl != nil:
		err = validation.ValidateDailyGoal(*update.DailyGoalMl)
		if err != nil {
			return nil, err
		}
		profile.DailyGoalMl = *update.DailyGoalMl
		profile.CustomGoal = true
	case recompute && !profile.CustomGoal:
		profile.DailyGoalMl = ServerDailyGoal(profile.WeightKg, profile.ActivityLevel, profile.Climate, nil)
	}

	err = s.profileRepository.Update(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if update.ReminderInterval != nil {
		_, err = s.reminderService.SetInterval(ctx, userID, *update.ReminderInterval)
		if err != nil {
			return nil, err
		}
	}

	return profile, nil
}

// DeleteUserData removes intake history, achievements and analytics. The
// account, profile and settings stay.
func (s *UserService) DeleteUserData(ctx context.Context, userID string) (DeleteDataResult, error) {
	var result DeleteDataResult

	intakes, err := s.intakeRepository.DeleteAll(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("failed to delete intakes: %w", err)
	}
	result.DeletedIntakes = intakes

	achievements, err := s.achievementRepository.DeleteAll(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("failed to delete achievements: %w", err)
	}
	result.DeletedAchievements = achievements

	_, err = s.analyticsRepository.DeleteAll(ctx, userID)
	if err != nil {
		slog.Warn("failed to delete analytics", "user_id", userID, "error", err)
	}

	slog.Info("user data deleted", "user_id", userID,
		"deleted_intakes", result.DeletedIntakes, "deleted_achievements", result.DeletedAchievements)
	return result, nil
}

// DeleteAccount removes stored files, then the user row; the rest cascades.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	name := ""
	profile, err := s.profileRepository.ByUserID(ctx, userID)
	if err == nil {
		name = profile.Name
	}

	if s.fileService != nil {
		err = s.fileService.DeleteAllUserFilesFromStorage(ctx, userID)
		if err != nil {
			slog.Warn("failed to delete user files from storage", "user_id", userID, "error", err)
		}
	}

	err = s.userRepository.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if s.emailService != nil {
		err = s.emailService.SendAccountDeletedEmail(ctx, user.Email, name)
		if err != nil {
			slog.Warn("failed to send account deleted email", "user_id", userID, "error", err)
		}
	}
	return nil
}

// DefaultAlarmModels converts the default alarm set into rows for userID.
func DefaultAlarmModels(userID string, now time.Time) []*model.Alarm {
	defaults := reminder.DefaultAlarms()
	out := make([]*model.Alarm, len(defaults))
	for i, a := range defaults {
		out[i] = &model.Alarm{ID: a.ID, UserID: userID, Time: a.Time, Enabled: a.Enabled, CreatedAt: now}
	}
	return out
}
