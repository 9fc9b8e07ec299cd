package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/templui/hydrate/internal/model"
)

type ProfileRepository interface {
	ByUserID(ctx context.Context, userID string) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	Update(ctx context.Context, profile *model.Profile) error
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) ByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT * FROM profiles WHERE user_id = $1`, userID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, user_id, name, weight_kg, activity_level, climate, daily_goal_ml, custom_goal, time_zone, sound_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, profile.ID, profile.UserID, profile.Name, profile.WeightKg, profile.ActivityLevel, profile.Climate,
		profile.DailyGoalMl, profile.CustomGoal, profile.TimeZone, profile.SoundEnabled, profile.CreatedAt, profile.UpdatedAt)

	return err
}

func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET name = $1, weight_kg = $2, activity_level = $3, climate = $4, daily_goal_ml = $5,
		    custom_goal = $6, time_zone = $7, sound_enabled = $8, updated_at = $9
		WHERE user_id = $10
	`, profile.Name, profile.WeightKg, profile.ActivityLevel, profile.Climate, profile.DailyGoalMl,
		profile.CustomGoal, profile.TimeZone, profile.SoundEnabled, profile.UpdatedAt, profile.UserID)
	if err != nil {
		return err
	}

	return affectedOrNotFound(result, ErrProfileNotFound)
}
