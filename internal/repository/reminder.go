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

var (
	ErrReminderNotFound = errors.New("reminder settings not found")
)

type ReminderRepository interface {
	ByUserID(ctx context.Context, userID string) (*model.ReminderSettings, error)
	Upsert(ctx context.Context, settings *model.ReminderSettings) error
	MarkSent(ctx context.Context, userID string, sentAt, next time.Time) error
}

type reminderRepository struct {
	db *sqlx.DB
}

func NewReminderRepository(db *sqlx.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) ByUserID(ctx context.Context, userID string) (*model.ReminderSettings, error) {
	settings := &model.ReminderSettings{}
	err := r.db.GetContext(ctx, settings, `SELECT * FROM reminders WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReminderNotFound
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// Upsert inserts the settings row for a user or updates the existing one.
func (r *reminderRepository) Upsert(ctx context.Context, settings *model.ReminderSettings) error {
	now := time.Now()
	if settings.ID == "" {
		settings.ID = uuid.New().String()
	}
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now

	query := `INSERT INTO reminders (id, user_id, is_active, interval_minutes, email_enabled, last_reminder, next_reminder, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          ON CONFLICT (user_id) DO UPDATE SET
	              is_active = excluded.is_active,
	              interval_minutes = excluded.interval_minutes,
	              email_enabled = excluded.email_enabled,
	              next_reminder = excluded.next_reminder,
	              updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		settings.ID,
		settings.UserID,
		settings.IsActive,
		settings.IntervalMinutes,
		settings.EmailEnabled,
		settings.LastReminder,
		settings.NextReminder,
		settings.CreatedAt,
		settings.UpdatedAt,
	)
	return err
}

func (r *reminderRepository) MarkSent(ctx context.Context, userID string, sentAt, next time.Time) error {
	query := `UPDATE reminders SET last_reminder = $1, next_reminder = $2, updated_at = $3 WHERE user_id = $4`

	result, err := r.db.ExecContext(ctx, query, sentAt, next, time.Now(), userID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(result, ErrReminderNotFound)
}
