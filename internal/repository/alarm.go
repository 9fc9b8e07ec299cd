package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/templui/hydrate/internal/model"
)

var (
	ErrAlarmNotFound = errors.New("alarm not found")
)

type AlarmRepository interface {
	List(ctx context.Context, userID string) ([]*model.Alarm, error)
	Create(ctx context.Context, alarm *model.Alarm) error
	Update(ctx context.Context, alarm *model.Alarm) error
	Delete(ctx context.Context, id, userID string) error
	Replace(ctx context.Context, userID string, alarms []*model.Alarm) error
}

type alarmRepository struct {
	db *sqlx.DB
}

func NewAlarmRepository(db *sqlx.DB) AlarmRepository {
	return &alarmRepository{db: db}
}

func (r *alarmRepository) List(ctx context.Context, userID string) ([]*model.Alarm, error) {
	var alarms []*model.Alarm
	err := r.db.SelectContext(ctx, &alarms, `SELECT * FROM alarms WHERE user_id = $1 ORDER BY time ASC`, userID)
	if err != nil {
		return nil, err
	}
	return alarms, nil
}

func (r *alarmRepository) Create(ctx context.Context, alarm *model.Alarm) error {
	query := `INSERT INTO alarms (id, user_id, time, enabled, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, alarm.ID, alarm.UserID, alarm.Time, alarm.Enabled, alarm.CreatedAt)
	return err
}

func (r *alarmRepository) Update(ctx context.Context, alarm *model.Alarm) error {
	query := `UPDATE alarms SET time = $1, enabled = $2 WHERE id = $3 AND user_id = $4`

	result, err := r.db.ExecContext(ctx, query, alarm.Time, alarm.Enabled, alarm.ID, alarm.UserID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(result, ErrAlarmNotFound)
}

func (r *alarmRepository) Delete(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM alarms WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(result, ErrAlarmNotFound)
}

// Replace swaps all alarms of a user in one transaction.
func (r *alarmRepository) Replace(ctx context.Context, userID string, alarms []*model.Alarm) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM alarms WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}

	query := `INSERT INTO alarms (id, user_id, time, enabled, created_at) VALUES ($1, $2, $3, $4, $5)`
	for _, a := range alarms {
		_, err = tx.ExecContext(ctx, query, a.ID, userID, a.Time, a.Enabled, a.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
