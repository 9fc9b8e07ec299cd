package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/templui/hydrate/internal/model"
)

type AnalyticsRepository interface {
	Create(ctx context.Context, snapshot *model.AnalyticsSnapshot) error
	List(ctx context.Context, userID string, limit int) ([]*model.AnalyticsSnapshot, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
}

type analyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Create(ctx context.Context, snapshot *model.AnalyticsSnapshot) error {
	query := `INSERT INTO analytics (id, user_id, start_date, period, payload, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.UserID,
		snapshot.StartDate,
		snapshot.Period,
		snapshot.Payload,
		snapshot.CreatedAt,
	)
	return err
}

func (r *analyticsRepository) List(ctx context.Context, userID string, limit int) ([]*model.AnalyticsSnapshot, error) {
	var snapshots []*model.AnalyticsSnapshot
	query := `SELECT * FROM analytics WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	err := r.db.SelectContext(ctx, &snapshots, query, userID, limit)
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *analyticsRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM analytics WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
