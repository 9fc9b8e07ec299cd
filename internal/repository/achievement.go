package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/templui/hydrate/internal/model"
)

var (
	ErrAchievementNotFound = errors.New("achievement not found")
)

type AchievementRepository interface {
	Create(ctx context.Context, record *model.AchievementRecord) error
	ForDate(ctx context.Context, userID, recordType, dateKey string) (*model.AchievementRecord, error)
	ByCode(ctx context.Context, userID, code string) (*model.AchievementRecord, error)
	List(ctx context.Context, userID string) ([]*model.AchievementRecord, error)
	Recent(ctx context.Context, userID string, limit int) ([]*model.AchievementRecord, error)
	CountByType(ctx context.Context, userID, recordType string) (int, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
}

type achievementRepository struct {
	db *sqlx.DB
}

func NewAchievementRepository(db *sqlx.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) Create(ctx context.Context, record *model.AchievementRecord) error {
	query := `INSERT INTO achievements (id, user_id, type, code, title, description, icon, date_key, unlocked_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.Type,
		record.Code,
		record.Title,
		record.Description,
		record.Icon,
		record.DateKey,
		record.UnlockedAt,
	)
	return err
}

func (r *achievementRepository) ForDate(ctx context.Context, userID, recordType, dateKey string) (*model.AchievementRecord, error) {
	record := &model.AchievementRecord{}
	query := `SELECT * FROM achievements WHERE user_id = $1 AND type = $2 AND date_key = $3 LIMIT 1`

	err := r.db.GetContext(ctx, record, query, userID, recordType, dateKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAchievementNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *achievementRepository) ByCode(ctx context.Context, userID, code string) (*model.AchievementRecord, error) {
	record := &model.AchievementRecord{}
	query := `SELECT * FROM achievements WHERE user_id = $1 AND type = $2 AND code = $3 LIMIT 1`

	err := r.db.GetContext(ctx, record, query, userID, model.AchievementTypeBadge, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAchievementNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *achievementRepository) List(ctx context.Context, userID string) ([]*model.AchievementRecord, error) {
	var records []*model.AchievementRecord
	query := `SELECT * FROM achievements WHERE user_id = $1 ORDER BY unlocked_at DESC`

	err := r.db.SelectContext(ctx, &records, query, userID)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *achievementRepository) Recent(ctx context.Context, userID string, limit int) ([]*model.AchievementRecord, error) {
	var records []*model.AchievementRecord
	query := `SELECT * FROM achievements WHERE user_id = $1 ORDER BY unlocked_at DESC LIMIT $2`

	err := r.db.SelectContext(ctx, &records, query, userID, limit)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *achievementRepository) CountByType(ctx context.Context, userID, recordType string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM achievements WHERE user_id = $1 AND type = $2`, userID, recordType)
	return count, err
}

func (r *achievementRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM achievements WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
