package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/templui/hydrate/internal/model"
)

var (
	ErrIntakeNotFound    = errors.New("intake not found")
	ErrDuplicateClientID = errors.New("intake with this client id already exists")
)

type IntakeRepository interface {
	Create(ctx context.Context, intake *model.Intake) error
	ByID(ctx context.Context, id string) (*model.Intake, error)
	ByClientID(ctx context.Context, userID, clientID string) (*model.Intake, error)
	ByDate(ctx context.Context, userID, dateKey string) ([]*model.Intake, error)
	Between(ctx context.Context, userID string, fromMs, toMs int64) ([]*model.Intake, error)
	DayTotal(ctx context.Context, userID, dateKey string) (int, error)
	DailyTotals(ctx context.Context, userID, fromDate, toDate string) ([]model.DailyTotal, error)
	Delete(ctx context.Context, id, userID string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
}

type intakeRepository struct {
	db *sqlx.DB
}

func NewIntakeRepository(db *sqlx.DB) IntakeRepository {
	return &intakeRepository{db: db}
}

func (r *intakeRepository) Create(ctx context.Context, intake *model.Intake) error {
	query := `INSERT INTO water_intakes (id, user_id, client_id, amount_ml, timestamp_ms, date_key, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		intake.ID,
		intake.UserID,
		intake.ClientID,
		intake.AmountMl,
		intake.TimestampMs,
		intake.DateKey,
		intake.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateClientID
	}
	return err
}

func (r *intakeRepository) ByID(ctx context.Context, id string) (*model.Intake, error) {
	intake := &model.Intake{}
	err := r.db.GetContext(ctx, intake, `SELECT * FROM water_intakes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIntakeNotFound
	}
	if err != nil {
		return nil, err
	}
	return intake, nil
}

func (r *intakeRepository) ByClientID(ctx context.Context, userID, clientID string) (*model.Intake, error) {
	intake := &model.Intake{}
	query := `SELECT * FROM water_intakes WHERE user_id = $1 AND client_id = $2`

	err := r.db.GetContext(ctx, intake, query, userID, clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIntakeNotFound
	}
	if err != nil {
		return nil, err
	}
	return intake, nil
}

func (r *intakeRepository) ByDate(ctx context.Context, userID, dateKey string) ([]*model.Intake, error) {
	var intakes []*model.Intake
	query := `SELECT * FROM water_intakes WHERE user_id = $1 AND date_key = $2 ORDER BY timestamp_ms DESC`

	err := r.db.SelectContext(ctx, &intakes, query, userID, dateKey)
	if err != nil {
		return nil, err
	}
	return intakes, nil
}

// Between returns intakes with fromMs <= timestamp < toMs, newest first.
func (r *intakeRepository) Between(ctx context.Context, userID string, fromMs, toMs int64) ([]*model.Intake, error) {
	var intakes []*model.Intake
	query := `SELECT * FROM water_intakes
	          WHERE user_id = $1 AND timestamp_ms >= $2 AND timestamp_ms < $3
	          ORDER BY timestamp_ms DESC`

	err := r.db.SelectContext(ctx, &intakes, query, userID, fromMs, toMs)
	if err != nil {
		return nil, err
	}
	return intakes, nil
}

func (r *intakeRepository) DayTotal(ctx context.Context, userID, dateKey string) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(amount_ml), 0) FROM water_intakes WHERE user_id = $1 AND date_key = $2`

	err := r.db.GetContext(ctx, &total, query, userID, dateKey)
	return total, err
}

// DailyTotals aggregates per date key in [fromDate, toDate], ascending. Days
// without intakes are absent.
func (r *intakeRepository) DailyTotals(ctx context.Context, userID, fromDate, toDate string) ([]model.DailyTotal, error) {
	var totals []model.DailyTotal
	query := `SELECT date_key, SUM(amount_ml) AS total_ml, COUNT(*) AS intake_count
	          FROM water_intakes
	          WHERE user_id = $1 AND date_key >= $2 AND date_key <= $3
	          GROUP BY date_key
	          ORDER BY date_key ASC`

	err := r.db.SelectContext(ctx, &totals, query, userID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// Delete removes an intake only when it belongs to userID.
func (r *intakeRepository) Delete(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM water_intakes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(result, ErrIntakeNotFound)
}

func (r *intakeRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM water_intakes WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
