package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/templui/hydrate/internal/apperror"
	"github.com/templui/hydrate/internal/model"
	"github.com/templui/hydrate/internal/repository"
	"github.com/templui/hydrate/internal/tracker"
	"github.com/templui/hydrate/internal/validation"
)

var ErrInvalidPeriod = validation.ErrInvalidPeriod

type AnalyticsService struct {
	analyticsRepository repository.AnalyticsRepository
	now                 func() time.Time
}

func NewAnalyticsService(analyticsRepository repository.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{
		analyticsRepository: analyticsRepository,
		now:                 time.Now,
	}
}

// Save stores a summary for the period ending today. payload is stored as
// JSON.
func (s *AnalyticsService) Save(ctx context.Context, userID, startDate string, period int, payload any) (*model.AnalyticsSnapshot, error) {
	err := validation.ValidateAnalyticsPeriod(period)
	if err != nil {
		return nil, err
	}
	_, err = time.Parse(tracker.DateLayout, startDate)
	if err != nil {
		return nil, apperror.Validation("invalid_start_date", "start date must be YYYY-MM-DD").WithMeta("start_date", startDate)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analytics payload: %w", err)
	}

	snapshot := &model.AnalyticsSnapshot{
		ID:        uuid.New().String(),
		UserID:    userID,
		StartDate: startDate,
		Period:    period,
		Payload:   string(data),
		CreatedAt: s.now(),
	}

	err = s.analyticsRepository.Create(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to save analytics: %w", err)
	}
	return snapshot, nil
}

func (s *AnalyticsService) List(ctx context.Context, userID string, limit int) ([]*model.AnalyticsSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.analyticsRepository.List(ctx, userID, limit)
}
