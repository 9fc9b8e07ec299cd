package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/templui/hydrate/internal/achievement"
	"github.com/templui/hydrate/internal/model"
	"github.com/templui/hydrate/internal/repository"
	"github.com/templui/hydrate/internal/tracker"
)

const defaultRecentAchievements = 5

type AchievementService struct {
	achievementRepository repository.AchievementRepository
}

func NewAchievementService(achievementRepository repository.AchievementRepository) *AchievementService {
	return &AchievementService{achievementRepository: achievementRepository}
}

func (s *AchievementService) UserAchievements(ctx context.Context, userID string) ([]*model.AchievementRecord, error) {
	return s.achievementRepository.List(ctx, userID)
}

// RecentAchievements returns the newest records; limit <= 0 means 5.
func (s *AchievementService) RecentAchievements(ctx context.Context, userID string, limit int) ([]*model.AchievementRecord, error) {
	if limit <= 0 {
		limit = defaultRecentAchievements
	}
	return s.achievementRepository.Recent(ctx, userID, limit)
}

// RecordUnlock stores a badge unlocked in a session. Recording the same badge
// twice is a no-op.
func (s *AchievementService) RecordUnlock(ctx context.Context, userID string, a achievement.Achievement, loc *time.Location) error {
	_, err := s.achievementRepository.ByCode(ctx, userID, a.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrAchievementNotFound) {
		return err
	}

	unlockedAt := time.Now()
	if a.UnlockedAt != nil {
		unlockedAt = *a.UnlockedAt
	}

	err = s.achievementRepository.Create(ctx, &model.AchievementRecord{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        model.AchievementTypeBadge,
		Code:        a.ID,
		Title:       a.Title,
		Description: a.Description,
		Icon:        a.Icon,
		DateKey:     tracker.DateKey(unlockedAt.UnixMilli(), loc),
		UnlockedAt:  unlockedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to record achievement: %w", err)
	}
	return nil
}

func (s *AchievementService) DailyGoalsReached(ctx context.Context, userID string) (int, error) {
	return s.achievementRepository.CountByType(ctx, userID, model.AchievementTypeDailyGoal)
}
