package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/templui/hydrate/internal/model"
	"github.com/templui/hydrate/internal/reminder"
	"github.com/templui/hydrate/internal/repository"
)

// Interval and snooze choices offered to users.
var (
	ReminderIntervals = []int{15, 30, 45, 60, 90, 120}
	SnoozeOptions     = []int{5, 10, 15}
)

type ReminderService struct {
	reminderRepository repository.ReminderRepository
	alarmRepository    repository.AlarmRepository
	now                func() time.Time
}

func NewReminderService(reminderRepository repository.ReminderRepository, alarmRepository repository.AlarmRepository) *ReminderService {
	return &ReminderService{
		reminderRepository: reminderRepository,
		alarmRepository:    alarmRepository,
		now:                time.Now,
	}
}

// Init creates active reminder settings and the default alarms for a new user.
func (s *ReminderService) Init(ctx context.Context, userID string, intervalMinutes int) (*model.ReminderSettings, error) {
	settings := &model.ReminderSettings{
		UserID:          userID,
		IsActive:        true,
		IntervalMinutes: intervalMinutes,
	}
	err := s.reminderRepository.Upsert(ctx, settings)
	if err != nil {
		return nil, err
	}

	err = s.alarmRepository.Replace(ctx, userID, DefaultAlarmModels(userID, s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to create default alarms: %w", err)
	}
	return settings, nil
}

// Settings returns the stored settings, or active defaults when none exist.
func (s *ReminderService) Settings(ctx context.Context, userID string) (*model.ReminderSettings, error) {
	settings, err := s.reminderRepository.ByUserID(ctx, userID)
	if errors.Is(err, repository.ErrReminderNotFound) {
		return &model.ReminderSettings{
			UserID:          userID,
			IsActive:        true,
			IntervalMinutes: model.DefaultReminderInterval,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder settings: %w", err)
	}
	return settings, nil
}

func (s *ReminderService) Update(ctx context.Context, userID string, active bool, intervalMinutes int, emailEnabled bool) (*model.ReminderSettings, error) {
	if intervalMinutes <= 0 || intervalMinutes > reminder.MaxIntervalMinutes {
		return nil, reminder.ErrInvalidMinutes
	}

	settings, err := s.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings.IsActive = active
	settings.IntervalMinutes = intervalMinutes
	settings.EmailEnabled = emailEnabled
	if active {
		next := s.now().Add(time.Duration(intervalMinutes) * time.Minute)
		settings.NextReminder = &next
	} else {
		settings.NextReminder = nil
	}

	err = s.reminderRepository.Upsert(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to save reminder settings: %w", err)
	}
	return settings, nil
}

func (s *ReminderService) SetInterval(ctx context.Context, userID string, intervalMinutes int) (*model.ReminderSettings, error) {
	settings, err := s.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, userID, settings.IsActive, intervalMinutes, settings.EmailEnabled)
}

func (s *ReminderService) SetActive(ctx context.Context, userID string, active bool) (*model.ReminderSettings, error) {
	settings, err := s.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, userID, active, settings.IntervalMinutes, settings.EmailEnabled)
}

// MarkSent records a delivered reminder and schedules the next one.
func (s *ReminderService) MarkSent(ctx context.Context, userID string, intervalMinutes int) error {
	now := s.now()
	return s.reminderRepository.MarkSent(ctx, userID, now, now.Add(time.Duration(intervalMinutes)*time.Minute))
}

func (s *ReminderService) Alarms(ctx context.Context, userID string) ([]reminder.Alarm, error) {
	rows, err := s.alarmRepository.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alarms: %w", err)
	}

	alarms := make([]reminder.Alarm, len(rows))
	for i, r := range rows {
		alarms[i] = reminder.Alarm{ID: r.ID, Time: r.Time, Enabled: r.Enabled}
	}
	return alarms, nil
}

func (s *ReminderService) AddAlarm(ctx context.Context, userID, clock string, enabled bool) (reminder.Alarm, error) {
	clock, err := reminder.ParseClock(clock)
	if err != nil {
		return reminder.Alarm{}, err
	}

	row := &model.Alarm{ID: uuid.New().String(), UserID: userID, Time: clock, Enabled: enabled, CreatedAt: s.now()}
	err = s.alarmRepository.Create(ctx, row)
	if err != nil {
		return reminder.Alarm{}, fmt.Errorf("failed to create alarm: %w", err)
	}
	return reminder.Alarm{ID: row.ID, Time: row.Time, Enabled: row.Enabled}, nil
}

func (s *ReminderService) UpdateAlarm(ctx context.Context, userID string, alarm reminder.Alarm) (reminder.Alarm, error) {
	clock, err := reminder.ParseClock(alarm.Time)
	if err != nil {
		return reminder.Alarm{}, err
	}
	alarm.Time = clock

	err = s.alarmRepository.Update(ctx, &model.Alarm{ID: alarm.ID, UserID: userID, Time: alarm.Time, Enabled: alarm.Enabled})
	if errors.Is(err, repository.ErrAlarmNotFound) {
		return reminder.Alarm{}, reminder.ErrAlarmNotFound.WithMeta("alarm_id", alarm.ID)
	}
	if err != nil {
		return reminder.Alarm{}, fmt.Errorf("failed to update alarm: %w", err)
	}
	return alarm, nil
}

func (s *ReminderService) DeleteAlarm(ctx context.Context, userID, alarmID string) error {
	err := s.alarmRepository.Delete(ctx, alarmID, userID)
	if errors.Is(err, repository.ErrAlarmNotFound) {
		return reminder.ErrAlarmNotFound.WithMeta("alarm_id", alarmID)
	}
	return err
}
