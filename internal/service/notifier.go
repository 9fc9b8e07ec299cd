package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/templui/hydrate/internal/reminder"
)

// Notifier delivers due reminders. Every reminder is logged; users who opted
// into email also get a message with today's progress.
type Notifier struct {
	userService     *UserService
	intakeService   *IntakeService
	reminderService *ReminderService
	emailService    *EmailService
}

func NewNotifier(userService *UserService, intakeService *IntakeService, reminderService *ReminderService, emailService *EmailService) *Notifier {
	return &Notifier{
		userService:     userService,
		intakeService:   intakeService,
		reminderService: reminderService,
		emailService:    emailService,
	}
}

func (n *Notifier) Remind(ctx context.Context, userID, reason string) error {
	settings, err := n.reminderService.Settings(ctx, userID)
	if err != nil {
		return err
	}

	stats, err := n.intakeService.DailyStats(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get today's stats: %w", err)
	}

	slog.Info("reminder due", "user_id", userID, "reason", reason, "total_today", stats.TotalToday)

	if settings.EmailEnabled && n.emailService != nil {
		user, err := n.userService.ByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		profile, err := n.userService.Profile(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}

		err = n.emailService.SendReminderEmail(ctx, user.Email, profile.Name, stats.TotalToday, profile.DailyGoalMl)
		if err != nil {
			return err
		}
	}

	if reason == reminder.ReasonInterval {
		err = n.reminderService.MarkSent(ctx, userID, settings.IntervalMinutes)
		if err != nil {
			slog.Warn("failed to record reminder", "user_id", userID, "error", err)
		}
	}
	return nil
}
