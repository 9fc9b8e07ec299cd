// Package session holds the in-memory state of one signed-in user: the intake
// log, derived statistics, achievements, reminders and the local state that
// backs them.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/templui/hydrate/internal/achievement"
	"github.com/templui/hydrate/internal/apperror"
	"github.com/templui/hydrate/internal/localstate"
	"github.com/templui/hydrate/internal/model"
	"github.com/templui/hydrate/internal/reminder"
	"github.com/templui/hydrate/internal/tracker"
	"github.com/templui/hydrate/internal/validation"
)

const notifyTimeout = 15 * time.Second

// Remote is the server side of a session.
type Remote interface {
	tracker.Syncer
	FetchToday(ctx context.Context) ([]tracker.IntakeEvent, error)
	FetchWeek(ctx context.Context) ([]tracker.IntakeEvent, error)
}

type AchievementRecorder interface {
	RecordUnlock(ctx context.Context, userID string, a achievement.Achievement, loc *time.Location) error
}

type AnalyticsSaver interface {
	Save(ctx context.Context, userID, startDate string, period int, payload any) (*model.AnalyticsSnapshot, error)
}

type Notifier interface {
	Remind(ctx context.Context, userID, reason string) error
}

// Config wires a Session. Only UserID is required; a nil Remote keeps the
// session offline and a nil State keeps it in memory.
type Config struct {
	UserID           string
	Profile          *tracker.Profile
	Location         *time.Location
	ReminderInterval int
	RemindersActive  bool
	Alarms           []reminder.Alarm

	Remote       Remote
	State        localstate.Store
	Achievements AchievementRecorder
	Analytics    AnalyticsSaver
	Notifier     Notifier
	Logger       *slog.Logger

	Clock        func() time.Time
	TickInterval time.Duration
}

// TodayCache is the persisted form of today's total.
type TodayCache struct {
	DateKey string `json:"date_key"`
	TotalMl int    `json:"total_ml"`
}

// ReminderCache is the persisted reminder state.
type ReminderCache struct {
	IntervalMinutes int              `json:"interval_minutes"`
	Active          bool             `json:"active"`
	Alarms          []reminder.Alarm `json:"alarms"`
}

// SoundRef points at the user's custom reminder sound.
type SoundRef struct {
	FileID       string `json:"file_id"`
	OriginalName string `json:"original_name"`
}

type AddResult struct {
	Event      tracker.IntakeEvent       `json:"event"`
	Today      tracker.TodaySummary      `json:"today"`
	Percentage int                       `json:"percentage"`
	Unlocked   []achievement.Achievement `json:"unlocked"`
}

type RemoveResult struct {
	Removed bool                 `json:"removed"`
	Event   *tracker.IntakeEvent `json:"event,omitempty"`
	Today   tracker.TodaySummary `json:"today"`
}

type SyncResult struct {
	TodayEvents int `json:"today_events"`
	Merged      int `json:"merged"`
}

type Session struct {
	mu sync.Mutex

	userID  string
	profile atomic.Pointer[tracker.Profile]
	loc     *time.Location
	now     func() time.Time

	store     *tracker.Store
	stats     *tracker.Stats
	engine    *achievement.Engine
	alarms    *reminder.Alarms
	scheduler *reminder.Scheduler
	activity  []localstate.Activity
	sound     *SoundRef

	remote       Remote
	state        localstate.Store
	achievements AchievementRecorder
	analytics    AnalyticsSaver
	notifier     Notifier
	logger       *slog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New builds a session, restores its local state and starts the reminder
// loop. Call Close to stop it.
func New(cfg Config) (*Session, error) {
	if cfg.UserID == "" {
		return nil, apperror.Validation("user_required", "session needs a user id")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.State == nil {
		cfg.State = localstate.NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("user_id", cfg.UserID)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		userID:       cfg.UserID,
		loc:          cfg.Location,
		now:          cfg.Clock,
		remote:       cfg.Remote,
		state:        cfg.State,
		achievements: cfg.Achievements,
		analytics:    cfg.Analytics,
		notifier:     cfg.Notifier,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}

	s.profile.Store(cfg.Profile)
	if cfg.Profile == nil {
		var p tracker.Profile
		if localstate.LoadOr(s.state, logger, localstate.KeyProfile, &p) {
			s.profile.Store(&p)
		}
	} else {
		localstate.SaveOrLog(s.state, logger, localstate.KeyProfile, cfg.Profile)
	}

	storeOpts := []tracker.Option{
		tracker.WithClock(cfg.Clock),
		tracker.WithLocation(cfg.Location),
		tracker.WithLogger(logger),
		tracker.OnChange(func(events []tracker.IntakeEvent) {
			localstate.SaveOrLog(s.state, logger, localstate.KeyHistory, events)
		}),
	}
	if cfg.Remote != nil {
		storeOpts = append(storeOpts, tracker.WithSyncer(cfg.Remote))
	}
	s.store = tracker.NewStore(storeOpts...)
	s.stats = tracker.NewStats(s.store, s.Goal)
	s.engine = achievement.NewEngine(achievement.WithClock(cfg.Clock), achievement.WithLocation(cfg.Location))

	var history []tracker.IntakeEvent
	if localstate.LoadOr(s.state, logger, localstate.KeyHistory, &history) {
		s.store.Restore(history)
	}
	var snap achievement.Snapshot
	if localstate.LoadOr(s.state, logger, localstate.KeyAchievements, &snap) {
		s.engine.Restore(snap)
	}
	localstate.LoadOr(s.state, logger, localstate.KeyRecentActivity, &s.activity)
	var sound SoundRef
	if localstate.LoadOr(s.state, logger, localstate.KeySound, &sound) {
		s.sound = &sound
	}

	rc := ReminderCache{
		IntervalMinutes: cfg.ReminderInterval,
		Active:          cfg.RemindersActive,
		Alarms:          cfg.Alarms,
	}
	if rc.Alarms == nil {
		var cached ReminderCache
		if localstate.LoadOr(s.state, logger, localstate.KeyReminder, &cached) {
			rc = cached
		} else {
			rc.Alarms = reminder.DefaultAlarms()
		}
	}

	s.alarms = reminder.NewAlarms(rc.Alarms)
	schedOpts := []reminder.Option{
		reminder.WithAlarms(s.alarms, s.alarmFired),
		reminder.WithClock(func() time.Time { return cfg.Clock().In(cfg.Location) }),
	}
	if cfg.TickInterval > 0 {
		schedOpts = append(schedOpts, reminder.WithTickInterval(cfg.TickInterval))
	}
	s.scheduler = reminder.NewScheduler(rc.IntervalMinutes, rc.Active, s.reminderDue, schedOpts...)
	s.scheduler.Start(ctx)

	localstate.SaveOrLog(s.state, logger, localstate.KeySession, sessionDoc{UserID: s.userID, OpenedAt: s.now()})
	return s, nil
}

type sessionDoc struct {
	UserID   string    `json:"user_id"`
	OpenedAt time.Time `json:"opened_at"`
}

func (s *Session) UserID() string {
	return s.userID
}

func (s *Session) Location() *time.Location {
	return s.loc
}

func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// Goal is the current daily goal in ml.
func (s *Session) Goal() int {
	return tracker.DailyGoal(s.profile.Load())
}

// SetProfile replaces the goal inputs.
func (s *Session) SetProfile(p tracker.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile.Store(&p)
	localstate.SaveOrLog(s.state, s.logger, localstate.KeyProfile, p)
	s.pushLocked(localstate.Activity{Type: localstate.ActivitySettings, Message: fmt.Sprintf("Daily goal set to %dml", tracker.DailyGoal(&p))})
}

// AddIntake logs a drink optimistically, restarts the reminder countdown and
// updates achievements. A zero at means now.
func (s *Session) AddIntake(ctx context.Context, amountMl int, at time.Time) (AddResult, error) {
	err := validation.ValidateAmount(amountMl)
	if err != nil {
		return AddResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.store.Append(amountMl, at)
	if err != nil {
		return AddResult{}, err
	}
	s.scheduler.Reset()

	today := s.store.Today()
	goal := s.Goal()
	unlocked := s.engine.UpdateProgress(achievement.Progress{
		DeltaMl:      amountMl,
		DailyGoalMl:  goal,
		Streak:       s.stats.CurrentStreak(),
		TodayTotalMl: today.TotalMl,
	})

	s.pushLocked(localstate.Activity{Type: localstate.ActivityIntake, Message: fmt.Sprintf("Drank %dml", amountMl), AmountMl: amountMl})
	for _, a := range unlocked {
		s.pushLocked(localstate.Activity{Type: localstate.ActivityAchievement, Message: "Unlocked " + a.Title})
		s.logger.Info("achievement unlocked", "achievement", a.ID, "points", a.Points)
		if s.achievements != nil {
			err = s.achievements.RecordUnlock(ctx, s.userID, a, s.loc)
			if err != nil {
				s.logger.Warn("failed to record achievement", "achievement", a.ID, "error", err)
			}
		}
	}
	s.persistLocked(today)

	return AddResult{
		Event:      ev,
		Today:      today,
		Percentage: tracker.Percentage(today.TotalMl, goal),
		Unlocked:   unlocked,
	}, nil
}

// UndoLast removes the most recent intake. An empty log reports Removed=false.
func (s *Session) UndoLast() RemoveResult {
	return s.RemoveIntake("")
}

// RemoveIntake removes one intake by id; an empty id means the latest.
func (s *Session) RemoveIntake(id string) RemoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.store.Remove(id)
	today := s.store.Today()
	if !ok {
		return RemoveResult{Today: today}
	}

	s.pushLocked(localstate.Activity{Type: localstate.ActivityUndo, Message: fmt.Sprintf("Removed %dml", ev.AmountMl), AmountMl: ev.AmountMl})
	s.persistLocked(today)
	return RemoveResult{Removed: true, Event: &ev, Today: today}
}

// Sync fetches today's and the week's server events concurrently and folds
// them into the log.
func (s *Session) Sync(ctx context.Context) (SyncResult, error) {
	if s.remote == nil {
		return SyncResult{}, nil
	}

	var today, week []tracker.IntakeEvent
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		today, err = s.remote.FetchToday(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		week, err = s.remote.FetchWeek(gctx)
		return err
	})
	err := g.Wait()
	if err != nil {
		s.logger.Warn("failed to sync intakes", "error", err)
		if apperror.KindOf(err) == apperror.KindInternal {
			err = apperror.Sync("fetch failed", err)
		}
		return SyncResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.ReconcileRemote(today)
	merged := s.store.Merge(week)
	s.persistLocked(s.store.Today())

	s.logger.Debug("intakes synced", "today", len(today), "merged", merged)
	return SyncResult{TodayEvents: len(today), Merged: merged}, nil
}

func (s *Session) Events() []tracker.IntakeEvent {
	return s.store.Events()
}

func (s *Session) Today() tracker.TodaySummary {
	return s.store.Today()
}

func (s *Session) TodayPercentage() int {
	return s.stats.TodayPercentage()
}

func (s *Session) Daily(days int) []tracker.DailyStat {
	return s.stats.DailyStats(days)
}

func (s *Session) Weekly(weeks int) []tracker.WeeklyStat {
	return s.stats.WeeklyStats(weeks)
}

func (s *Session) Streak() int {
	return s.stats.CurrentStreak()
}

func (s *Session) Summary(days int) tracker.Summary {
	return s.stats.Summary(days)
}

func (s *Session) Achievements() []achievement.Achievement {
	return s.engine.Achievements()
}

func (s *Session) AchievementsByCategory(c achievement.Category) []achievement.Achievement {
	return s.engine.ByCategory(c)
}

func (s *Session) NewAchievements() []achievement.Achievement {
	return s.engine.NewlyUnlocked()
}

func (s *Session) UserStats() achievement.UserStats {
	return s.engine.Stats()
}

func (s *Session) DismissAchievements() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Dismiss()
	localstate.SaveOrLog(s.state, s.logger, localstate.KeyAchievements, s.engine.Snapshot())
}

// RecentActivity returns up to limit entries, newest first; limit <= 0 means all.
func (s *Session) RecentActivity(limit int) []localstate.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.activity) {
		limit = len(s.activity)
	}
	out := make([]localstate.Activity, limit)
	copy(out, s.activity[:limit])
	return out
}

// ResetAllData clears intakes, achievements and activity. Profile, reminders
// and the session itself stay.
func (s *Session) ResetAllData() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Reset()
	s.engine.Reset()
	s.activity = nil

	for _, key := range []string{localstate.KeyHistory, localstate.KeyToday, localstate.KeyAchievements, localstate.KeyStats} {
		err := s.state.Delete(key)
		if err != nil {
			s.logger.Warn("failed to delete local state", "key", key, "error", err)
		}
	}
	s.pushLocked(localstate.Activity{Type: localstate.ActivityReset, Message: "All data reset"})
	s.logger.Info("session data reset")
}

// SaveAnalytics stores the summary of the last period days.
func (s *Session) SaveAnalytics(ctx context.Context, period int) (*model.AnalyticsSnapshot, error) {
	if s.analytics == nil {
		return nil, apperror.Storage("analytics unavailable", nil)
	}
	err := validation.ValidateAnalyticsPeriod(period)
	if err != nil {
		return nil, err
	}
	start := s.now().In(s.loc).AddDate(0, 0, -(period - 1)).Format(tracker.DateLayout)
	return s.analytics.Save(ctx, s.userID, start, period, s.stats.Summary(period))
}

func (s *Session) Sound() (SoundRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sound == nil {
		return SoundRef{}, false
	}
	return *s.sound, true
}

// SetSound records the custom reminder sound; a nil ref clears it.
func (s *Session) SetSound(ref *SoundRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sound = ref
	if ref == nil {
		err := s.state.Delete(localstate.KeySound)
		if err != nil {
			s.logger.Warn("failed to delete local state", "key", localstate.KeySound, "error", err)
		}
		s.pushLocked(localstate.Activity{Type: localstate.ActivitySoundChanged, Message: "Default sound restored"})
		return
	}
	localstate.SaveOrLog(s.state, s.logger, localstate.KeySound, ref)
	s.pushLocked(localstate.Activity{Type: localstate.ActivitySoundChanged, Message: "Custom sound set to " + ref.OriginalName})
}

// Close stops reminders and waits for in-flight remote calls. It is safe to
// call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.scheduler.Stop()
		s.store.Close()

		s.mu.Lock()
		defer s.mu.Unlock()
		s.persistLocked(s.store.Today())
		s.logger.Debug("session closed")
	})
}

func (s *Session) reminderDue() {
	s.notify(reminder.ReasonInterval, "Time to drink some water")
}

func (s *Session) alarmFired(a reminder.Alarm) {
	s.notify(reminder.ReasonAlarm, "Alarm "+a.Time)
}

func (s *Session) notify(reason, message string) {
	s.mu.Lock()
	s.pushLocked(localstate.Activity{Type: localstate.ActivityReminder, Message: message})
	s.mu.Unlock()

	if s.notifier == nil {
		s.logger.Info("reminder due", "reason", reason)
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, notifyTimeout)
	defer cancel()
	err := s.notifier.Remind(ctx, s.userID, reason)
	if err != nil {
		s.logger.Warn("failed to deliver reminder", "reason", reason, "error", err)
	}
}

func (s *Session) pushLocked(a localstate.Activity) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	s.activity = localstate.PushActivity(s.activity, a)
	localstate.SaveOrLog(s.state, s.logger, localstate.KeyRecentActivity, s.activity)
}

func (s *Session) persistLocked(today tracker.TodaySummary) {
	localstate.SaveOrLog(s.state, s.logger, localstate.KeyToday, TodayCache{DateKey: today.DateKey, TotalMl: today.TotalMl})
	localstate.SaveOrLog(s.state, s.logger, localstate.KeyAchievements, s.engine.Snapshot())
	localstate.SaveOrLog(s.state, s.logger, localstate.KeyStats, s.engine.Stats())
}
