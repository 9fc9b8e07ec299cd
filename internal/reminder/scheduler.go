package reminder

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/templui/hydrate/internal/apperror"
)

const (
	DefaultIntervalMinutes = 60
	MaxIntervalMinutes     = 24 * 60

	tickEvery      = time.Second
	alarmPollEvery = 30 * time.Second
)

// Why a reminder fired.
const (
	ReasonInterval = "interval"
	ReasonAlarm    = "alarm"
)

var ErrInvalidMinutes = apperror.Validation("invalid_minutes", "minutes must be between 1 and 1440")

// State is a point-in-time view of the countdown.
type State struct {
	IntervalMinutes  int    `json:"interval_minutes"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Active           bool   `json:"active"`
	Running          bool   `json:"running"`
	Formatted        string `json:"formatted"` // m:ss
}

type Option func(*Scheduler)

// WithAlarms polls alarms while the scheduler runs and calls onAlarm for each
// one that comes due.
func WithAlarms(alarms *Alarms, onAlarm func(Alarm)) Option {
	return func(s *Scheduler) {
		s.alarms = alarms
		s.onAlarm = onAlarm
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithTickInterval overrides the one-second countdown step; tests use it.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.tickEvery = d }
}

// Scheduler counts down to the next reminder while active and invokes onDue
// at zero, then starts over from the full interval.
type Scheduler struct {
	mu        sync.Mutex
	interval  int // minutes
	remaining int // seconds
	active    bool

	onDue   func()
	alarms  *Alarms
	onAlarm func(Alarm)
	now     func() time.Time

	tickEvery time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewScheduler(intervalMinutes int, active bool, onDue func(), opts ...Option) *Scheduler {
	if intervalMinutes <= 0 || intervalMinutes > MaxIntervalMinutes {
		intervalMinutes = DefaultIntervalMinutes
	}
	s := &Scheduler{
		interval:  intervalMinutes,
		remaining: intervalMinutes * 60,
		active:    active,
		onDue:     onDue,
		now:       time.Now,
		tickEvery: tickEvery,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the countdown loop until ctx is done or Stop is called.
// Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

// Stop halts the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()

	var poll <-chan time.Time
	if s.alarms != nil {
		alarmTicker := time.NewTicker(alarmPollEvery)
		defer alarmTicker.Stop()
		poll = alarmTicker.C
		s.CheckAlarms()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		case <-poll:
			s.CheckAlarms()
		}
	}
}

// Tick advances the countdown by one second.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.remaining--
	due := s.remaining <= 0
	if due {
		s.remaining = s.interval * 60
	}
	s.mu.Unlock()

	if due && s.onDue != nil {
		s.onDue()
	}
}

// CheckAlarms fires every alarm due at the current minute.
func (s *Scheduler) CheckAlarms() {
	if s.alarms == nil {
		return
	}
	for _, alarm := range s.alarms.Due(s.now()) {
		if s.onAlarm != nil {
			s.onAlarm(alarm)
		}
	}
}

func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = s.interval * 60
}

// Snooze postpones the next reminder by minutes without changing Active.
func (s *Scheduler) Snooze(minutes int) error {
	if err := validMinutes(minutes); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = minutes * 60
	return nil
}

func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
}

// Resume reactivates the countdown from the full interval.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.remaining = s.interval * 60
}

// SetInterval changes the interval; an active countdown restarts immediately.
func (s *Scheduler) SetInterval(minutes int) error {
	if err := validMinutes(minutes); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = minutes
	if s.active {
		s.remaining = minutes * 60
	}
	return nil
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		IntervalMinutes:  s.interval,
		RemainingSeconds: s.remaining,
		Active:           s.active,
		Running:          s.cancel != nil,
		Formatted:        FormatCountdown(s.remaining),
	}
}

// FormatCountdown renders seconds as m:ss.
func FormatCountdown(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func validMinutes(minutes int) error {
	if minutes <= 0 || minutes > MaxIntervalMinutes {
		return ErrInvalidMinutes.WithMeta("minutes", strconv.Itoa(minutes))
	}
	return nil
}
