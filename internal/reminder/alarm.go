package reminder

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/templui/hydrate/internal/apperror"
)

const clockLayout = "15:04"

var (
	ErrInvalidAlarmTime = apperror.Validation("invalid_alarm_time", "alarm time must be HH:MM")
	ErrAlarmNotFound    = apperror.NotFound("alarm_not_found", "alarm not found")
)

// Alarm fires once a day at a fixed wall-clock time.
type Alarm struct {
	ID      string `json:"id"`
	Time    string `json:"time"` // HH:MM
	Enabled bool   `json:"enabled"`
}

// DefaultAlarms covers waking hours every two hours, 07:00 to 21:00.
func DefaultAlarms() []Alarm {
	var out []Alarm
	for hour := 7; hour <= 21; hour += 2 {
		out = append(out, Alarm{
			ID:      uuid.NewString(),
			Time:    fmt.Sprintf("%02d:00", hour),
			Enabled: true,
		})
	}
	return out
}

// ParseClock validates an HH:MM string and returns it normalized.
func ParseClock(s string) (string, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return "", ErrInvalidAlarmTime.WithMeta("time", s)
	}
	return t.Format(clockLayout), nil
}

// Alarms is a set of daily alarms. Due reports each alarm at most once per
// calendar minute no matter how often it is polled.
type Alarms struct {
	mu     sync.Mutex
	alarms []Alarm
	fired  map[string]string // alarm id -> minute it last fired
}

func NewAlarms(alarms []Alarm) *Alarms {
	return &Alarms{
		alarms: slices.Clone(alarms),
		fired:  make(map[string]string),
	}
}

func (a *Alarms) List() []Alarm {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.alarms)
}

// Replace swaps the whole set, e.g. after loading saved settings.
func (a *Alarms) Replace(alarms []Alarm) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alarms = slices.Clone(alarms)
	a.fired = make(map[string]string)
}

func (a *Alarms) Add(clock string, enabled bool) (Alarm, error) {
	clock, err := ParseClock(clock)
	if err != nil {
		return Alarm{}, err
	}

	alarm := Alarm{ID: uuid.NewString(), Time: clock, Enabled: enabled}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.alarms = append(a.alarms, alarm)
	return alarm, nil
}

func (a *Alarms) Update(alarm Alarm) (Alarm, error) {
	clock, err := ParseClock(alarm.Time)
	if err != nil {
		return Alarm{}, err
	}
	alarm.Time = clock

	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.indexLocked(alarm.ID)
	if i < 0 {
		return Alarm{}, ErrAlarmNotFound.WithMeta("alarm_id", alarm.ID)
	}
	a.alarms[i] = alarm
	delete(a.fired, alarm.ID)
	return alarm, nil
}

func (a *Alarms) Remove(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.indexLocked(id)
	if i < 0 {
		return ErrAlarmNotFound.WithMeta("alarm_id", id)
	}
	a.alarms = slices.Delete(a.alarms, i, i+1)
	delete(a.fired, id)
	return nil
}

// Due returns the enabled alarms matching now's HH:MM that have not fired
// during this minute yet.
func (a *Alarms) Due(now time.Time) []Alarm {
	clock := now.Format(clockLayout)
	minute := now.Format("2006-01-02T15:04")

	a.mu.Lock()
	defer a.mu.Unlock()

	var due []Alarm
	for _, alarm := range a.alarms {
		if !alarm.Enabled || alarm.Time != clock {
			continue
		}
		if a.fired[alarm.ID] == minute {
			continue
		}
		a.fired[alarm.ID] = minute
		due = append(due, alarm)
	}
	return due
}

func (a *Alarms) indexLocked(id string) int {
	return slices.IndexFunc(a.alarms, func(al Alarm) bool { return al.ID == id })
}
