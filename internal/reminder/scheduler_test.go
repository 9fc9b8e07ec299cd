package reminder

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/hydrate/internal/apperror"
)

func TestScheduler_NewDefaults(t *testing.T) {
	s := NewScheduler(0, false, nil)

	st := s.State()
	assert.Equal(t, DefaultIntervalMinutes, st.IntervalMinutes)
	assert.Equal(t, 3600, st.RemainingSeconds)
	assert.False(t, st.Active)
	assert.Equal(t, "60:00", st.Formatted)
}

func TestScheduler_TickFiresAtZero(t *testing.T) {
	var fired int
	s := NewScheduler(1, true, func() { fired++ })

	for range 59 {
		s.Tick()
	}
	assert.Zero(t, fired)
	assert.Equal(t, 1, s.State().RemainingSeconds)

	s.Tick()
	assert.Equal(t, 1, fired)
	assert.Equal(t, 60, s.State().RemainingSeconds, "resets to the full interval")
}

func TestScheduler_PausedDoesNotTick(t *testing.T) {
	var fired int
	s := NewScheduler(1, true, func() { fired++ })
	s.Pause()

	for range 120 {
		s.Tick()
	}
	assert.Zero(t, fired)
	assert.Equal(t, 60, s.State().RemainingSeconds)
}

func TestScheduler_SnoozeKeepsActive(t *testing.T) {
	s := NewScheduler(60, false, nil)

	require.NoError(t, s.Snooze(5))
	st := s.State()
	assert.Equal(t, 300, st.RemainingSeconds)
	assert.False(t, st.Active)

	err := s.Snooze(0)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestScheduler_ResumeResets(t *testing.T) {
	s := NewScheduler(2, true, nil)
	for range 30 {
		s.Tick()
	}
	s.Pause()

	s.Resume()
	st := s.State()
	assert.True(t, st.Active)
	assert.Equal(t, 120, st.RemainingSeconds)
}

func TestScheduler_SetInterval(t *testing.T) {
	active := NewScheduler(60, true, nil)
	active.Tick()
	require.NoError(t, active.SetInterval(15))
	assert.Equal(t, 900, active.State().RemainingSeconds)

	paused := NewScheduler(60, false, nil)
	require.NoError(t, paused.SetInterval(15))
	assert.Equal(t, 3600, paused.State().RemainingSeconds, "inactive countdown is left alone")
	assert.Equal(t, 15, paused.State().IntervalMinutes)

	assert.Error(t, paused.SetInterval(-1))
	assert.Error(t, paused.SetInterval(MaxIntervalMinutes+1))
}

func TestScheduler_StartStop(t *testing.T) {
	var fired atomic.Int32
	s := NewScheduler(1, true, func() { fired.Add(1) }, WithTickInterval(time.Millisecond))
	require.NoError(t, s.Snooze(1))

	s.Start(context.Background())
	s.Start(context.Background()) // no-op
	assert.True(t, s.State().Running)

	assert.Eventually(t, func() bool { return fired.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.State().Running)
	s.Stop() // idempotent

	after := fired.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, fired.Load(), "no ticks after Stop")
}

func TestScheduler_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(1, true, nil, WithTickInterval(time.Millisecond))
	s.Start(ctx)

	cancel()
	s.Stop()
	assert.False(t, s.State().Running)
}

func TestScheduler_CheckAlarms(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 10, 0, time.UTC)
	alarms := NewAlarms(DefaultAlarms())

	var got []Alarm
	s := NewScheduler(60, false, nil,
		WithClock(func() time.Time { return now }),
		WithAlarms(alarms, func(a Alarm) { got = append(got, a) }),
	)

	s.CheckAlarms()
	s.CheckAlarms()
	require.Len(t, got, 1)
	assert.Equal(t, "09:00", got[0].Time)
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "0:00", FormatCountdown(-3))
	assert.Equal(t, "0:59", FormatCountdown(59))
	assert.Equal(t, "15:00", FormatCountdown(900))
}
