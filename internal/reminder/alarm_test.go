package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/hydrate/internal/apperror"
)

func TestDefaultAlarms(t *testing.T) {
	alarms := DefaultAlarms()

	times := make([]string, len(alarms))
	for i, a := range alarms {
		times[i] = a.Time
		assert.True(t, a.Enabled)
		assert.NotEmpty(t, a.ID)
	}
	assert.Equal(t, []string{"07:00", "09:00", "11:00", "13:00", "15:00", "17:00", "19:00", "21:00"}, times)
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("7:05")
	require.NoError(t, err)
	assert.Equal(t, "07:05", got)

	for _, bad := range []string{"", "25:00", "12:60", "noon"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, apperror.ErrValidation, bad)
	}
}

func TestAlarms_DueOncePerMinute(t *testing.T) {
	a := NewAlarms(nil)
	alarm, err := a.Add("12:30", true)
	require.NoError(t, err)
	_, err = a.Add("12:30", false)
	require.NoError(t, err)

	at := time.Date(2025, 6, 15, 12, 30, 5, 0, time.UTC)

	assert.Equal(t, []Alarm{alarm}, a.Due(at))
	assert.Empty(t, a.Due(at.Add(30*time.Second)), "same minute")
	assert.Empty(t, a.Due(at.Add(time.Minute)), "next minute does not match")
	assert.Equal(t, []Alarm{alarm}, a.Due(at.AddDate(0, 0, 1)), "fires again the next day")
}

func TestAlarms_UpdateAndRemove(t *testing.T) {
	a := NewAlarms(nil)
	alarm, err := a.Add("08:00", true)
	require.NoError(t, err)

	alarm.Time = "8:15"
	alarm.Enabled = false
	updated, err := a.Update(alarm)
	require.NoError(t, err)
	assert.Equal(t, "08:15", updated.Time)
	assert.Equal(t, []Alarm{updated}, a.List())

	_, err = a.Update(Alarm{ID: "missing", Time: "08:00"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, a.Remove(alarm.ID))
	assert.Empty(t, a.List())
	assert.ErrorIs(t, a.Remove(alarm.ID), apperror.ErrNotFound)
}

func TestAlarms_Replace(t *testing.T) {
	a := NewAlarms(DefaultAlarms())
	a.Replace([]Alarm{{ID: "x", Time: "10:00", Enabled: true}})

	assert.Len(t, a.List(), 1)
	assert.Len(t, a.Due(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)), 1)
}
