package session

import (
	"fmt"

	"github.com/templui/hydrate/internal/localstate"
	"github.com/templui/hydrate/internal/reminder"
)

func (s *Session) ReminderState() reminder.State {
	return s.scheduler.State()
}

func (s *Session) SnoozeReminder(minutes int) (reminder.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.scheduler.Snooze(minutes)
	if err != nil {
		return reminder.State{}, err
	}
	s.pushLocked(localstate.Activity{Type: localstate.ActivityReminder, Message: fmt.Sprintf("Snoozed for %d minutes", minutes)})
	return s.scheduler.State(), nil
}

func (s *Session) PauseReminders() reminder.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduler.Pause()
	s.saveReminderLocked()
	return s.scheduler.State()
}

func (s *Session) ResumeReminders() reminder.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduler.Resume()
	s.saveReminderLocked()
	return s.scheduler.State()
}

func (s *Session) ResetReminder() reminder.State {
	s.scheduler.Reset()
	return s.scheduler.State()
}

func (s *Session) SetReminderInterval(minutes int) (reminder.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.scheduler.SetInterval(minutes)
	if err != nil {
		return reminder.State{}, err
	}
	s.saveReminderLocked()
	s.pushLocked(localstate.Activity{Type: localstate.ActivitySettings, Message: fmt.Sprintf("Reminder every %d minutes", minutes)})
	return s.scheduler.State(), nil
}

func (s *Session) Alarms() []reminder.Alarm {
	return s.alarms.List()
}

// ReplaceAlarms swaps in the server's alarm list.
func (s *Session) ReplaceAlarms(alarms []reminder.Alarm) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alarms.Replace(alarms)
	s.saveReminderLocked()
}

func (s *Session) AddAlarm(clock string, enabled bool) (reminder.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alarm, err := s.alarms.Add(clock, enabled)
	if err != nil {
		return reminder.Alarm{}, err
	}
	s.saveReminderLocked()
	return alarm, nil
}

func (s *Session) UpdateAlarm(alarm reminder.Alarm) (reminder.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alarm, err := s.alarms.Update(alarm)
	if err != nil {
		return reminder.Alarm{}, err
	}
	s.saveReminderLocked()
	return alarm, nil
}

func (s *Session) RemoveAlarm(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.alarms.Remove(id)
	if err != nil {
		return err
	}
	s.saveReminderLocked()
	return nil
}

func (s *Session) saveReminderLocked() {
	st := s.scheduler.State()
	localstate.SaveOrLog(s.state, s.logger, localstate.KeyReminder, ReminderCache{
		IntervalMinutes: st.IntervalMinutes,
		Active:          st.Active,
		Alarms:          s.alarms.List(),
	})
}
