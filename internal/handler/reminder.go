package handler

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/templui/hydrate/internal/apperror"
	"github.com/templui/hydrate/internal/ctxkeys"
	"github.com/templui/hydrate/internal/model"
	"github.com/templui/hydrate/internal/reminder"
	"github.com/templui/hydrate/internal/service"
	"github.com/templui/hydrate/internal/session"
)

type ReminderHandler struct {
	sessions        *session.Manager
	reminderService *service.ReminderService
}

func NewReminderHandler(sessions *session.Manager, reminderService *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{
		sessions:        sessions,
		reminderService: reminderService,
	}
}

type reminderResponse struct {
	State     reminder.State          `json:"state"`
	Settings  *model.ReminderSettings `json:"settings"`
	Intervals []int                   `json:"intervals"`
	Snooze    []int                   `json:"snooze_options"`
}

type reminderUpdateRequest struct {
	IntervalMinutes int  `json:"interval_minutes"`
	Active          bool `json:"active"`
	EmailEnabled    bool `json:"email_enabled"`
}

type snoozeRequest struct {
	Minutes int `json:"minutes"`
}

type alarmRequest struct {
	Time    string `json:"time"`
	Enabled *bool  `json:"enabled"`
}

func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	h.respond(w, r, s, s.ReminderState())
}

// Update saves interval, active and email settings server-side and applies
// them to the running countdown.
func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	var req reminderUpdateRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	_, err = h.reminderService.Update(r.Context(), s.UserID(), req.Active, req.IntervalMinutes, req.EmailEnabled)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	_, err = s.SetReminderInterval(req.IntervalMinutes)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	state := s.PauseReminders()
	if req.Active {
		state = s.ResumeReminders()
	}
	h.respond(w, r, s, state)
}

func (h *ReminderHandler) Snooze(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	var req snoozeRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if !slices.Contains(service.SnoozeOptions, req.Minutes) {
		WriteError(w, r, apperror.Validation("invalid_snooze", "unsupported snooze duration").
			WithMeta("minutes", strconv.Itoa(req.Minutes)))
		return
	}

	state, err := s.SnoozeReminder(req.Minutes)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, state)
}

func (h *ReminderHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *ReminderHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *ReminderHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	_, err := h.reminderService.SetActive(r.Context(), s.UserID(), active)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if active {
		WriteJSON(w, http.StatusOK, s.ResumeReminders())
		return
	}
	WriteJSON(w, http.StatusOK, s.PauseReminders())
}

func (h *ReminderHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, s.ResetReminder())
}

func (h *ReminderHandler) respond(w http.ResponseWriter, r *http.Request, s *session.Session, state reminder.State) {
	settings, err := h.reminderService.Settings(r.Context(), s.UserID())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, reminderResponse{
		State:     state,
		Settings:  settings,
		Intervals: service.ReminderIntervals,
		Snooze:    service.SnoozeOptions,
	})
}

func (h *ReminderHandler) ListAlarms(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	alarms, err := h.reminderService.Alarms(r.Context(), user.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, alarms)
}

func (h *ReminderHandler) CreateAlarm(w http.ResponseWriter, r *http.Request) {
	var req alarmRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	user := ctxkeys.User(r.Context())
	enabled := req.Enabled == nil || *req.Enabled
	alarm, err := h.reminderService.AddAlarm(r.Context(), user.ID, req.Time, enabled)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.refreshAlarms(r, user.ID)
	WriteJSON(w, http.StatusCreated, alarm)
}

func (h *ReminderHandler) UpdateAlarm(w http.ResponseWriter, r *http.Request) {
	var req alarmRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	user := ctxkeys.User(r.Context())
	alarm := reminder.Alarm{ID: r.PathValue("id"), Time: req.Time, Enabled: req.Enabled == nil || *req.Enabled}
	alarm, err = h.reminderService.UpdateAlarm(r.Context(), user.ID, alarm)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.refreshAlarms(r, user.ID)
	WriteJSON(w, http.StatusOK, alarm)
}

func (h *ReminderHandler) DeleteAlarm(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	err := h.reminderService.DeleteAlarm(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.refreshAlarms(r, user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// refreshAlarms hands the stored alarms to an open session. A closed
// session loads them when it next opens.
func (h *ReminderHandler) refreshAlarms(r *http.Request, userID string) {
	s, ok := h.sessions.Get(userID)
	if !ok {
		return
	}
	alarms, err := h.reminderService.Alarms(r.Context(), userID)
	if err != nil {
		s.Logger().Warn("failed to reload alarms", "error", err)
		return
	}
	s.ReplaceAlarms(alarms)
}
