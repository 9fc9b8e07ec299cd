package handler

import (
	"net/http"

	"github.com/templui/hydrate/internal/ctxkeys"
	"github.com/templui/hydrate/internal/model"
	"github.com/templui/hydrate/internal/service"
	"github.com/templui/hydrate/internal/session"
)

type SettingsHandler struct {
	userService *service.UserService
	sessions    *session.Manager
}

func NewSettingsHandler(userService *service.UserService, sessions *session.Manager) *SettingsHandler {
	return &SettingsHandler{
		userService: userService,
		sessions:    sessions,
	}
}

type settingsResponse struct {
	Profile *model.Profile `json:"profile"`
	GoalMl  int            `json:"goal_ml"`
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	profile, err := h.userService.Profile(r.Context(), s.UserID())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, settingsResponse{Profile: profile, GoalMl: s.Goal()})
}

// Update applies a partial settings update and hands the new profile and
// reminder interval to the open session.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	var update service.SettingsUpdate
	err := decodeJSON(w, r, &update)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	profile, err := h.userService.UpdateSettings(r.Context(), s.UserID(), update)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	s.SetProfile(*session.ProfileFrom(profile))
	if update.ReminderInterval != nil {
		_, err = s.SetReminderInterval(*update.ReminderInterval)
		if err != nil {
			WriteError(w, r, err)
			return
		}
	}

	WriteJSON(w, http.StatusOK, settingsResponse{Profile: profile, GoalMl: s.Goal()})
}

// ResetData wipes history, achievements and analytics on the server and in
// the session. The account and settings stay.
func (h *SettingsHandler) ResetData(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	result, err := h.userService.DeleteUserData(r.Context(), user.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if s, ok := h.sessions.Get(user.ID); ok {
		s.ResetAllData()
	}
	WriteJSON(w, http.StatusOK, result)
}
