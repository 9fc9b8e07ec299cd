package handler

import (
	"net/http"

	"github.com/templui/hydrate/internal/achievement"
	"github.com/templui/hydrate/internal/apperror"
	"github.com/templui/hydrate/internal/ctxkeys"
	"github.com/templui/hydrate/internal/service"
	"github.com/templui/hydrate/internal/session"
)

type AchievementHandler struct {
	sessions           *session.Manager
	achievementService *service.AchievementService
}

func NewAchievementHandler(sessions *session.Manager, achievementService *service.AchievementService) *AchievementHandler {
	return &AchievementHandler{
		sessions:           sessions,
		achievementService: achievementService,
	}
}

// List returns every achievement with progress, optionally filtered by
// ?category=.
func (h *AchievementHandler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	list := s.Achievements()
	if c := r.URL.Query().Get("category"); c != "" {
		category := achievement.Category(c)
		if !category.Valid() {
			WriteError(w, r, apperror.Validation("invalid_category", "unknown achievement category").WithMeta("category", c))
			return
		}
		list = s.AchievementsByCategory(category)
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"achievements": list,
		"stats":        s.UserStats(),
	})
}

// New returns unlocks not yet dismissed.
func (h *AchievementHandler) New(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, s.NewAchievements())
}

func (h *AchievementHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	s.DismissAchievements()
	w.WriteHeader(http.StatusNoContent)
}

// Records returns the server-side awards, newest first. ?recent=N limits it.
func (h *AchievementHandler) Records(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	if r.URL.Query().Has("recent") {
		limit, err := queryInt(r, "recent", 5, 100)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		records, err := h.achievementService.RecentAchievements(r.Context(), user.ID, limit)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, records)
		return
	}

	records, err := h.achievementService.UserAchievements(r.Context(), user.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	goals, err := h.achievementService.DailyGoalsReached(r.Context(), user.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"records":             records,
		"daily_goals_reached": goals,
	})
}
