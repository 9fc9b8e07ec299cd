package handler

import (
	"net/http"

	"github.com/templui/hydrate/internal/session"
	"github.com/templui/hydrate/internal/tracker"
)

const (
	maxStatDays  = 366
	maxStatWeeks = 52
)

type StatsHandler struct {
	sessions *session.Manager
}

func NewStatsHandler(sessions *session.Manager) *StatsHandler {
	return &StatsHandler{sessions: sessions}
}

type todayResponse struct {
	tracker.TodaySummary
	GoalMl     int `json:"goal_ml"`
	Percentage int `json:"percentage"`
	Streak     int `json:"streak"`
}

func (h *StatsHandler) Today(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, todayResponse{
		TodaySummary: s.Today(),
		GoalMl:       s.Goal(),
		Percentage:   s.TodayPercentage(),
		Streak:       s.Streak(),
	})
}

func (h *StatsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	days, err := queryInt(r, "days", 7, maxStatDays)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, s.Daily(days))
}

func (h *StatsHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	weeks, err := queryInt(r, "weeks", 4, maxStatWeeks)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, s.Weekly(weeks))
}

func (h *StatsHandler) Streak(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	stats := s.UserStats()
	WriteJSON(w, http.StatusOK, map[string]int{
		"current_streak": s.Streak(),
		"longest_streak": stats.LongestStreak,
	})
}

func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	days, err := queryInt(r, "days", 30, maxStatDays)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"summary":    s.Summary(days),
		"user_stats": s.UserStats(),
		"activity":   s.RecentActivity(10),
	})
}
