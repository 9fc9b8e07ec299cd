package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/templui/hydrate/internal/ctxkeys"
	"github.com/templui/hydrate/internal/service"
	"github.com/templui/hydrate/internal/session"
)

const maxHistoryDays = 366

type IntakeHandler struct {
	sessions      *session.Manager
	intakeService *service.IntakeService
}

func NewIntakeHandler(sessions *session.Manager, intakeService *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{
		sessions:      sessions,
		intakeService: intakeService,
	}
}

type addIntakeRequest struct {
	AmountMl    int   `json:"amount_ml"`
	TimestampMs int64 `json:"timestamp_ms"` // optional, defaults to now
}

func (h *IntakeHandler) Add(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	var req addIntakeRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var at time.Time
	if req.TimestampMs > 0 {
		at = time.UnixMilli(req.TimestampMs)
	}

	result, err := s.AddIntake(r.Context(), req.AmountMl, at)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, result)
}

// List returns the session's intake log, newest first.
func (h *IntakeHandler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"events": s.Events(),
		"today":  s.Today(),
	})
}

func (h *IntakeHandler) Undo(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, s.UndoLast())
}

func (h *IntakeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	result := s.RemoveIntake(r.PathValue("id"))
	if !result.Removed {
		WriteJSON(w, http.StatusNotFound, result)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// Sync reconciles with the server. A failed sync still answers with the local
// state and synced=false.
func (h *IntakeHandler) Sync(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	result, err := s.Sync(r.Context())
	if err != nil {
		slog.Warn("sync failed", "user_id", s.UserID(), "error", err)
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"synced": err == nil,
		"result": result,
		"today":  s.Today(),
	})
}

// History returns server-side per-day totals.
func (h *IntakeHandler) History(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	days, err := queryInt(r, "days", 30, maxHistoryDays)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	totals, err := h.intakeService.DailyTotals(r.Context(), user.ID, days)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	today, err := h.intakeService.DailyStats(r.Context(), user.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"days":  totals,
		"today": today,
	})
}
