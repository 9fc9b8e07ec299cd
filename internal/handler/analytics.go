package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/templui/hydrate/internal/ctxkeys"
	"github.com/templui/hydrate/internal/model"
	"github.com/templui/hydrate/internal/service"
	"github.com/templui/hydrate/internal/session"
)

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
	sessions         *session.Manager
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService, sessions *session.Manager) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		sessions:         sessions,
	}
}

type analyticsRequest struct {
	Period int `json:"period"`
}

type snapshotResponse struct {
	ID        string          `json:"id"`
	StartDate string          `json:"start_date"`
	Period    int             `json:"period"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func toSnapshotResponse(s *model.AnalyticsSnapshot) snapshotResponse {
	return snapshotResponse{
		ID:        s.ID,
		StartDate: s.StartDate,
		Period:    s.Period,
		Payload:   json.RawMessage(s.Payload),
		CreatedAt: s.CreatedAt,
	}
}

// Save stores a summary of the last period days.
func (h *AnalyticsHandler) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	var req analyticsRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	snapshot, err := s.SaveAnalytics(r.Context(), req.Period)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toSnapshotResponse(snapshot))
}

func (h *AnalyticsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	limit, err := queryInt(r, "limit", 20, 100)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	snapshots, err := h.analyticsService.List(r.Context(), user.ID, limit)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	out := make([]snapshotResponse, len(snapshots))
	for i, snap := range snapshots {
		out[i] = toSnapshotResponse(snap)
	}
	WriteJSON(w, http.StatusOK, out)
}
