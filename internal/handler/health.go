package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/templui/hydrate/internal/ctxkeys"
	"github.com/templui/hydrate/internal/session"
)

type HealthHandler struct {
	db       *sqlx.DB
	sessions *session.Manager
}

func NewHealthHandler(db *sqlx.DB, sessions *session.Manager) *HealthHandler {
	return &HealthHandler{db: db, sessions: sessions}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	dbStatus := "ok"
	err := h.db.PingContext(ctx)
	if err != nil {
		status = http.StatusServiceUnavailable
		dbStatus = err.Error()
	}

	body := map[string]any{
		"db":       dbStatus,
		"sessions": h.sessions.Len(),
	}
	if cfg := ctxkeys.Config(r.Context()); cfg != nil {
		body["app"] = cfg.AppName
		body["env"] = cfg.AppEnv
	}
	WriteJSON(w, status, body)
}
