package handler

import (
	"log/slog"
	"net/http"

	"github.com/templui/hydrate/internal/ctxkeys"
	"github.com/templui/hydrate/internal/service"
	"github.com/templui/hydrate/internal/session"
)

type AccountHandler struct {
	authService *service.AuthService
	userService *service.UserService
	sessions    *session.Manager
}

func NewAccountHandler(authService *service.AuthService, userService *service.UserService, sessions *session.Manager) *AccountHandler {
	return &AccountHandler{
		authService: authService,
		userService: userService,
		sessions:    sessions,
	}
}

func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	h.sessions.Close(user.ID)

	err := h.userService.DeleteAccount(r.Context(), user.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h.authService.ClearJWTCookie(w)
	slog.Info("account deleted", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}
