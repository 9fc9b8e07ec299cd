package handler

import (
	"net/http"

	"github.com/templui/hydrate/internal/ctxkeys"
	"github.com/templui/hydrate/internal/session"
)

// currentSession opens the signed-in user's session. On failure the error is
// written and ok is false.
func currentSession(w http.ResponseWriter, r *http.Request, sessions *session.Manager) (*session.Session, bool) {
	user := ctxkeys.User(r.Context())
	if user == nil {
		WriteError(w, r, ErrUnauthenticated)
		return nil, false
	}

	s, err := sessions.Open(r.Context(), user.ID)
	if err != nil {
		WriteError(w, r, err)
		return nil, false
	}
	return s, true
}
