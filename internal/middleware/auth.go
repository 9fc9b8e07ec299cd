package middleware

import (
	"net/http"
	"strings"

	"github.com/templui/hydrate/internal/ctxkeys"
	"github.com/templui/hydrate/internal/handler"
	"github.com/templui/hydrate/internal/service"
)

// AuthMiddleware reads a JWT from the auth cookie or a bearer header and adds
// the user and profile to the context when it is valid.
func AuthMiddleware(authService *service.AuthService, userService *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			reject := func() {
				if fromCookie {
					authService.ClearJWTCookie(w)
				}
				next.ServeHTTP(w, r)
			}

			userID, err := authService.UserID(token)
			if err != nil {
				reject()
				return
			}

			user, err := userService.ByID(r.Context(), userID)
			if err != nil {
				reject()
				return
			}
			user.PasswordHash = nil

			profile, err := userService.Profile(r.Context(), userID)
			if err != nil {
				reject()
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			ctx = ctxkeys.WithProfile(ctx, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token), false
	}
	cookie, err := r.Cookie(service.AuthCookieName)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

// RequireAuth rejects anonymous requests with a JSON 401.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) == nil {
			handler.WriteError(w, r, handler.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireGuest rejects requests that already carry a valid session.
func RequireGuest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) != nil {
			handler.WriteError(w, r, handler.ErrAlreadyAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	}
}
