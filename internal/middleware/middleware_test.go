package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/hydrate/internal/ctxkeys"
	"github.com/templui/hydrate/internal/db/dbtest"
	"github.com/templui/hydrate/internal/repository"
	"github.com/templui/hydrate/internal/service"
)

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    2,
		window:   time.Minute,
		now:      func() time.Time { return now },
	}

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "limits are per IP")

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("1.2.3.4"), "the window slides")

	now = now.Add(3 * time.Minute)
	rl.cleanup()
	assert.Empty(t, rl.requests)
}

func TestRateLimiter_Limit(t *testing.T) {
	rl := &RateLimiter{requests: make(map[string][]time.Time), limit: 1, window: time.Minute, now: time.Now}
	h := rl.Limit(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")

	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4321"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Real-IP", " 198.51.100.7 ")
	assert.Equal(t, "198.51.100.7", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 198.51.100.7")
	assert.Equal(t, "203.0.113.5", clientIP(req))
}

func TestRequestLogging_RequestID(t *testing.T) {
	h := RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/today", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/stats/today", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, rec.Header().Get(RequestIDHeader), "health probes pass through untouched")
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }),
		mw("first"), mw("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func authServices(t *testing.T) (*service.AuthService, *service.UserService) {
	db := dbtest.New(t)
	reminders := service.NewReminderService(repository.NewReminderRepository(db), repository.NewAlarmRepository(db))
	users := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewProfileRepository(db),
		repository.NewIntakeRepository(db),
		repository.NewAchievementRepository(db),
		repository.NewAnalyticsRepository(db),
		reminders,
		nil,
		nil,
		0,
	)
	return service.NewAuthService("test-secret", time.Hour, false), users
}

func TestAuthMiddleware(t *testing.T) {
	auth, users := authServices(t)
	ctx := context.Background()

	id, err := users.CreateUser(ctx, service.CreateUserInput{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	user, err := users.ByID(ctx, id)
	require.NoError(t, err)
	token, _, err := auth.GenerateJWT(user)
	require.NoError(t, err)

	var seen string
	h := AuthMiddleware(auth, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ""
		if u := ctxkeys.User(r.Context()); u != nil {
			seen = u.ID
			assert.Nil(t, u.PasswordHash)
			assert.NotNil(t, ctxkeys.Profile(r.Context()))
		}
		RequireAuth(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })(w, r)
	}))

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, id, seen)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: service.AuthCookieName, Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, id, seen)
	})

	t.Run("bad cookie is cleared", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: service.AuthCookieName, Value: "garbage"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, seen)
		assert.Contains(t, rec.Header().Get("Set-Cookie"), service.AuthCookieName+"=;")
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unauthenticated")
	})
}
