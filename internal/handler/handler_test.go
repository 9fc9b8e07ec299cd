package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/hydrate/internal/app"
	"github.com/templui/hydrate/internal/config"
	"github.com/templui/hydrate/internal/db/dbtest"
	"github.com/templui/hydrate/internal/routes"
)

type testServer struct {
	t   *testing.T
	srv *httptest.Server
	app *app.App
}

func newServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		AppName:                 "Hydrate",
		AppEnv:                  "development",
		AppURL:                  "http://localhost",
		JWTSecret:               "test-secret",
		JWTExpiry:               time.Hour,
		TimeZone:                "UTC",
		DefaultReminderInterval: 60,
		SyncRetryMax:            1,
		SyncTimeout:             time.Second,
	}

	a, err := app.NewWithDB(context.Background(), cfg, dbtest.New(t))
	require.NoError(t, err)

	srv := httptest.NewServer(routes.SetupRoutes(a))
	t.Cleanup(func() {
		srv.Close()
		a.Sessions.CloseAll()
	})
	return &testServer{t: t, srv: srv, app: a}
}

type response struct {
	status int
	body   map[string]any
	list   []any
	header http.Header
}

func (s *testServer) do(method, path, token string, body any) response {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	require.NoError(s.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token)
}

func (s *testServer) send(req *http.Request, token string) response {
	s.t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(res.Body)
	require.NoError(s.t, err)

	out := response{status: res.StatusCode, header: res.Header}
	if len(bytes.TrimSpace(raw)) > 0 {
		if raw[0] == '[' {
			require.NoError(s.t, json.Unmarshal(raw, &out.list))
		} else {
			require.NoError(s.t, json.Unmarshal(raw, &out.body))
		}
	}
	return out
}

// signup registers a user with a pinned 2000 ml goal and returns its token.
func (s *testServer) signup(email string) string {
	s.t.Helper()

	res := s.do(http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name":          "Ada",
		"email":         email,
		"password":      "correct horse",
		"daily_goal_ml": 2000,
	})
	require.Equal(s.t, http.StatusCreated, res.status, res.body)
	token, _ := res.body["token"].(string)
	require.NotEmpty(s.t, token)
	return token
}

func TestAuthHandler_SignupLoginMe(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	again := s.do(http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email":    "ADA@example.com",
		"password": "correct horse",
	})
	assert.Equal(t, http.StatusOK, again.status)
	assert.NotEmpty(t, again.body["user_id"])
	assert.Nil(t, again.body["token"], "an existing account gets no token")

	bad := s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ada@example.com", "password": "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, bad.status)
	assert.Equal(t, "invalid_credentials", bad.body["code"])

	ok := s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ada@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, ok.status)
	assert.NotEmpty(t, ok.body["token"])

	me := s.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, me.status)
	user := me.body["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")

	anon := s.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, anon.status)
	assert.Equal(t, "unauthenticated", anon.body["code"])
}

func TestAuthHandler_SignupRejectsBadInput(t *testing.T) {
	s := newServer(t)

	res := s.do(http.MethodPost, "/api/auth/signup", "", map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = s.do(http.MethodPost, "/api/auth/signup", "", map[string]any{"email": "a@example.com", "admin": true})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "invalid_json", res.body["code"])
}

func TestIntakeHandler_AddListUndo(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	added := s.do(http.MethodPost, "/api/intakes", token, map[string]any{"amount_ml": 250})
	require.Equal(t, http.StatusCreated, added.status, added.body)
	today := added.body["today"].(map[string]any)
	assert.EqualValues(t, 250, today["total_ml"])
	assert.EqualValues(t, 13, added.body["percentage"])

	time.Sleep(5 * time.Millisecond)
	s.do(http.MethodPost, "/api/intakes", token, map[string]any{"amount_ml": 500})

	list := s.do(http.MethodGet, "/api/intakes", token, nil)
	require.Equal(t, http.StatusOK, list.status)
	assert.Len(t, list.body["events"], 2)
	assert.EqualValues(t, 750, list.body["today"].(map[string]any)["total_ml"])

	undo := s.do(http.MethodPost, "/api/intakes/undo", token, nil)
	require.Equal(t, http.StatusOK, undo.status)
	assert.Equal(t, true, undo.body["removed"])
	assert.EqualValues(t, 500, undo.body["event"].(map[string]any)["amount_ml"])
	assert.EqualValues(t, 250, undo.body["today"].(map[string]any)["total_ml"])
}

func TestIntakeHandler_Validation(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	res := s.do(http.MethodPost, "/api/intakes", token, map[string]any{"amount_ml": 0})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "invalid_amount", res.body["code"])

	res = s.do(http.MethodDelete, "/api/intakes/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, false, res.body["removed"])

	res = s.do(http.MethodGet, "/api/intakes/history?days=999", token, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestIntakeHandler_HistoryAfterSync(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	s.do(http.MethodPost, "/api/intakes", token, map[string]any{"amount_ml": 300})

	assert.Eventually(t, func() bool {
		res := s.do(http.MethodGet, "/api/intakes/history?days=1", token, nil)
		days, _ := res.body["days"].([]any)
		return res.status == http.StatusOK && len(days) == 1
	}, 2*time.Second, 20*time.Millisecond, "the intake reaches the server")

	sync := s.do(http.MethodPost, "/api/sync", token, nil)
	require.Equal(t, http.StatusOK, sync.status)
	assert.Equal(t, true, sync.body["synced"])
	assert.EqualValues(t, 300, sync.body["today"].(map[string]any)["total_ml"])
}

func TestStatsHandler_Today(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")
	s.do(http.MethodPost, "/api/intakes", token, map[string]any{"amount_ml": 500})

	res := s.do(http.MethodGet, "/api/stats/today", token, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.EqualValues(t, 500, res.body["total_ml"])
	assert.EqualValues(t, 2000, res.body["goal_ml"])
	assert.EqualValues(t, 25, res.body["percentage"])

	daily := s.do(http.MethodGet, "/api/stats/daily?days=3", token, nil)
	require.Equal(t, http.StatusOK, daily.status)
	assert.Len(t, daily.list, 3)

	bad := s.do(http.MethodGet, "/api/stats/weekly?weeks=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, bad.status)
}

func TestAchievementHandler_List(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	res := s.do(http.MethodGet, "/api/achievements", token, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Len(t, res.body["achievements"], 14)

	res = s.do(http.MethodGet, "/api/achievements?category=streak", token, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Len(t, res.body["achievements"], 5)

	res = s.do(http.MethodGet, "/api/achievements?category=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = s.do(http.MethodPost, "/api/achievements/dismiss", token, nil)
	assert.Equal(t, http.StatusNoContent, res.status)
}

func TestReminderHandler_SettingsAndAlarms(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	res := s.do(http.MethodPut, "/api/reminders", token, map[string]any{"interval_minutes": 30, "active": true})
	require.Equal(t, http.StatusOK, res.status, res.body)
	state := res.body["state"].(map[string]any)
	assert.EqualValues(t, 30, state["interval_minutes"])
	assert.Equal(t, true, state["active"])

	res = s.do(http.MethodPost, "/api/reminders/snooze", token, map[string]any{"minutes": 7})
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = s.do(http.MethodPost, "/api/reminders/snooze", token, map[string]any{"minutes": 5})
	require.Equal(t, http.StatusOK, res.status)
	assert.EqualValues(t, 300, res.body["remaining_seconds"])

	res = s.do(http.MethodPost, "/api/reminders/pause", token, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, false, res.body["active"])

	alarm := s.do(http.MethodPost, "/api/alarms", token, map[string]any{"time": "6:05"})
	require.Equal(t, http.StatusCreated, alarm.status, alarm.body)
	assert.Equal(t, "06:05", alarm.body["time"])
	id := alarm.body["id"].(string)

	list := s.do(http.MethodGet, "/api/alarms", token, nil)
	require.Equal(t, http.StatusOK, list.status)
	assert.Len(t, list.list, 9, "eight defaults plus one")

	res = s.do(http.MethodPost, "/api/alarms", token, map[string]any{"time": "25:00"})
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = s.do(http.MethodDelete, "/api/alarms/"+id, token, nil)
	assert.Equal(t, http.StatusNoContent, res.status)
	res = s.do(http.MethodDelete, "/api/alarms/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestSettingsHandler_Update(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	res := s.do(http.MethodPatch, "/api/settings", token, map[string]any{"daily_goal_ml": 1800})
	require.Equal(t, http.StatusOK, res.status, res.body)
	assert.EqualValues(t, 1800, res.body["goal_ml"])

	today := s.do(http.MethodGet, "/api/stats/today", token, nil)
	assert.EqualValues(t, 1800, today.body["goal_ml"], "the open session picks up the new goal")

	res = s.do(http.MethodPatch, "/api/settings", token, map[string]any{"time_zone": "Mars/Olympus"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "invalid_time_zone", res.body["code"])
}

func TestSettingsHandler_ResetData(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")
	s.do(http.MethodPost, "/api/intakes", token, map[string]any{"amount_ml": 400})

	res := s.do(http.MethodPost, "/api/data/reset", token, nil)
	require.Equal(t, http.StatusOK, res.status)

	today := s.do(http.MethodGet, "/api/stats/today", token, nil)
	assert.EqualValues(t, 0, today.body["total_ml"])
}

func TestSoundHandler_WithoutStorage(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	res := s.do(http.MethodGet, "/api/sound", token, nil)
	assert.Equal(t, http.StatusNotFound, res.status)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("sound", "ding.mp3")
	require.NoError(t, err)
	_, err = part.Write(append([]byte("ID3"), make([]byte, 64)...))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/api/sound", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res = s.send(req, token)
	assert.Equal(t, http.StatusServiceUnavailable, res.status)

	req, err = http.NewRequest(http.MethodPost, s.srv.URL+"/api/sound", nil)
	require.NoError(t, err)
	res = s.send(req, token)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "sound_missing", res.body["code"])
}

func TestAnalyticsHandler_SaveList(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	res := s.do(http.MethodPost, "/api/analytics", token, map[string]any{"period": 7})
	require.Equal(t, http.StatusCreated, res.status, res.body)
	assert.EqualValues(t, 7, res.body["period"])
	assert.IsType(t, map[string]any{}, res.body["payload"])

	res = s.do(http.MethodPost, "/api/analytics", token, map[string]any{"period": 5})
	assert.Equal(t, http.StatusBadRequest, res.status)

	list := s.do(http.MethodGet, "/api/analytics", token, nil)
	require.Equal(t, http.StatusOK, list.status)
	assert.Len(t, list.list, 1)
}

func TestAccountHandler_DeleteAccount(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	res := s.do(http.MethodDelete, "/api/account", token, nil)
	require.Equal(t, http.StatusNoContent, res.status)
	assert.Zero(t, s.app.Sessions.Len())

	res = s.do(http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
}

func TestHealthHandler(t *testing.T) {
	s := newServer(t)

	res := s.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "ok", res.body["db"])
	assert.Equal(t, "Hydrate", res.body["app"])

	res = s.do(http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "route_not_found", res.body["code"])
}
