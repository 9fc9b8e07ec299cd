package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/templui/hydrate/internal/apperror"
	"github.com/templui/hydrate/internal/ctxkeys"
	"github.com/templui/hydrate/internal/model"
	"github.com/templui/hydrate/internal/service"
	"github.com/templui/hydrate/internal/session"
)

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	sessions    *session.Manager
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		sessions:    sessions,
	}
}

type signupRequest struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	WeightKg      *float64 `json:"weight_kg"`
	ActivityLevel string   `json:"activity_level"`
	Climate       string   `json:"climate"`
	DailyGoalMl   *int     `json:"daily_goal_ml"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	UserID    string         `json:"user_id"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Profile   *model.Profile `json:"profile,omitempty"`
}

var errLoginFailed = apperror.New(apperror.KindUnauthorized, "invalid_credentials", "invalid email or password")

// Signup registers a user. Signing up again with a known email returns the
// existing user id without a token.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	existing, err := h.userService.ByEmail(r.Context(), req.Email)
	if err == nil {
		WriteJSON(w, http.StatusOK, map[string]string{"user_id": existing.ID})
		return
	}

	userID, err := h.userService.CreateUser(r.Context(), service.CreateUserInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		WeightKg:      req.WeightKg,
		ActivityLevel: req.ActivityLevel,
		Climate:       req.Climate,
		DailyGoalMl:   req.DailyGoalMl,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	user, err := h.userService.ByID(r.Context(), userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.signIn(w, r, user, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	result := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if !result.Success {
		slog.Warn("login failed", "email", req.Email, "reason", result.Error)
		WriteError(w, r, errLoginFailed)
		return
	}

	h.signIn(w, r, result.User, http.StatusOK)
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, user *model.User, status int) {
	token, expiresAt, err := h.authService.GenerateJWT(user)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.authService.SetJWTCookie(w, token, expiresAt)

	_, err = h.sessions.Open(r.Context(), user.ID)
	if err != nil {
		// the session opens lazily on the next request
		slog.Warn("failed to open session", "user_id", user.ID, "error", err)
	}

	profile, err := h.userService.Profile(r.Context(), user.ID)
	if err != nil {
		slog.Warn("failed to load profile", "user_id", user.ID, "error", err)
	}

	slog.Info("user signed in", "user_id", user.ID)
	WriteJSON(w, status, authResponse{UserID: user.ID, Token: token, ExpiresAt: expiresAt, Profile: profile})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if user := ctxkeys.User(r.Context()); user != nil {
		h.sessions.Close(user.ID)
	}
	h.authService.ClearJWTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"user":    ctxkeys.User(r.Context()),
		"profile": ctxkeys.Profile(r.Context()),
	})
}
