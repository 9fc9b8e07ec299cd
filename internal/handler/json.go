package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/templui/hydrate/internal/apperror"
	"github.com/templui/hydrate/internal/ctxkeys"
)

const maxJSONBody = 1 << 20

var (
	ErrUnauthenticated      = apperror.New(apperror.KindUnauthorized, "unauthenticated", "authentication required")
	ErrAlreadyAuthenticated = apperror.New(apperror.KindConflict, "already_authenticated", "already signed in")
	errBadJSON              = apperror.Validation("invalid_json", "request body is not valid JSON")
)

type errorResponse struct {
	Error    string            `json:"error"`
	Code     string            `json:"code,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// WriteJSON writes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError maps err to a status code by kind. Internal errors are logged and
// their details withheld.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(apperror.KindOf(err))

	var appErr *apperror.Error
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		attrs := []any{"error", err, "method", r.Method, "path", r.URL.Path}
		if user := ctxkeys.User(r.Context()); user != nil {
			attrs = append(attrs, "user_id", user.ID)
		}
		slog.Error("request failed", attrs...)
		WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	WriteJSON(w, status, errorResponse{Error: appErr.Message, Code: appErr.Code, Metadata: appErr.Metadata})
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindSync, apperror.KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if err != nil {
		return errBadJSON.WithMeta("detail", err.Error())
	}
	return nil
}

// queryInt reads a positive integer query parameter bounded by max.
func queryInt(r *http.Request, name string, def, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > max {
		return 0, apperror.Validation("invalid_"+name, fmt.Sprintf("%s must be between 1 and %d", name, max))
	}
	return n, nil
}

var errRouteNotFound = apperror.NotFound("route_not_found", "no such endpoint")

func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, errRouteNotFound.WithMeta("path", r.URL.Path))
}
