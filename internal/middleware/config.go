package middleware

import (
	"net/http"

	"github.com/templui/hydrate/internal/config"
	"github.com/templui/hydrate/internal/ctxkeys"
)

// Config puts the sanitized configuration on the request context.
func Config(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxkeys.WithConfig(r.Context(), cfg.Sanitized())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}