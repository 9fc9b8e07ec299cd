package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Log is the global logger instance
var Log *slog.Logger

// Init builds the process logger and installs it as the slog default.
// Development logs text at debug level, production logs JSON at info level.
// With a Sentry DSN, error records are also sent to Sentry. The returned
// function flushes pending Sentry events.
func Init(isDev bool, sentryDSN string) func() {
	return InitWriter(os.Stdout, isDev, sentryDSN)
}

func InitWriter(w io.Writer, isDev bool, sentryDSN string) func() {
	var handlers []slog.Handler

	if isDev {
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	flush := func() {}
	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDSN,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
			flush = func() { sentry.Flush(2 * time.Second) }
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
	return flush
}

// ForUser returns a child logger tagged with user_id.
func ForUser(base *slog.Logger, userID string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With("user_id", userID)
}
