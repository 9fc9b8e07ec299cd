package routes

import (
	"net/http"

	"github.com/templui/hydrate/internal/app"
	"github.com/templui/hydrate/internal/handler"
	"github.com/templui/hydrate/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.UserService, app.Sessions)
	account := handler.NewAccountHandler(app.AuthService, app.UserService, app.Sessions)
	intake := handler.NewIntakeHandler(app.Sessions, app.IntakeService)
	stats := handler.NewStatsHandler(app.Sessions)
	achievements := handler.NewAchievementHandler(app.Sessions, app.AchievementService)
	reminders := handler.NewReminderHandler(app.Sessions, app.ReminderService)
	settings := handler.NewSettingsHandler(app.UserService, app.Sessions)
	sound := handler.NewSoundHandler(app.FileService, app.Sessions)
	analytics := handler.NewAnalyticsHandler(app.AnalyticsService, app.Sessions)
	health := handler.NewHealthHandler(app.DB, app.Sessions)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)

	rateLimiter := middleware.RateLimitAuth()
	mux.HandleFunc("POST /api/auth/signup", rateLimiter(middleware.RequireGuest(auth.Signup)))
	mux.HandleFunc("POST /api/auth/login", rateLimiter(middleware.RequireGuest(auth.Login)))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)

	// ============================================================================
	// PROTECTED ROUTES (/api/*)
	// ============================================================================

	mux.HandleFunc("GET /api/me", middleware.RequireAuth(auth.Me))
	mux.HandleFunc("DELETE /api/account", middleware.RequireAuth(account.DeleteAccount))

	// Intakes
	mux.HandleFunc("GET /api/intakes", middleware.RequireAuth(intake.List))
	mux.HandleFunc("POST /api/intakes", middleware.RequireAuth(intake.Add))
	mux.HandleFunc("POST /api/intakes/undo", middleware.RequireAuth(intake.Undo))
	mux.HandleFunc("DELETE /api/intakes/{id}", middleware.RequireAuth(intake.Delete))
	mux.HandleFunc("GET /api/intakes/history", middleware.RequireAuth(intake.History))
	mux.HandleFunc("POST /api/sync", middleware.RequireAuth(intake.Sync))

	// Stats
	mux.HandleFunc("GET /api/stats/today", middleware.RequireAuth(stats.Today))
	mux.HandleFunc("GET /api/stats/daily", middleware.RequireAuth(stats.Daily))
	mux.HandleFunc("GET /api/stats/weekly", middleware.RequireAuth(stats.Weekly))
	mux.HandleFunc("GET /api/stats/streak", middleware.RequireAuth(stats.Streak))
	mux.HandleFunc("GET /api/stats/summary", middleware.RequireAuth(stats.Summary))

	// Achievements
	mux.HandleFunc("GET /api/achievements", middleware.RequireAuth(achievements.List))
	mux.HandleFunc("GET /api/achievements/new", middleware.RequireAuth(achievements.New))
	mux.HandleFunc("POST /api/achievements/dismiss", middleware.RequireAuth(achievements.Dismiss))
	mux.HandleFunc("GET /api/achievements/records", middleware.RequireAuth(achievements.Records))

	// Reminders
	mux.HandleFunc("GET /api/reminders", middleware.RequireAuth(reminders.Get))
	mux.HandleFunc("PUT /api/reminders", middleware.RequireAuth(reminders.Update))
	mux.HandleFunc("POST /api/reminders/snooze", middleware.RequireAuth(reminders.Snooze))
	mux.HandleFunc("POST /api/reminders/pause", middleware.RequireAuth(reminders.Pause))
	mux.HandleFunc("POST /api/reminders/resume", middleware.RequireAuth(reminders.Resume))
	mux.HandleFunc("POST /api/reminders/reset", middleware.RequireAuth(reminders.Reset))

	// Alarms
	mux.HandleFunc("GET /api/alarms", middleware.RequireAuth(reminders.ListAlarms))
	mux.HandleFunc("POST /api/alarms", middleware.RequireAuth(reminders.CreateAlarm))
	mux.HandleFunc("PUT /api/alarms/{id}", middleware.RequireAuth(reminders.UpdateAlarm))
	mux.HandleFunc("DELETE /api/alarms/{id}", middleware.RequireAuth(reminders.DeleteAlarm))

	// Settings
	mux.HandleFunc("GET /api/settings", middleware.RequireAuth(settings.Get))
	mux.HandleFunc("PATCH /api/settings", middleware.RequireAuth(settings.Update))
	mux.HandleFunc("POST /api/data/reset", middleware.RequireAuth(settings.ResetData))

	// Sound
	mux.HandleFunc("GET /api/sound", middleware.RequireAuth(sound.Get))
	mux.HandleFunc("POST /api/sound", middleware.RequireAuth(sound.Upload))
	mux.HandleFunc("DELETE /api/sound", middleware.RequireAuth(sound.Delete))

	// Analytics
	mux.HandleFunc("GET /api/analytics", middleware.RequireAuth(analytics.List))
	mux.HandleFunc("POST /api/analytics", middleware.RequireAuth(analytics.Save))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.Config(app.Cfg),
		middleware.AuthMiddleware(app.AuthService, app.UserService),
	)
}
