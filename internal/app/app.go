package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"github.com/templui/hydrate/internal/config"
	"github.com/templui/hydrate/internal/db"
	"github.com/templui/hydrate/internal/localstate"
	"github.com/templui/hydrate/internal/logger"
	"github.com/templui/hydrate/internal/remote"
	"github.com/templui/hydrate/internal/repository"
	"github.com/templui/hydrate/internal/service"
	"github.com/templui/hydrate/internal/session"
	"github.com/templui/hydrate/internal/storage"
)

type App struct {
	Cfg                *config.Config
	DB                 *sqlx.DB
	AuthService        *service.AuthService
	UserService        *service.UserService
	IntakeService      *service.IntakeService
	AchievementService *service.AchievementService
	ReminderService    *service.ReminderService
	AnalyticsService   *service.AnalyticsService
	EmailService       *service.EmailService
	FileService        *service.FileService
	Notifier           *service.Notifier
	Sessions           *session.Manager
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	app, err := NewWithDB(ctx, cfg, database)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return app, nil
}

// NewWithDB wires services and sessions on an already migrated database.
func NewWithDB(ctx context.Context, cfg *config.Config, database *sqlx.DB) (*App, error) {
	// Repositories
	userRepository := repository.NewUserRepository(database)
	profileRepository := repository.NewProfileRepository(database)
	intakeRepository := repository.NewIntakeRepository(database)
	achievementRepository := repository.NewAchievementRepository(database)
	reminderRepository := repository.NewReminderRepository(database)
	alarmRepository := repository.NewAlarmRepository(database)
	analyticsRepository := repository.NewAnalyticsRepository(database)
	fileRepository := repository.NewFileRepository(database)

	// Storage is optional; without it sound uploads are refused.
	fileStorage, err := storage.New(ctx, cfg)
	if errors.Is(err, storage.ErrNotConfigured) {
		slog.Info("S3 storage not configured, custom sounds disabled")
		fileStorage = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Services
	emailService := service.NewEmailService(cfg.ResendAPIKey, cfg.EmailFrom, cfg.AppURL, cfg.AppName, cfg.IsDevelopment())
	fileService := service.NewFileService(fileRepository, fileStorage)
	reminderService := service.NewReminderService(reminderRepository, alarmRepository)
	intakeService := service.NewIntakeService(intakeRepository, profileRepository, achievementRepository, cfg.Location())
	achievementService := service.NewAchievementService(achievementRepository)
	analyticsService := service.NewAnalyticsService(analyticsRepository)
	userService := service.NewUserService(
		userRepository,
		profileRepository,
		intakeRepository,
		achievementRepository,
		analyticsRepository,
		reminderService,
		fileService,
		emailService,
		cfg.DefaultReminderInterval,
	)
	authService := service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry, cfg.IsProduction())
	notifier := service.NewNotifier(userService, intakeService, reminderService, emailService)

	rootState, err := stateStore(cfg.StateDir)
	if err != nil {
		return nil, err
	}

	app := &App{
		Cfg:                cfg,
		DB:                 database,
		AuthService:        authService,
		UserService:        userService,
		IntakeService:      intakeService,
		AchievementService: achievementService,
		ReminderService:    reminderService,
		AnalyticsService:   analyticsService,
		EmailService:       emailService,
		FileService:        fileService,
		Notifier:           notifier,
	}
	app.Sessions = session.NewManager(app.sessionConfig, rootState, slog.Default())
	return app, nil
}

// sessionConfig builds a session for userID from the stored profile, reminder
// settings and alarms.
func (a *App) sessionConfig(ctx context.Context, userID string) (session.Config, error) {
	profile, err := a.UserService.Profile(ctx, userID)
	if err != nil {
		return session.Config{}, fmt.Errorf("failed to load profile: %w", err)
	}

	settings, err := a.ReminderService.Settings(ctx, userID)
	if err != nil {
		return session.Config{}, err
	}

	alarms, err := a.ReminderService.Alarms(ctx, userID)
	if err != nil {
		return session.Config{}, err
	}

	state, err := stateStore(userStateDir(a.Cfg.StateDir, userID))
	if err != nil {
		return session.Config{}, err
	}

	userLogger := logger.ForUser(nil, userID)
	loc := a.IntakeService.Location(ctx, userID)
	adapter := remote.NewAdapter(a.IntakeService, userID, loc,
		remote.WithTimeout(a.Cfg.SyncTimeout),
		remote.WithMaxRetries(a.Cfg.SyncRetryMax),
		remote.WithLogger(userLogger),
	)

	return session.Config{
		UserID:           userID,
		Profile:          session.ProfileFrom(profile),
		Location:         loc,
		ReminderInterval: settings.IntervalMinutes,
		RemindersActive:  settings.IsActive,
		Alarms:           alarms,
		Remote:           adapter,
		State:            state,
		Achievements:     a.AchievementService,
		Analytics:        a.AnalyticsService,
		Notifier:         a.Notifier,
		Logger:           userLogger,
	}, nil
}

func userStateDir(root, userID string) string {
	if root == "" {
		return ""
	}
	return filepath.Join(root, "users", userID)
}

// stateStore keeps state on disk under dir, or in memory when dir is empty.
func stateStore(dir string) (localstate.Store, error) {
	if dir == "" {
		return localstate.NewMemoryStore(), nil
	}
	store, err := localstate.NewFileStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open state directory: %w", err)
	}
	return store, nil
}

// Close ends every open session, then closes the database.
func (a *App) Close() error {
	if a.Sessions != nil {
		a.Sessions.CloseAll()
	}
	return db.Close(a.DB)
}
