package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName  string
	AppEnv   string
	AppURL   string
	Port     string
	TimeZone string // IANA name used for day boundaries when a profile has none

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN string

	// Storage for custom reminder sounds (S3-compatible, optional: sounds are
	// disabled when S3_BUCKET is empty)
	S3Region               string
	S3Bucket               string
	S3AccessKey            string
	S3SecretKey            string
	S3Endpoint             string
	S3PresignExpiryPublic  time.Duration
	S3PresignExpiryPrivate time.Duration

	// Sessions
	StateDir                string // local persisted state, one directory per user
	DefaultReminderInterval int    // minutes
	SyncRetryMax            int
	SyncTimeout             time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName:  envString("APP_NAME", "Hydrate"),
		AppEnv:   envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:   envString("APP_URL", "http://localhost:8090"),
		Port:     envString("PORT", "8090"),
		TimeZone: envString("TIME_ZONE", "UTC"),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/hydrate.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		// RESEND_API_KEY optional in development, required in production
		EmailFrom:    envString("EMAIL_FROM", "reminders@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		SentryDSN: envString("SENTRY_DSN", ""),

		S3Region:               envString("S3_REGION", "us-east-1"),
		S3Bucket:               envString("S3_BUCKET", ""),
		S3AccessKey:            envString("S3_ACCESS_KEY", ""),
		S3SecretKey:            envString("S3_SECRET_KEY", ""),
		S3Endpoint:             envString("S3_ENDPOINT", ""),
		S3PresignExpiryPublic:  envDuration("S3_PRESIGN_EXPIRY_PUBLIC", 168*time.Hour),
		S3PresignExpiryPrivate: envDuration("S3_PRESIGN_EXPIRY_PRIVATE", 1*time.Hour),

		StateDir:                envString("STATE_DIR", "./data/state"),
		DefaultReminderInterval: envInt("DEFAULT_REMINDER_INTERVAL", 60),
		SyncRetryMax:            envInt("SYNC_RETRY_MAX", 3),
		SyncTimeout:             envDuration("SYNC_TIMEOUT", 5*time.Second),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction exits when a production deployment lacks a service that
// development replaces with a log-only fallback.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
}

// Location resolves TimeZone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		slog.Warn("config invalid time zone, using UTC", "time_zone", c.TimeZone, "error", err)
		return time.UTC
	}
	return loc
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) SoundsEnabled() bool {
	return c.S3Bucket != ""
}

// Sanitized returns a copy of the config without secrets or credentials.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:  c.AppName,
		AppEnv:   c.AppEnv,
		AppURL:   c.AppURL,
		Port:     c.Port,
		TimeZone: c.TimeZone,

		EmailFrom: c.EmailFrom,

		S3Region:   c.S3Region,
		S3Bucket:   c.S3Bucket,
		S3Endpoint: c.S3Endpoint,

		DefaultReminderInterval: c.DefaultReminderInterval,
		SyncRetryMax:            c.SyncRetryMax,
		SyncTimeout:             c.SyncTimeout,
	}
}
