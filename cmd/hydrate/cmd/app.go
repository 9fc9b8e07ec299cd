package cmd

import (
	"context"

	"github.com/templui/hydrate/internal/app"
	"github.com/templui/hydrate/internal/config"
	"github.com/templui/hydrate/internal/logger"
)

func loadConfig() *config.Config {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), "")
	return cfg
}

// withApp runs fn against a fully wired, migrated app. Sessions opened by fn
// are closed with the app.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	a, err := app.New(ctx, loadConfig())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return fn(a)
}
