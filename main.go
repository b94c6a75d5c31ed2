package main

import (
	"log/slog"
	"os"

	"github.com/wailsapp/wails/v3/pkg/application"

	"go.aimuz.me/dragscroll/config"
	"go.aimuz.me/dragscroll/internal/app"
	"go.aimuz.me/dragscroll/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func setupLogging(levelVar *slog.LevelVar) {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	logger, err := logging.New(logging.Options{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		LevelVar: levelVar,
	})
	if err != nil {
		logger, _ = logging.New(logging.Options{LevelVar: levelVar})
		logger.Warn("invalid logging config, using defaults", "error", err)
	}
	slog.SetDefault(logger)
}

// ─────────────────────────────────────────────────────────────────────────────
// Main Entry
// ─────────────────────────────────────────────────────────────────────────────

func main() {
	levelVar := new(slog.LevelVar)
	setupLogging(levelVar)
	slog.Info("starting app", "version", version, "commit", commit, "date", date)

	cfgPath, err := config.Path()
	if err != nil {
		slog.Error("get config path", "error", err)
		os.Exit(1)
	}

	appService := app.New(app.Options{
		Version:    version,
		ConfigPath: cfgPath,
		LevelVar:   levelVar,
	})

	wailsApp := application.New(application.Options{
		Name:        "DragScroll",
		Description: "Drag to scroll with the primary mouse button",
		Services: []application.Service{
			application.NewService(appService),
		},
		Mac: application.MacOptions{
			// Tray-only app; there are no windows to close.
			ActivationPolicy: application.ActivationPolicyAccessory,
			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
	})

	tray := newTray(wailsApp, appService)
	// The callback runs inside a transition; refresh reads service state.
	appService.OnScrollModeChange(func(bool) { go tray.refresh() })

	appService.Init(wailsApp)
	tray.refresh()

	// Run application
	if err := wailsApp.Run(); err != nil {
		slog.Error("run app", "error", err)
	}
}
