// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/speedsheet/speedsheet/internal/capture"
	"github.com/speedsheet/speedsheet/internal/config"
	"github.com/speedsheet/speedsheet/internal/pacing"
	"github.com/speedsheet/speedsheet/internal/pipeline"
	"github.com/speedsheet/speedsheet/internal/report"
	"github.com/speedsheet/speedsheet/internal/store"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config    *config.Config
	Logger    *zerolog.Logger
	Engine    *capture.Engine
	Pacer     pacing.Pacer
	Pipeline  *pipeline.Pipeline
	Assembler *report.Assembler
	Store     *store.Store
	startTime time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Opens the status-check database
//   - Creates the capture engine and per-host pacer
//   - Wires the capture pipeline and report assembler
//
// If any step fails, an error is returned and no resources are left open.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Initialize logger based on config
	logLevel := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	var logWriter io.Writer
	if cfg.JSONLog {
		// JSON logs to stderr
		logWriter = os.Stderr
	} else {
		// Human-friendly console output otherwise
		logWriter = zerolog.NewConsoleWriter()
	}

	logger := log.Output(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	logger.Debug().Str("data_dir", cfg.DataDir).Msg("Store opened")

	engine := capture.New(capture.Options{
		ChromePath:        cfg.ChromePath,
		UserAgent:         cfg.UserAgent,
		ViewportWidth:     cfg.ViewportWidth,
		ViewportHeight:    cfg.ViewportHeight,
		NavigationTimeout: cfg.NavigationTimeout,
		PrimaryWait:       cfg.PrimaryWait,
		SecondaryWait:     cfg.SecondaryWait,
		FallbackDelay:     cfg.FallbackDelay,
		SettleDelay:       cfg.SettleDelay,
	})
	logger.Debug().
		Dur("nav_timeout", cfg.NavigationTimeout).
		Msg("Capture engine initialized")

	pacer := pacing.NewHostPacer(cfg.CaptureRPS, cfg.CaptureBurst)
	logger.Debug().
		Float64("rps", cfg.CaptureRPS).
		Int("burst", cfg.CaptureBurst).
		Msg("Capture pacer initialized")

	app := &Application{
		Config:    cfg,
		Logger:    &logger,
		Engine:    engine,
		Pacer:     pacer,
		Pipeline:  pipeline.New(engine, pacer),
		Assembler: report.New(cfg.ReportsDir),
		Store:     st,
		startTime: time.Now(),
	}

	logger.Info().Msg("Application initialized successfully")
	return app, nil
}

// Close gracefully shuts down the application and all its resources.
// Any errors during shutdown are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Info().Msg("Shutting down application")

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing store")
		}
	}

	uptime := time.Since(a.startTime)
	a.Logger.Info().Dur("uptime", uptime).Msg("Application shutdown complete")
	return nil
}
