package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/bounceaction/internal/config"
	"github.com/vk/bounceaction/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	cfg       *Config
	model     *config.Model
	converter config.Converter
}

// NewApp is the constructor for the main application. The report goes to
// outW and the logs to logW. A configuration that cannot be loaded is a fatal
// startup error and panics.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, converter, err := loader.Load(ctx, cfg.ScenarioPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.", "scenarios", len(model.Scenarios))

	return &App{
		outW:      outW,
		logger:    logger,
		cfg:       cfg,
		model:     model,
		converter: converter,
	}
}

// Model returns the loaded scenarios. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
