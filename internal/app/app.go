package app

import (
	"io"
	"log/slog"

	"github.com/vk/opmeter/internal/meter"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
}

// NewApp is the constructor for the main application. Reports go to outW and
// logs to logW through an isolated logger.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")
	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
	}
}

// options applies the command-line overrides on top of a graph's options.
func (a *App) options(base meter.Options) meter.Options {
	o := a.config.Overrides
	if o.FoldRepeat != nil {
		base.FoldRepeat = *o.FoldRepeat
	}
	if o.Warmup != nil {
		base.Warmup = *o.Warmup
	}
	if o.BenchmarkRepeat != nil {
		base.BenchmarkRepeat = *o.BenchmarkRepeat
	}
	return base
}
