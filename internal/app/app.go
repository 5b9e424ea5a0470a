package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/vyperpp/internal/config"
	"github.com/specialistvlad/vyperpp/internal/ctxlog"
	"github.com/specialistvlad/vyperpp/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	project  *config.Project
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// It panics when the project configuration cannot be loaded or the modules
// do not provide the required tasks.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	project, err := loader.Load(ctx, appConfig.Root, appConfig.ConfigPaths...)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Project configuration loaded.", "root", project.Root, "files", project.Files)

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.Validate(ctx, requiredTasks...); err != nil {
		// This is a programmer error (a module list without the compile tasks), so we panic.
		panic(err)
	}
	logger.Debug("Tasks registered.", "tasks", reg.Names())

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		project:  project,
	}
}

// Project returns the loaded project configuration.
func (a *App) Project() *config.Project {
	return a.project
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
