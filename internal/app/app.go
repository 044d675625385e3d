package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/svcstorego/internal/broker"
	"github.com/vk/svcstorego/internal/config"
	"github.com/vk/svcstorego/internal/ctxlog"
	"github.com/vk/svcstorego/internal/locator"
	"github.com/vk/svcstorego/internal/odb"
	"github.com/vk/svcstorego/internal/odb/memory"
	"github.com/vk/svcstorego/internal/odb/postgres"
	"github.com/vk/svcstorego/internal/provenance"
	"github.com/vk/svcstorego/internal/registry"
)

// App encapsulates the wired application: logger, server config, durable
// ledger, registry, and the optional broker link.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	server    *config.Server
	store     odb.Store
	registry  *registry.Registry
	announcer *broker.Announcer
	workDir   string
}

// NewApp constructs a fully wired App. Programmer errors (duplicate handler
// registration) panic; environmental failures return errors.
func NewApp(ctx context.Context, outW io.Writer, appConfig *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	server := config.Default()
	if appConfig.ConfigPath != "" {
		loaded, err := config.Load(appConfig.ConfigPath)
		if err != nil {
			return nil, err
		}
		server = loaded
	}
	logger.Debug("Server configuration ready.", "odb_driver", server.ODB.Driver, "broker_enabled", server.Broker.Enabled)

	store, err := openStore(ctx, server)
	if err != nil {
		return nil, err
	}

	loc := locator.New(server.Deploy.ModulePaths...)
	recorder := provenance.NewRecorder(server.Deploy.HashMethod)

	reg := registry.New(store, loc, recorder)
	registerBaseHandlers(reg)
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All service modules registered.", "count", len(modules))

	app := &App{
		outW:     outW,
		logger:   logger,
		server:   server,
		store:    store,
		registry: reg,
		workDir:  appConfig.WorkDir,
	}
	if app.workDir == "" {
		app.workDir = server.Deploy.WorkDir
	}
	if app.workDir == "" {
		app.workDir = os.TempDir()
	}

	if server.Broker.Enabled {
		announcer := broker.NewAnnouncer(broker.AnnouncerConfig{
			URL:       server.Broker.URL,
			Namespace: server.Broker.Namespace,
		})
		if err := announcer.Connect(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to connect to broker: %w", err)
		}
		reg.SetNotifier(announcer)
		app.announcer = announcer
	}

	return app, nil
}

// openStore builds the configured odb.Store implementation.
func openStore(ctx context.Context, server *config.Server) (odb.Store, error) {
	switch server.ODB.Driver {
	case "postgres":
		return postgres.Open(ctx, postgres.Config{
			URL:             server.ODB.URL,
			MaxOpenConns:    server.ODB.MaxOpenConns,
			MaxIdleConns:    server.ODB.MaxIdleConns,
			ConnMaxLifetime: server.ODB.ConnMaxLifetime.Duration,
		})
	default:
		return memory.New(), nil
	}
}

// Registry returns the application's registry. This is primarily for
// testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Run performs the batch import described by appConfig and returns its
// outcome. Per-item failures live in the batch's error list; Run itself
// fails only when the pipeline cannot run at all.
func (a *App) Run(ctx context.Context, appConfig *Config) (*registry.Batch, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run started.", "items", appConfig.Items)

	batch, err := a.registry.ImportFrom(ctx, appConfig.Items, appConfig.BaseDir, a.workDir)
	if err != nil {
		return nil, fmt.Errorf("batch import failed: %w", err)
	}

	for _, itemErr := range batch.Errors {
		a.logger.Warn("Import item failed.", "item", itemErr.Item, "error", itemErr.Err)
	}
	a.logger.Info("Import complete.",
		"deployed", len(batch.Deployed),
		"failed_items", len(batch.Errors),
		"registry_size", a.registry.Len())

	return batch, nil
}

// Close releases the app's external resources.
func (a *App) Close() error {
	if a.announcer != nil {
		a.announcer.Close()
	}
	return a.store.Close()
}
