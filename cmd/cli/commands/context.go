package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/internal/config"
	"github.com/portsampling/sampling-rosters/pkg/clients/statusclient"
	"github.com/portsampling/sampling-rosters/pkg/core/services"
	"github.com/portsampling/sampling-rosters/pkg/db"
	"github.com/portsampling/sampling-rosters/pkg/postgres"
	"github.com/portsampling/sampling-rosters/pkg/sqlite"
	"github.com/portsampling/sampling-rosters/pkg/utils/logging"
)

// AppContext holds the application dependencies shared across all commands.
// It is filled in by InitApp before any command runs.
type AppContext struct {
	Env      string
	Cfg      *config.Config
	Database db.Database
	Logger   *zap.Logger
	Ctx      context.Context

	Status  *services.RosterStatusService
	Gateway *services.StatusUpdateGateway
	Rosters *services.RosterService

	// Postgres is set only when the postgres driver is configured
	Postgres *postgres.DB
}

// InitApp sets up logger, config, database and services
func InitApp(ctx context.Context, app *AppContext, env string, verbose bool) error {
	var err error
	app.Env = env
	app.Ctx = ctx

	app.Logger, err = logging.InitLogger(env, logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded",
		zap.String("driver", app.Cfg.Database.Driver),
		zap.String("gateway_mode", app.Cfg.Status.GatewayMode),
		zap.Int("samplers", len(app.Cfg.Samplers)))

	if err := app.openDatabase(ctx); err != nil {
		return err
	}

	app.buildServices()
	return nil
}

func (app *AppContext) openDatabase(ctx context.Context) error {
	dbCfg := app.Cfg.Database
	app.Logger.Info("Connecting to database", zap.String("driver", dbCfg.Driver))

	switch dbCfg.Driver {
	case "postgres":
		pg, err := postgres.NewDB(ctx, dbCfg.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		app.Postgres = pg
		app.Database = pg
	case "sqlite":
		store, err := sqlite.Open(dbCfg.URL)
		if err != nil {
			return fmt.Errorf("failed to open sqlite database: %w", err)
		}
		app.Database = store
	default:
		app.Logger.Warn("Using in-memory store; data is lost on exit")
		app.Database = db.NewMemoryDB()
	}
	return nil
}

func (app *AppContext) buildServices() {
	app.Gateway = services.NewStatusUpdateGateway(newRosterWriter(app.Cfg.Status, app.Database), app.Logger)
	app.Status = services.NewRosterStatusService(app.Database, app.Logger,
		services.WithConcurrency(app.Cfg.Status.Concurrency))
	app.Rosters = services.NewRosterService(app.Database, app.Gateway, app.Cfg.SamplerRegistry(), app.Logger)
}

// newRosterWriter picks where the gateway persists status changes
func newRosterWriter(cfg config.StatusConfig, store db.RosterStore) services.RosterWriter {
	if cfg.GatewayMode == "remote" {
		return services.NewRemoteWriter(statusclient.NewClient(cfg.RemoteBaseURL))
	}
	return services.NewDirectWriter(store)
}

// Close releases the database
func (app *AppContext) Close() {
	if app.Database != nil {
		app.Database.Close()
	}
	if app.Logger != nil {
		_ = app.Logger.Sync()
	}
}
