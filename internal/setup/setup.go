package setup

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/robalyx/scamguard/internal/database"
	"github.com/robalyx/scamguard/internal/scam/history"
	"github.com/robalyx/scamguard/internal/scam/history/sqlite"
	"github.com/robalyx/scamguard/internal/setup/config"
	"github.com/robalyx/scamguard/internal/setup/telemetry"
	"go.uber.org/zap"
)

// ErrPendingMigrations is returned when the Postgres schema is not up to date.
var ErrPendingMigrations = errors.New("database migrations are pending, run the db migrate command")

// App bundles all core dependencies needed by the application.
type App struct {
	Config     *config.Config     // Application configuration
	ConfigDir  string             // Directory the configuration was loaded from
	Logger     *zap.Logger        // Main application logger
	DBLogger   *zap.Logger        // Database-specific logger
	History    history.Store      // Scam history backend
	LogManager *telemetry.Manager // Log management system

	closeHistory func() error
	debugServer  *debugServer
}

// InitializeApp loads the configuration, sets up logging and opens the
// configured scam history backend.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string) (*App, error) {
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	store, closeStore, err := OpenHistory(ctx, cfg, dbLogger.Named("database"))
	if err != nil {
		logManager.Stop()
		return nil, err
	}

	var debugSrv *debugServer

	if cfg.Common.Debug.EnablePprof {
		debugSrv, err = startDebugServer(cfg.Common.Debug.PprofPort, logger)
		if err != nil {
			logger.Error("Failed to start pprof server", zap.Error(err))
		}
	}

	logger.Info("Application initialized",
		zap.String("configDir", configDir),
		zap.String("storage", cfg.Common.Storage.Driver),
		zap.String("mode", cfg.Bot.ScamBlocker.Mode))

	return &App{
		Config:       cfg,
		ConfigDir:    configDir,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		History:      store,
		LogManager:   logManager,
		closeHistory: closeStore,
		debugServer:  debugSrv,
	}, nil
}

// OpenHistory opens the scam history backend selected by storage.driver.
// The returned function closes it.
func OpenHistory(ctx context.Context, cfg *config.Config, logger *zap.Logger) (history.Store, func() error, error) {
	opts := history.Options{DuplicateWindow: cfg.Bot.ScamBlocker.DuplicateWindow()}

	switch cfg.Common.Storage.Driver {
	case config.StorageDriverSQLite:
		store, err := sqlite.New(cfg.Common.Storage.SQLitePath, opts, logger)
		if err != nil {
			return nil, nil, err
		}

		return store, store.Close, nil

	case config.StorageDriverPostgres:
		db, err := database.NewConnection(ctx, &cfg.Common.PostgreSQL, opts, logger, false)
		if err != nil {
			return nil, nil, err
		}

		pending, err := database.PendingMigrations(ctx, db.DB())
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		if pending > 0 {
			_ = db.Close()
			return nil, nil, fmt.Errorf("%w: %d pending", ErrPendingMigrations, pending)
		}

		return db.Model().ScamHistory(), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown storage driver %q", config.ErrInvalidConfig, cfg.Common.Storage.Driver)
	}
}

// Cleanup shuts down all components in reverse initialization order.
// Logs but does not fail on cleanup errors so every component gets a cleanup attempt.
func (s *App) Cleanup(ctx context.Context) {
	if s.debugServer != nil {
		if err := s.debugServer.Close(ctx); err != nil {
			s.Logger.Error("Failed to shutdown pprof server", zap.Error(err))
		}
	}

	if err := s.closeHistory(); err != nil {
		s.Logger.Error("Failed to close scam history", zap.Error(err))
	}

	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	s.LogManager.Stop()
}
