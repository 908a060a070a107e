package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/robalyx/scamguard/internal/database"
	"github.com/robalyx/scamguard/internal/scam/history"
	"github.com/robalyx/scamguard/internal/setup"
	"github.com/robalyx/scamguard/internal/setup/config"
	"github.com/robalyx/scamguard/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// DBLogDir specifies where migration logs are stored.
const DBLogDir = "logs"

var ErrNotPostgres = errors.New("migrations only apply to the postgres storage driver")

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "db",
		Usage: "Manage the Postgres scam history schema",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create the migration tables",
				Action: withMigrator(func(ctx context.Context, _ *cli.Command, m *database.Migrator, _ *zap.Logger) error {
					return m.Init(ctx)
				}),
			},
			{
				Name:  "migrate",
				Usage: "Apply pending migrations",
				Action: withMigrator(func(ctx context.Context, _ *cli.Command, m *database.Migrator, _ *zap.Logger) error {
					_, err := m.Migrate(ctx)
					return err
				}),
			},
			{
				Name:  "rollback",
				Usage: "Roll back the last migration group",
				Action: withMigrator(func(ctx context.Context, _ *cli.Command, m *database.Migrator, _ *zap.Logger) error {
					_, err := m.Rollback(ctx)
					return err
				}),
			},
			{
				Name:  "status",
				Usage: "Show applied and pending migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Exit with an error when migrations are pending, as the bot does on start-up",
					},
				},
				Action: withMigrator(func(ctx context.Context, c *cli.Command, m *database.Migrator, logger *zap.Logger) error {
					status, err := m.Status(ctx)
					if err != nil {
						return err
					}

					logger.Info("Migration status",
						zap.Int("applied", len(status.Applied)),
						zap.Int("pending", len(status.Pending)),
						zap.String("lastGroup", status.LastGroup))

					fmt.Println(formatStatus(status))

					if c.Bool("check") && !status.UpToDate() {
						return fmt.Errorf("%w: %d pending", setup.ErrPendingMigrations, len(status.Pending))
					}

					return nil
				}),
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

type migratorAction func(ctx context.Context, c *cli.Command, m *database.Migrator, logger *zap.Logger) error

// withMigrator connects to the configured Postgres database around a command.
func withMigrator(action migratorAction) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		cfg, _, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cfg.Common.Storage.Driver != config.StorageDriverPostgres {
			return fmt.Errorf("%w: %q", ErrNotPostgres, cfg.Common.Storage.Driver)
		}

		logManager := telemetry.NewManager(telemetry.ServiceDB, DBLogDir, &cfg.Common.Debug)
		defer logManager.Stop()

		logger, dbLogger, err := logManager.GetLoggers()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		db, err := database.NewConnection(ctx, &cfg.Common.PostgreSQL, history.Options{}, dbLogger.Named("database"), false)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() { _ = db.Close() }()

		return action(ctx, c, database.NewMigrator(db.DB(), logger), logger)
	}
}

// formatStatus renders the status as a short human readable listing.
func formatStatus(status *database.MigrationStatus) string {
	var b strings.Builder

	fmt.Fprintf(&b, "applied: %d, pending: %d\n", len(status.Applied), len(status.Pending))

	if status.LastGroup != "" {
		fmt.Fprintf(&b, "last group: %s\n", status.LastGroup)
	}

	for _, name := range status.Pending {
		fmt.Fprintf(&b, "  pending %s\n", name)
	}

	return strings.TrimSuffix(b.String(), "\n")
}
