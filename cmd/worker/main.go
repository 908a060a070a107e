package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robalyx/scamguard/internal/setup"
	"github.com/robalyx/scamguard/internal/setup/telemetry"
	"github.com/robalyx/scamguard/internal/worker/purge"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	// WorkerLogDir specifies where worker log files are stored.
	WorkerLogDir = "logs"

	// PurgeWorker removes scam history past the retention period.
	PurgeWorker = "purge"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "worker",
		Usage: "Start a scamguard background worker",
		Commands: []*cli.Command{
			{
				Name:  PurgeWorker,
				Usage: "Purge scam history past the retention period",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "once",
						Usage: "Run a single purge and exit",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
					defer stop()

					return runPurge(ctx, c.Bool("once"))
				},
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

// runPurge runs the purge worker, restarting it if it panics.
func runPurge(ctx context.Context, once bool) error {
	app, err := setup.InitializeApp(ctx, telemetry.ServicePurge, WorkerLogDir)
	if err != nil {
		return err
	}
	defer app.Cleanup(context.Background())

	sb := &app.Config.Bot.ScamBlocker
	w := purge.New(app.History, sb.Retention(), sb.PurgeInterval(), app.Logger)

	if once {
		affected := w.RunOnce(ctx)
		log.Printf("Purged %d scam history entries", affected)

		return nil
	}

	for ctx.Err() == nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					app.Logger.Error("Worker execution failed", zap.Any("panic", r))
					app.Logger.Info("Restarting worker in 5 seconds...")
					time.Sleep(5 * time.Second)
				}
			}()

			app.Logger.Info("Starting worker")
			w.Start(ctx)
		}()
	}

	log.Println("Purge worker has finished. Exiting.")

	return nil
}
