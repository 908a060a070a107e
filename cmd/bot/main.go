package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/rest"
	"github.com/robalyx/scamguard/internal/bot"
	"github.com/robalyx/scamguard/internal/metrics"
	"github.com/robalyx/scamguard/internal/scam/analyzer"
	"github.com/robalyx/scamguard/internal/scam/flood"
	"github.com/robalyx/scamguard/internal/scam/pipeline"
	"github.com/robalyx/scamguard/internal/scam/response"
	"github.com/robalyx/scamguard/internal/setup"
	"github.com/robalyx/scamguard/internal/setup/config"
	"github.com/robalyx/scamguard/internal/setup/telemetry"
	"github.com/robalyx/scamguard/internal/worker/purge"
	"github.com/robalyx/scamguard/internal/worker/sweep"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BotLogDir specifies where bot log files are stored.
const BotLogDir = "logs"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "bot",
		Usage: "Start the scam blocker",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-purge",
				Usage: "Do not purge old scam history from this process",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runBot(ctx, !c.Bool("no-purge"))
		},
	}

	return app.Run(context.Background(), os.Args)
}

// runBot wires the scam blocker and blocks until ctx is cancelled.
func runBot(ctx context.Context, withPurge bool) error {
	app, err := setup.InitializeApp(ctx, telemetry.ServiceBot, BotLogDir)
	if err != nil {
		return err
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.Cleanup(cleanupCtx)
	}()

	cfg := app.Config
	sb := &cfg.Bot.ScamBlocker

	mode, err := sb.ResponseMode()
	if err != nil {
		return err
	}

	restClient := rest.NewClient(cfg.Bot.Discord.Token)
	platform := bot.NewPlatform(rest.New(restClient), sb.ReportChannelPattern, app.Logger)
	defer platform.Close()

	orchestrator := response.New(mode, app.History, platform, response.Config{
		ModeratorRoleID:  sb.ModeratorRoleID,
		QuarantineRoleID: sb.QuarantineRoleID,
		RequestTimeout:   cfg.Bot.RequestTimeoutDuration(),
	}, app.Logger)

	detector := flood.New(floodConfig(sb), app.Logger)

	scamPipeline := pipeline.New(pipeline.Config{
		TrustedRoleIDs: sb.TrustedRoleIDs,
		ReportChannels: platform,
	}, analyzer.New(analyzerConfig(sb)), detector, orchestrator, app.Logger)

	discordBot, err := bot.New(cfg.Bot.Discord.Token, restClient, scamPipeline, orchestrator, app.Logger)
	if err != nil {
		return err
	}

	app.Logger.Info("Scam blocker configured",
		zap.String("mode", mode.String()),
		zap.Uint64("moderatorRoleID", sb.ModeratorRoleID),
		zap.Uint64("quarantineRoleID", sb.QuarantineRoleID))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return discordBot.Start(ctx)
	})

	g.Go(func() error {
		interval := time.Duration(sb.Flood.SweepIntervalSeconds) * time.Second
		sweep.New(detector, interval, app.Logger).Start(ctx)
		return nil
	})

	if withPurge {
		g.Go(func() error {
			purge.New(app.History, sb.Retention(), sb.PurgeInterval(), app.Logger).Start(ctx)
			return nil
		})
	}

	if cfg.Common.Metrics.Enabled {
		g.Go(func() error {
			return metrics.NewServer(cfg.Common.Metrics.Address, app.Logger).Run(ctx)
		})
	}

	log.Println("Bot has been started. Waiting for interrupt signal to gracefully shutdown...")

	return g.Wait()
}

// analyzerConfig maps the configuration onto the analyzer.
func analyzerConfig(sb *config.ScamBlocker) analyzer.Config {
	return analyzer.Config{
		SuspiciousKeywords:             sb.SuspiciousKeywords,
		SuspiciousHostKeywords:         sb.SuspiciousHostKeywords,
		HostWhitelist:                  sb.HostWhitelist,
		HostBlacklist:                  sb.HostBlacklist,
		HostSimilarityThreshold:        sb.HostSimilarityThreshold,
		SuspiciousAttachmentsThreshold: sb.SuspiciousAttachmentsThreshold,
	}
}

// floodConfig maps the configuration onto the flood detector.
func floodConfig(sb *config.ScamBlocker) flood.Config {
	return flood.Config{
		IgnoreLength:       sb.Flood.IgnoreLength,
		MaxSimilarMessages: sb.Flood.MaxSimilarMessages,
		Window:             time.Duration(sb.Flood.WindowMinutes) * time.Minute,
		Whitelist:          sb.Flood.Whitelist,
	}
}
