package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/edufin/internal/app"
	"github.com/dvloznov/edufin/internal/config"
	"github.com/dvloznov/edufin/internal/jobs/inmemory"
	"github.com/dvloznov/edufin/internal/jobs/pubsub"
	"github.com/dvloznov/edufin/internal/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("EDUFIN_CONFIG"), "Path to YAML config (or set EDUFIN_CONFIG env)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New(logger.Options{})
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Options{Level: cfg.Logging.Level, Console: cfg.Logging.Console})

	if cfg.PubSub.ProjectID == "" || cfg.PubSub.Subscription == "" {
		log.Fatal().Msg("Error: pubsub.project_id and pubsub.subscription are required")
	}

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	rt, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backends")
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close backends")
		}
	}()

	// Job statuses are kept locally for log correlation only.
	subscriber, err := pubsub.NewSubscriber(ctx, cfg.PubSub.ProjectID, cfg.PubSub.Subscription, inmemory.NewStore())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Pub/Sub subscriber")
	}

	log.Info().Str("subscription", cfg.PubSub.Subscription).Msg("Starting worker service")

	if err := subscriber.Start(ctx, rt.JobHandlers().Router().Dispatch); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stop receiving and wait for in-flight jobs
	if err := subscriber.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}
