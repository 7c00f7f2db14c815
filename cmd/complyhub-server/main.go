// Package main is the entrypoint for the ComplyHub server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/activity"
	"github.com/haneul-labs/complyhub/internal/api"
	"github.com/haneul-labs/complyhub/internal/assistant"
	"github.com/haneul-labs/complyhub/internal/auth"
	"github.com/haneul-labs/complyhub/internal/config"
	"github.com/haneul-labs/complyhub/internal/db"
	"github.com/haneul-labs/complyhub/internal/metrics"
	"github.com/haneul-labs/complyhub/internal/notify"
	"github.com/haneul-labs/complyhub/internal/storage"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("version", Version).Logger()
	if os.Getenv("ENV") != string(config.EnvProduction) {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger.Info().
		Str("version", Version).
		Str("commit", Commit).
		Str("build_date", BuildDate).
		Msg("Starting ComplyHub server")

	cfg, err := config.LoadServerConfig()
	if err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	database, err := db.New(ctx, db.DefaultConfig(cfg.DatabaseURL), logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database")
		return 1
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to run database migrations")
		return 1
	}

	blobs, err := storage.New(ctx, storage.Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize blob storage")
		return 1
	}

	tokens := auth.NewTokenManager(
		cfg.JWTSecret,
		time.Duration(cfg.AccessTokenMins)*time.Minute,
		time.Duration(cfg.RefreshTokenHours)*time.Hour,
	)

	feed := activity.NewFeed(activity.DefaultConfig(), database, logger)
	feed.Start()
	defer feed.Stop()

	aiClient := assistant.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if !aiClient.Enabled() {
		logger.Info().Msg("GEMINI_API_KEY not set, assistant endpoints disabled")
	}

	router, err := api.NewRouter(api.Deps{
		Config:    cfg,
		DB:        database,
		Blobs:     blobs,
		Tokens:    tokens,
		Feed:      feed,
		Assistant: aiClient,
		Metrics:   metrics.New(),
		Version:   Version,
		Logger:    logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize router")
		return 1
	}

	scheduler := notify.NewScheduler(database, cfg.NotifyCronSpec, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("Failed to start deadline scanner")
		return 1
	}
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info().Str("signal", sig.String()).Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
		return 1
	}

	logger.Info().Msg("Server stopped gracefully")
	return 0
}
