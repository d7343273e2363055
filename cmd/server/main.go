package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"

	"github.com/bStyler/live-stream-monitor-sub000/internal/config"
	"github.com/bStyler/live-stream-monitor-sub000/internal/db"
	"github.com/bStyler/live-stream-monitor-sub000/internal/fetcher"
	"github.com/bStyler/live-stream-monitor-sub000/internal/handler"
	"github.com/bStyler/live-stream-monitor-sub000/internal/middleware"
	"github.com/bStyler/live-stream-monitor-sub000/internal/repository"
	"github.com/bStyler/live-stream-monitor-sub000/internal/router"
	"github.com/bStyler/live-stream-monitor-sub000/internal/service"
	"github.com/bStyler/live-stream-monitor-sub000/internal/youtube"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "streammon")
	logger := middleware.Logger

	if cfg.YouTubeAPIKey == "" {
		logger.Fatal().Msg("YOUTUBE_API_KEY is required")
	}
	if cfg.CronSecret == "" {
		logger.Fatal().Msg("CRON_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := db.ApplySchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	broadcastRepo := repository.NewBroadcastRepo(pool)
	snapshotRepo := repository.NewSnapshotRepo(pool)
	changeRepo := repository.NewChangeRepo(pool)

	quota := youtube.NewQuotaTracker(cfg.QuotaDailyLimit)
	provider := youtube.New(cfg.YouTubeAPIKey)
	batchFetcher := fetcher.New(provider, quota, logger)

	poller := service.NewPollService(
		pool, broadcastRepo, snapshotRepo, changeRepo,
		batchFetcher, logger,
		cfg.PollMinInterval, cfg.PollCycleBudget,
	)

	handler.InitMetrics(pool)

	h := &router.Handlers{
		Broadcast: handler.NewBroadcastHandler(broadcastRepo),
		Snapshot:  handler.NewSnapshotHandler(broadcastRepo, snapshotRepo, cache),
		Change:    handler.NewChangeHandler(broadcastRepo, changeRepo, cache),
		Poll:      handler.NewPollHandler(poller, quota, cfg.CronSecret, cfg.PollMaxBroadcasts),
		Stats:     handler.NewStatsHandler(broadcastRepo),
		Health:    handler.NewHealthHandler(pool, cache.Client()),
	}

	app := fiber.New(fiber.Config{
		AppName:      "StreamMon API",
		ServerHeader: "StreamMon",
	})
	router.Setup(app, h, cfg.CORSOrigins)

	if cfg.PollWorkerEnabled {
		worker := service.NewPollWorker(poller, cfg.PollWorkerInterval, cfg.PollMaxBroadcasts, logger)
		go worker.Start(ctx)
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Environment).
			Msg("server starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown incomplete")
	}
	logger.Info().Msg("server stopped")
}
