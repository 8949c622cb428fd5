package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/kursadbilgin/dining-desk/internal/cache"
	"github.com/kursadbilgin/dining-desk/internal/config"
	"github.com/kursadbilgin/dining-desk/internal/dataset"
	"github.com/kursadbilgin/dining-desk/internal/followup"
	"github.com/kursadbilgin/dining-desk/internal/handler"
	infraredis "github.com/kursadbilgin/dining-desk/internal/infra/redis"
	"github.com/kursadbilgin/dining-desk/internal/observability"
	"github.com/kursadbilgin/dining-desk/internal/provider"
	"github.com/kursadbilgin/dining-desk/internal/ratelimit"
	"github.com/kursadbilgin/dining-desk/internal/service"
	"github.com/kursadbilgin/dining-desk/internal/transport"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	startupTimeout  = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	rdb, err := infraredis.NewRedis(startupCtx, cfg.RedisURL)
	cancel()
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}

	limiter, err := newRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}
	reportCache, err := newReportCache(rdb, cfg.ReportCacheTTL)
	if err != nil {
		logger.Fatal("report cache initialization failed", zap.Error(err))
	}

	ranges, err := dataset.LoadRanges(cfg.BucketsPath)
	if err != nil {
		logger.Fatal("failed to load date ranges", zap.Error(err))
	}
	store := dataset.NewStore(cfg.DatasetPath, ranges)
	if err := store.Reload(); err != nil {
		logger.Warn("dataset unavailable, starting with an empty dataset",
			zap.String("path", cfg.DatasetPath),
			zap.Error(err),
		)
	} else {
		logger.Info("dataset loaded", zap.Int("diners", store.TotalDiners()))
	}

	generator, err := provider.NewCohereGenerator(cfg.CohereBaseURL, cfg.CohereModel, cfg.GenerationTimeout)
	if err != nil {
		logger.Fatal("generator initialization failed", zap.Error(err))
	}
	transcriber, err := provider.NewWhisperTranscriber(cfg.OpenAIBaseURL, cfg.TranscriptionTimeout)
	if err != nil {
		logger.Fatal("transcriber initialization failed", zap.Error(err))
	}

	processor, err := followup.NewProcessor(generator, limiter, generator.Model(), logger)
	if err != nil {
		logger.Fatal("batch processor initialization failed", zap.Error(err))
	}
	processor.SetMetrics(metrics)

	analyzer, err := followup.NewAnalyzer(processor, cfg.FollowUpBatchSize, cfg.WorkerConcurrency, logger)
	if err != nil {
		logger.Fatal("analyzer initialization failed", zap.Error(err))
	}
	analyzer.SetMetrics(metrics)

	dashboardService, err := service.NewDashboardService(store, logger)
	if err != nil {
		logger.Fatal("dashboard service initialization failed", zap.Error(err))
	}
	followUpService, err := service.NewFollowUpService(dashboardService, analyzer, reportCache, cfg.CohereAPIKey, logger)
	if err != nil {
		logger.Fatal("follow-up service initialization failed", zap.Error(err))
	}
	followUpService.SetMetrics(metrics)

	huddleService, err := service.NewHuddleService(transcriber, generator, cfg.OpenAIAPIKey, cfg.CohereAPIKey, logger)
	if err != nil {
		logger.Fatal("huddle service initialization failed", zap.Error(err))
	}
	huddleService.SetMetrics(metrics)

	reloader, err := service.NewDatasetReloader(store, followUpService, cfg.DatasetReloadInterval, logger)
	if err != nil {
		logger.Fatal("dataset reloader initialization failed", zap.Error(err))
	}
	go func() {
		if err := reloader.Start(ctx); err != nil {
			logger.Error("dataset reloader stopped", zap.Error(err))
		}
	}()

	if !cfg.HasGenerationCredentials() {
		logger.Warn("COHERE_API_KEY is not set, follow-up and huddle analysis are disabled")
	}
	if !cfg.HasTranscriptionCredentials() {
		logger.Warn("OPENAI_API_KEY is not set, huddle transcription is disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      "dining-desk",
		BodyLimit:    cfg.MaxUploadMB * 1024 * 1024,
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(handler.RequestID())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, rdb, store)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	if err := handler.RegisterDashboardRoutes(app, dashboardService, followUpService); err != nil {
		logger.Fatal("failed to register dashboard routes", zap.Error(err))
	}
	if err := handler.RegisterHuddleRoutes(app, huddleService); err != nil {
		logger.Fatal("failed to register huddle routes", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	}()

	logger.Info("dining-desk api started",
		zap.Int("port", cfg.APIPort),
		zap.Bool("redis", rdb != nil),
		zap.Int("batchSize", cfg.FollowUpBatchSize),
	)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("api server stopped", zap.Error(err))
		}
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("api shutdown failed", zap.Error(err))
	}
}

func newRateLimiter(rdb *redis.Client, limitPerSec int) (ratelimit.RateLimiter, error) {
	if rdb == nil {
		return ratelimit.NewLocal(limitPerSec), nil
	}
	return infraredis.NewRedisRateLimiter(rdb, limitPerSec)
}

func newReportCache(rdb *redis.Client, ttl time.Duration) (cache.ReportCache, error) {
	if rdb == nil {
		return cache.NewMemory(), nil
	}
	return infraredis.NewReportCache(rdb, ttl)
}
