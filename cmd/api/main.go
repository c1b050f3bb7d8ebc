package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/apprating/internal/adapters/events"
	"github.com/zatekoja/apprating/internal/adapters/kvstore"
	"github.com/zatekoja/apprating/internal/adapters/providers/storereview"
	"github.com/zatekoja/apprating/internal/adapters/storage"
	"github.com/zatekoja/apprating/internal/api/handlers"
	"github.com/zatekoja/apprating/internal/api/routes"
	"github.com/zatekoja/apprating/internal/application/services"
	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/providers"
	"github.com/zatekoja/apprating/internal/infrastructure/clients/redis"
	"github.com/zatekoja/apprating/internal/infrastructure/observability"
	"github.com/zatekoja/apprating/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Env, cfg.Log.Level)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	backend, err := kvstore.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("failed to open store")
	}
	defer backend.Close()
	logger.Info().Str("backend", cfg.Store.Backend).Msg("store opened")

	// Review events fan out over Redis when enabled so every instance sees every
	// mutation; otherwise they stay in process and only feed the SSE stream.
	var (
		eventBus      providers.EventBus
		crossInstance bool
	)
	if cfg.Events.Enabled {
		redisClient := backend.Redis
		if redisClient == nil {
			redisClient, err = redis.NewClient(ctx, &cfg.Redis)
			if err != nil {
				logger.Warn().Err(err).Msg("review events disabled: Redis unavailable")
			} else {
				defer redisClient.Close()
			}
		}
		if redisClient != nil {
			eventBus = events.NewRedisEventBus(redisClient)
			crossInstance = true
		}
	}
	if eventBus == nil {
		eventBus = events.NewMemoryEventBus()
	}

	storeReview := services.NewStoreReviewService(storereview.NewStoreReviewProvider(cfg.StoreReview))

	promptService := services.NewPromptService(
		storage.NewPromptStateAdapter(backend.Store),
		storeReview,
		services.WithPromptMetrics(metrics),
		services.WithMinimumStoreRating(cfg.Rating.MinimumRatingForStoreReview),
	)
	if _, err := promptService.Initialize(ctx, cfg.Rating.StorageKey); err != nil {
		logger.Warn().Err(err).Str("storage_key", cfg.Rating.StorageKey).Msg("prompt state not restored")
	}

	reviewService := services.NewReviewService(
		storage.NewReviewAdapter(backend.Store),
		services.WithReviewMetrics(metrics),
		services.WithEventBus(eventBus, cfg.Events.Channel),
	)
	userRatingService := services.NewUserRatingService(storage.NewUserRatingAdapter(backend.Store), metrics)
	feedbackService := services.NewFeedbackService(storage.NewFeedbackAdapter(backend.Store))

	var bucketSync *services.BucketSyncService
	if crossInstance {
		bucketSync = services.NewBucketSyncService(reviewService, eventBus, cfg.Events.Channel)
		if err := bucketSync.Start(); err != nil {
			logger.Warn().Err(err).Msg("failed to start bucket sync")
			bucketSync = nil
		}
	}

	defaults := entities.PromptConfig{
		ActionsBeforeRating: cfg.Rating.ActionsBeforeRating,
		DaysBetweenRatings:  cfg.Rating.DaysBetweenRatings,
	}

	router := routes.NewRouter(
		handlers.NewPromptHandler(promptService, defaults),
		handlers.NewFeedbackHandler(feedbackService),
		handlers.NewReviewHandler(reviewService),
		handlers.NewUserRatingHandler(userRatingService),
		handlers.NewStatsHandler(reviewService),
		handlers.NewStoreReviewHandler(storeReview),
		handlers.NewSSEHandler(eventBus, cfg.Events.Channel),
		reviewService,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// no write timeout: review streams stay open
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	if bucketSync != nil {
		bucketSync.Stop()
	}
	if err := eventBus.Close(); err != nil {
		logger.Error().Err(err).Msg("error closing event bus")
	}

	logger.Info().Msg("server stopped")
}
