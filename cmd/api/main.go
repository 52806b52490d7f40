package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/activity-service/internal/api/http"
	"github.com/spec-kit/activity-service/internal/api/http/handlers"
	"github.com/spec-kit/activity-service/internal/auth"
	"github.com/spec-kit/activity-service/internal/config"
	"github.com/spec-kit/activity-service/internal/events"
	"github.com/spec-kit/activity-service/internal/mapper"
	"github.com/spec-kit/activity-service/internal/observability"
	"github.com/spec-kit/activity-service/internal/persistence"
	"github.com/spec-kit/activity-service/internal/policy"
	"github.com/spec-kit/activity-service/internal/repository"
	"github.com/spec-kit/activity-service/internal/service"
	"github.com/spec-kit/activity-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.With(zap.String("service", cfg.App.Name), zap.String("version", cfg.App.Version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pol, err := policy.Load(cfg.Policy.Path)
	if err != nil {
		logger.Fatal("failed to load policy", zap.Error(err))
	}
	assigner, err := mapper.NewAssigner(mapper.NewCache(), pol)
	if err != nil {
		logger.Fatal("failed to compile mapping rules", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	activityRepo := repository.NewActivityRepository(pool)
	ticketStatsRepo := repository.NewTicketStatsRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	activityService := service.NewActivityService(service.ActivityDependencies{
		ActivityRepo:  activityRepo,
		Locker:        persistence.NewScopeLock(redis, cfg.Redis.KeyPrefix, cfg.Ingest.LockTTL()),
		Assigner:      assigner,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger.Named("ingest"),
		CombineWindow: cfg.Ingest.CombineWindow(),
	})
	insightsService := service.NewInsightsService(service.InsightsDependencies{
		ActivityRepo:    activityRepo,
		TicketStatsRepo: ticketStatsRepo,
		Cache:           persistence.NewViewCache(redis, cfg.Redis.KeyPrefix, cfg.Ingest.GroupCacheTTL()),
		Policy:          pol,
		Dispatcher:      dispatcher,
		Logger:          logger.Named("insights"),
	})
	worker.StartInsightsWorker(insightsService)

	var redisCheck handlers.Pinger
	if redis.Enabled() {
		redisCheck = redis
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTLMinutes)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisCheck),
		Activities:     handlers.NewActivitiesHandler(activityService),
		Insights:       handlers.NewInsightsHandler(insightsService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
