package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/tat-monitor/internal/api/http"
	"github.com/spec-kit/tat-monitor/internal/api/http/handlers"
	"github.com/spec-kit/tat-monitor/internal/auth"
	"github.com/spec-kit/tat-monitor/internal/config"
	"github.com/spec-kit/tat-monitor/internal/events"
	"github.com/spec-kit/tat-monitor/internal/observability"
	"github.com/spec-kit/tat-monitor/internal/persistence"
	"github.com/spec-kit/tat-monitor/internal/repository"
	"github.com/spec-kit/tat-monitor/internal/service"
	"github.com/spec-kit/tat-monitor/internal/ticketing"
	"github.com/spec-kit/tat-monitor/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	stateRepo := repository.NewRedisStateRepository(redis.Client)
	var archiveRepo repository.DispositionArchiveRepository
	if pg.PoolHandle() != nil {
		archiveRepo = repository.NewDispositionArchiveRepository(pg.PoolHandle())
	}

	source := ticketing.NewClient(ticketing.ClientConfig{
		BaseURL:        cfg.Ticketing.BaseURL,
		APIToken:       cfg.Ticketing.APIToken,
		PageSize:       cfg.Ticketing.PageSize,
		TimeoutSeconds: cfg.Ticketing.TimeoutSeconds,
	}, logger)

	monitorService := service.NewMonitorService(service.MonitorDependencies{
		Source:          source,
		State:           stateRepo,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
		PendingFilter:   ticketing.PendingFilter{PageSize: cfg.Ticketing.PageSize},
		RetentionCycles: cfg.Poller.RetentionCycles,
	})
	analyticsService := service.NewAnalyticsService(service.AnalyticsDependencies{
		State:      stateRepo,
		Archive:    archiveRepo,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		Capacity:   cfg.Analytics.DispositionLogCapacity,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	poller := worker.NewPoller(monitorService, cfg.Poller.Interval(), metrics, logger)
	poller.Start(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(cfg.Auth, tokens),
		Monitor:        handlers.NewMonitorHandler(monitorService, analyticsService, poller),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	poller.Stop()
	poller.Wait()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
