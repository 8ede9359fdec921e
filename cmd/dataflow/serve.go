package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/spf13/cobra"

	"github.com/nodeshop/dataflow/internal/config"
	"github.com/nodeshop/dataflow/internal/execute"
	"github.com/nodeshop/dataflow/internal/infrastructure/cache"
	httpapi "github.com/nodeshop/dataflow/internal/infrastructure/http"
	"github.com/nodeshop/dataflow/internal/infrastructure/messaging"
	"github.com/nodeshop/dataflow/internal/infrastructure/messaging/nats"
	"github.com/nodeshop/dataflow/internal/infrastructure/monitoring"
	"github.com/nodeshop/dataflow/internal/infrastructure/persistence/postgres"
	"github.com/nodeshop/dataflow/internal/infrastructure/schedule"
	"github.com/nodeshop/dataflow/internal/pkg/eventbus"
)

// newServeCommand builds `dataflow serve`, the long-running control-plane
// process: connects Postgres (applying migrations), Redis, and NATS,
// starts the HTTP API and, if configured, the cron replan scheduler, and
// blocks until SIGINT/SIGTERM, mirroring cmd/server/main.go's
// connect-everything-then-wait-for-signal shape.
func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control plane",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgCfg := postgres.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
	}
	if err := postgres.Migrate(pgCfg); err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer postgres.Close(pool)
	logger.Info("connected to postgres", "host", cfg.Database.Host, "database", cfg.Database.Database)

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	logger.Info("connected to redis", "addr", cfg.Redis.Addr)

	graphRepo := postgres.NewGraphRepository(pool)
	snapshotRepo := postgres.NewSnapshotRepository(pool)
	snapshotCache := cache.NewSnapshotCache(snapshotRepo, redisClient, cfg.Redis.SnapshotTTL)
	historyRepo := postgres.NewRunHistoryRepository(pool)

	eventBus := eventbus.New()

	natsLogger := watermill.NewStdLogger(false, false)
	publisher, err := nats.NewPublisher(cfg.NATS.URL, natsLogger)
	if err != nil {
		logger.Warn("failed to connect to NATS, continuing without event relay", "error", err)
	} else {
		defer publisher.Close()
		relay := messaging.NewEventRelay(eventBus, publisher, logger, 8)
		defer relay.Wait()
		logger.Info("connected to NATS", "url", cfg.NATS.URL)
	}

	metrics := monitoring.New("dataflow")

	invoker := defaultInvoker()
	service := &httpapi.Service{
		Graphs:    graphRepo,
		Snapshots: snapshotCache,
		History:   historyRepo,
		Invoker: func() (*execute.Executor, *execute.ContextStore) {
			executor := execute.New(invoker)
			executor.Events = eventBus
			return executor, execute.NewContextStore()
		},
		Logger: logger,
	}

	if cfg.Schedule.Spec != "" {
		scheduler := schedule.New(service, logger)
		scheduler.Start()
		defer scheduler.Stop()
		service.Scheduler = scheduler
		service.ScheduleSpec = cfg.Schedule.Spec
		logger.Info("replan scheduler started", "spec", cfg.Schedule.Spec)
	}

	server := httpapi.NewServer(httpapi.ServerConfig{
		JWTSecret:       cfg.Auth.JWTSecret,
		RateLimitRPM:    600,
		RateLimitWindow: time.Minute,
		TraceService:    "dataflow",
	}, service, metrics, redisClient)

	go func() {
		if err := server.Start(cfg.HTTP.Addr()); err != nil {
			logger.Error("http server stopped", "error", err)
		}
	}()
	logger.Info("control plane listening", "addr", cfg.HTTP.Addr())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
