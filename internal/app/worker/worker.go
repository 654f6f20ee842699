// Package worker собирает воркер Temporal, исполняющий workflow напоминаний
// о продлении подписок.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/subscription-tracker/internal/cache"
	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/reminder"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

// App воркер напоминаний.
type App struct {
	logger   *slog.Logger
	db       *repository.Storage
	cache    *cache.Cache
	conn     *amqp.Connection
	ch       *amqp.Channel
	temporal client.Client
	worker   worker.Worker
	grpc     *grpc.Server
	health   *health.Server
	grpcAddr string
	metrics  *http.Server
}

// New подключает зависимости активностей и регистрирует workflow в очереди задач.
// Кеш не обязателен: при недоступном redis воркер работает без инвалидации.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.worker.New"

	calc, err := reminder.NewCalculator(cfg.LeadDays)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var invalidator reminder.CacheInvalidator
	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		logger.Warn("redis unavailable, cache invalidation disabled", sl.Err(err))
	} else {
		invalidator = cacheRedis
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reminderMetrics := metrics.NewReminderMetrics(registry)

	w := worker.New(temporalClient, cfg.TemporalTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(reminder.NewWorkflow(calc).SubscriptionReminder,
		workflow.RegisterOptions{Name: reminder.WorkflowName})
	w.RegisterActivity(reminder.NewActivities(db, rabbitmq.NewPublisher(ch), invalidator, reminderMetrics))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	healthServer := health.NewServer()
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return &App{
		logger:   logger,
		db:       db,
		cache:    cacheRedis,
		conn:     conn,
		ch:       ch,
		temporal: temporalClient,
		worker:   w,
		grpc:     grpcServer,
		health:   healthServer,
		grpcAddr: cfg.GRPCHealthAddress,
		metrics: &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Run запускает воркер и служебные эндпоинты и ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	const op = "app.worker.Run"

	lis, err := net.Listen("tcp", a.grpcAddr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("gRPC health server starting on", slog.String("address", a.grpcAddr))
		if err := a.grpc.Serve(lis); err != nil {
			errCh <- fmt.Errorf("%s: grpc: %w", op, err)
		}
	}()
	go func() {
		a.logger.Info("metrics server starting on", slog.String("address", a.metrics.Addr))
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s: metrics: %w", op, err)
		}
	}()

	if err := a.worker.Start(); err != nil {
		a.shutdown()
		return fmt.Errorf("%s: %w", op, err)
	}
	a.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	a.logger.Info("reminder worker started")

	select {
	case err = <-errCh:
	case <-ctx.Done():
		a.logger.Info("reminder worker shutting down gracefully")
	}

	a.health.Shutdown()
	a.worker.Stop()
	a.shutdown()
	return err
}

func (a *App) shutdown() {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.metrics.Shutdown(timeoutCtx); err != nil {
		a.logger.Error("failed to stop metrics server", sl.Err(err))
	}
	a.grpc.GracefulStop()
	a.temporal.Close()

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
