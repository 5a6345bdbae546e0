package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"cadlink/internal/audit"
	"cadlink/internal/classify"
	"cadlink/internal/export"
	"cadlink/internal/ingest"
	"cadlink/internal/ingest/joblock"
	ingestmetrics "cadlink/internal/ingest/metrics"
	"cadlink/internal/link"
	"cadlink/internal/objects"
	"cadlink/internal/platform/config"
	"cadlink/internal/platform/httpserver"
	"cadlink/internal/platform/logger"
	platformmetrics "cadlink/internal/platform/metrics"
	"cadlink/internal/platform/postgres"
	platformredis "cadlink/internal/platform/redis"
	"cadlink/internal/review"
	httptransport "cadlink/internal/transport/http"
	"cadlink/pkg/platform/tx"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	var (
		objectStore objects.Store
		linkStore   link.Store
		reviewStore review.Store
		auditSink   audit.Sink
		outboxSink  *audit.PostgresSink
		locker      joblock.Locker
		runner      tx.Runner
		checks      []httptransport.HealthCheck
	)

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		objectStore = objects.NewPostgresStore(db)
		linkStore = link.NewPostgresStore(db)
		reviewStore = review.NewPostgresStore(db)
		outboxSink = audit.NewPostgresSink(db)
		auditSink = outboxSink
		locker = joblock.NewPostgresLocker(db)
		runner = tx.NewSQLRunner(db)
		checks = append(checks, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
		log.Info("using postgres storage")
	} else {
		objectStore = objects.NewInMemoryStore()
		linkStore = link.NewInMemoryStore()
		reviewStore = review.NewInMemoryStore()
		auditSink = audit.NewMemorySink()
		locker = joblock.NewInMemoryLocker()
		runner = tx.NopRunner{}
		log.Warn("no DATABASE_URL set, using in-memory storage")
	}

	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		locker = joblock.NewRedisLocker(redisClient.Client, cfg.JobLockTTL)
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Check: redisClient.Health})
		log.Info("using redis job locks")
	}

	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		if outboxSink != nil {
			// Events keep committing through the outbox with each entity's
			// transaction; the relay ships the backlog to kafka behind it.
			relay := audit.NewRelay(outboxSink, kafkaSink, log)
			go func() { _ = relay.Run(ctx) }()
			log.Info("relaying audit outbox to kafka", "topic", cfg.AuditTopic)
		} else {
			// No outbox to relay from; buffer events and drain them off the
			// batch path instead.
			buffered := audit.NewBufferedSink(256)
			worker := audit.NewWorker(buffered.Events(), kafkaSink, log)
			go func() { _ = worker.Run(ctx) }()
			auditSink = buffered
			log.Info("publishing audit events to kafka", "topic", cfg.AuditTopic)
		}
	}

	auditPub := audit.NewPublisher(auditSink, log)

	linkRegistry := link.NewRegistry(linkStore, auditPub, log)
	classifier := classify.New()

	ingestSvc := ingest.NewService(classifier, objectStore, linkRegistry, reviewStore,
		ingest.WithLocker(locker),
		ingest.WithRunner(runner),
		ingest.WithAudit(auditPub),
		ingest.WithMetrics(ingestmetrics.New()),
		ingest.WithLogger(log),
	)
	exporter := export.NewExporter(objectStore, linkRegistry, export.WithLogger(log))

	handler := httptransport.New(ingestSvc, exporter, linkRegistry, log)
	router := httptransport.NewRouter(handler, log, platformmetrics.NewHTTP(), checks...)

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting cadlink server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
