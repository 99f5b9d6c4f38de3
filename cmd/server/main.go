// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/fbn1986/gerenciador-de-contratos/internal/archive"
	"github.com/fbn1986/gerenciador-de-contratos/internal/attachments"
	"github.com/fbn1986/gerenciador-de-contratos/internal/audit"
	"github.com/fbn1986/gerenciador-de-contratos/internal/contracts"
	"github.com/fbn1986/gerenciador-de-contratos/internal/events"
	"github.com/fbn1986/gerenciador-de-contratos/internal/identity"
	"github.com/fbn1986/gerenciador-de-contratos/internal/notify"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/config"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/httpserver"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/logger"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/metrics"
	platformredis "github.com/fbn1986/gerenciador-de-contratos/internal/platform/redis"
	"github.com/fbn1986/gerenciador-de-contratos/internal/roles"
	httptransport "github.com/fbn1986/gerenciador-de-contratos/internal/transport/http"
)

const consumerGroup = "gerenciador-de-contratos"

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	storage, err := attachments.NewMinioStorage(cfg.Storage)
	if err != nil {
		log.Error("failed to create object storage client", "error", err)
		os.Exit(1)
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		log.Error("failed to prepare storage bucket", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	userStore := identity.NewPostgresUserStore(db)
	roleStore := roles.NewPostgresStore(db)
	contractStore := contracts.NewPostgresStore(db)

	mailer := notify.NewAPIMailer(cfg.Mailer)
	auditRecorder := audit.NewRecorder(contractStore, log, m)
	notifyDispatcher := notify.NewDispatcher(cfg.NotificationRecipients, mailer, log, m)
	dispatcher := events.NewDispatcher(log, m, nil, auditRecorder, notifyDispatcher)

	var (
		publisher events.Publisher
		runBus    func(context.Context) error
		closeBus  func()
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := events.NewKafkaBus(ctx, log, cfg.Kafka.Brokers, cfg.Kafka.Topic, consumerGroup, nil)
		if err != nil {
			log.Error("failed to connect event producer", "error", err)
			os.Exit(1)
		}
		consumer, err := events.NewKafkaBus(ctx, log, cfg.Kafka.Brokers, cfg.Kafka.Topic, consumerGroup, dispatcher)
		if err != nil {
			log.Error("failed to connect event consumer", "error", err)
			os.Exit(1)
		}
		publisher = producer
		runBus = consumer.Run
		closeBus = func() {
			producer.Close()
			consumer.Close()
		}
	} else {
		log.Warn("no kafka brokers configured, using in-process event bus")
		bus := events.NewMemoryBus(log, dispatcher, 256)
		publisher = bus
		runBus = bus.Run
		closeBus = func() {}
	}
	defer closeBus()

	tokens := identity.NewTokenService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	identitySvc := identity.NewService(userStore, tokens, publisher, log)
	roleCache := roles.NewCache(redisClient, log)
	roleSvc := roles.NewService(roleStore, roleCache, identitySvc, log, m)
	dispatcher.BindRoles(roleSvc)

	contractSvc := contracts.NewService(contractStore, publisher, log, m)
	attachmentSvc := attachments.NewService(contractStore, storage, log, m)
	archiveSvc := archive.NewWorkflow(roleSvc, contractStore, storage, log, m)

	router := httptransport.NewRouter(httptransport.Deps{
		Identity:      identitySvc,
		Users:         roleSvc,
		Contracts:     contractSvc,
		Attachments:   attachmentSvc,
		Archive:       archiveSvc,
		Resolver:      identitySvc,
		Logger:        log,
		AllowedOrigin: cfg.AllowedOrigin,
	})
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		if err := runBus(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("event consumer stopped", "error", err)
		}
	}()

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
