package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ayo6706/mobile-money-ledger/internal/api"
	"github.com/ayo6706/mobile-money-ledger/internal/auth"
	"github.com/ayo6706/mobile-money-ledger/internal/config"
	"github.com/ayo6706/mobile-money-ledger/internal/db"
	"github.com/ayo6706/mobile-money-ledger/internal/events"
	"github.com/ayo6706/mobile-money-ledger/internal/idempotency"
	"github.com/ayo6706/mobile-money-ledger/internal/observability"
	"github.com/ayo6706/mobile-money-ledger/internal/repository"
	"github.com/ayo6706/mobile-money-ledger/internal/service"
	"github.com/ayo6706/mobile-money-ledger/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server and reconciliation worker, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	if err != nil {
		return fmt.Errorf("init tokens: %w", err)
	}
	passwords := auth.NewPasswords(cfg.BcryptCost)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	var cache redis.Cmdable
	if cfg.RedisURL != "" {
		redisClient, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		cache = redisClient
	} else {
		logger.Info("REDIS_URL not set, idempotency cache disabled")
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		producer, err := events.NewProducer(cfg.AMQPURL, cfg.EventsExchange)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer producer.Close()
		publisher = producer
	} else {
		logger.Info("AMQP_URL not set, ledger events disabled")
	}

	store := repository.NewStore(pool)
	idemStore := idempotency.NewStore(cache, repository.New(pool), cfg.IdempotencyTTL)

	ledgerSvc := service.NewLedgerService(store, publisher)
	services := api.Services{
		Accounts:  service.NewAccountService(store, passwords, tokens),
		Ledger:    ledgerSvc,
		Transfers: service.NewTransferService(store, ledgerSvc, publisher),
		Deposits:  service.NewDepositService(store, ledgerSvc, publisher),
	}

	stopWorker := func() {}
	if cfg.ReconciliationSchedule != "" {
		reconWorker := worker.NewReconciliationWorker(service.NewReconciliationService(store)).
			WithSchedule(cfg.ReconciliationSchedule)
		stopWorker, err = reconWorker.Run(ctx)
		if err != nil {
			return fmt.Errorf("start reconciliation worker: %w", err)
		}
	}

	router := api.NewRouter(cfg, logger, pool, cache, tokens, idemStore, services)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			stopWorker()
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("stopping reconciliation worker")
	stopWorker()

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
