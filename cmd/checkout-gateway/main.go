package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/api-gateway/infra/adapters/service"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/api-gateway/infra/httpx"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/config"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator/journal"
	journalsqlite "github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator/journal/sqlite"
	inventoryservice "github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/inventory-service"
	invoiceservice "github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/invoice-service"
	notificationservice "github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/notification-service"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pkg/cache"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pkg/metrics"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load(getEnv("CHECKOUT_CONFIG", ""))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level, err := telemetry.ParseLevel(cfg.LogLevel)
	if err != nil {
		slog.Error("invalid log level", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	store, closeJournal, err := openJournal(cfg.Journal)
	if err != nil {
		slog.Error("failed to open checkout journal", "path", cfg.Journal.Path, "error", err)
		os.Exit(1)
	}
	defer closeJournal()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer redisClient.Close()
	}

	inventory, err := buildInventory(ctx, cfg, redisClient)
	if err != nil {
		slog.Error("failed to set up inventory", "backend", cfg.Inventory.Backend, "error", err)
		os.Exit(1)
	}
	breaker := inventoryservice.NewBreaker(inventory, inventoryservice.BreakerSettings{
		Name:             "inventory-" + cfg.Inventory.Backend,
		ConsecutiveFails: cfg.Inventory.BreakerFailures,
		OpenTimeout:      cfg.Inventory.BreakerTimeout,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	checkout := coordinator.NewCheckout(
		breaker,
		invoiceservice.NewLedger(invoiceservice.WithBreakdown(coordinator.AdjustmentsFromContext)),
		notificationservice.NewLogNotifier(slog.Default()),
		coordinator.WithJournal(store),
		coordinator.WithMetrics(metrics.NewCheckoutMetrics(reg)),
	)

	var replay cache.Cache = cache.NewMemory(cfg.ServiceName)
	if redisClient != nil {
		replay = cache.NewRedisCache(redisClient, cfg.Redis.Prefix)
	}

	handler := httpx.NewHandler(
		service.NewCheckoutService(cfg, checkout, store),
		httpx.WithIdempotencyCache(replay, cfg.Redis.IdempotencyTTL),
		httpx.WithHealthDetails(func() map[string]string {
			return map[string]string{"inventory_breaker": breaker.State()}
		}),
	)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(handler, metrics.Handler(reg), cfg.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
	}()

	slog.Info("checkout gateway running",
		"addr", cfg.HTTPAddr,
		"inventory", cfg.Inventory.Backend,
		"journal", journalKind(cfg.Journal),
		"presets", cfg.PresetNames(),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("checkout gateway stopped")
}

func openJournal(cfg config.JournalConfig) (journal.Store, func(), error) {
	if cfg.Path == "" {
		return journal.NewMemory(), func() {}, nil
	}
	repo, err := journalsqlite.Open(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return repo, func() {
		if err := repo.Close(); err != nil {
			slog.Error("journal close error", "error", err)
		}
	}, nil
}

func journalKind(cfg config.JournalConfig) string {
	if cfg.Path == "" {
		return "memory"
	}
	return "sqlite"
}

func buildInventory(ctx context.Context, cfg config.Config, client *redis.Client) (coordinator.Inventory, error) {
	if cfg.Inventory.Backend != config.BackendRedis {
		return inventoryservice.NewMemoryStore(cfg.Inventory.Stock), nil
	}
	store := inventoryservice.NewRedisStore(client, cfg.Redis.Prefix)
	if err := store.Seed(ctx, cfg.Inventory.Stock); err != nil {
		return nil, err
	}
	return store, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
