package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/workshop-backend/api/routes"
	"github.com/angelmondragon/workshop-backend/internal/devices"
	"github.com/angelmondragon/workshop-backend/internal/inventory"
	"github.com/angelmondragon/workshop-backend/internal/notifications"
	"github.com/angelmondragon/workshop-backend/internal/repairs"
	"github.com/angelmondragon/workshop-backend/internal/stats"
	"github.com/angelmondragon/workshop-backend/internal/usages"
	"github.com/angelmondragon/workshop-backend/pkg/config"
	"github.com/angelmondragon/workshop-backend/pkg/db"
	"github.com/angelmondragon/workshop-backend/pkg/instance"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
	"github.com/angelmondragon/workshop-backend/pkg/metrics"
	"github.com/angelmondragon/workshop-backend/pkg/migrate"
	"github.com/angelmondragon/workshop-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotency keys disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	inventoryMetrics := metrics.NewInventoryMetrics(registry)

	loc, err := cfg.App.Location()
	requireResource(logg, "time zone", err)

	sink, err := notifications.NewSink(cfg.Telegram)
	requireResource(logg, "notification sink", err)
	dispatcher, err := notifications.NewDispatcher(sink, logg, 0)
	requireResource(logg, "notification dispatcher", err)

	conn := dbClient.DB()
	partRepo := inventory.NewRepository(conn)
	ledger, err := inventory.NewLedger(partRepo, inventoryMetrics, logg)
	requireResource(logg, "stock ledger", err)

	partService, err := inventory.NewService(partRepo, dbClient)
	requireResource(logg, "part service", err)

	deviceService, err := devices.NewService(devices.NewRepository(conn), dbClient)
	requireResource(logg, "device service", err)

	usageService, err := usages.NewService(usages.NewRepository(conn), ledger, dbClient, logg)
	requireResource(logg, "usage service", err)

	repairRepo := repairs.NewRepository(conn)
	lifecycle, err := repairs.NewLifecycle(repairRepo, ledger)
	requireResource(logg, "repair lifecycle", err)

	repairParams := repairs.ServiceParams{
		Repo:      repairRepo,
		Lifecycle: lifecycle,
		Tx:        dbClient,
		Logger:    logg,
	}
	if cfg.FeatureFlags.NotifyOnStatus {
		repairParams.Notifier = dispatcher
	}
	repairService, err := repairs.NewService(repairParams)
	requireResource(logg, "repair service", err)

	statsService, err := stats.NewService(stats.NewRepository(conn), loc)
	requireResource(logg, "stats service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"driver":   dbClient.Driver(),
		"instance": instance.ID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Devices: deviceService,
			Parts:   partService,
			Repairs: repairService,
			Usages:  usageService,
			Stats:   statsService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "api server shutdown failed", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		logg.Warn(ctx, "pending notifications dropped on shutdown")
	}
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to initialise "+resource, err)
	os.Exit(1)
}
