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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/inventory-backend/api/routes"
	"github.com/angelmondragon/inventory-backend/internal/alerts"
	"github.com/angelmondragon/inventory-backend/internal/auth"
	"github.com/angelmondragon/inventory-backend/internal/items"
	"github.com/angelmondragon/inventory-backend/internal/ledger"
	"github.com/angelmondragon/inventory-backend/internal/reports"
	"github.com/angelmondragon/inventory-backend/internal/stock"
	"github.com/angelmondragon/inventory-backend/internal/users"
	"github.com/angelmondragon/inventory-backend/pkg/auth/session"
	"github.com/angelmondragon/inventory-backend/pkg/config"
	"github.com/angelmondragon/inventory-backend/pkg/db"
	"github.com/angelmondragon/inventory-backend/pkg/instance"
	"github.com/angelmondragon/inventory-backend/pkg/logger"
	"github.com/angelmondragon/inventory-backend/pkg/metrics"
	"github.com/angelmondragon/inventory-backend/pkg/migrate"
	"github.com/angelmondragon/inventory-backend/pkg/redis"
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
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"instance": instance.GetID()},
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	inventoryMetrics := metrics.NewInventoryMetrics(prometheus.DefaultRegisterer)
	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	gormDB := dbClient.DB()
	itemRepo := items.NewRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)
	alertRepo := alerts.NewRepository(gormDB)

	reportService, err := reports.NewService(reports.ServiceParams{
		Repository: reports.NewRepository(gormDB),
		Alerts:     alertRepo,
		Ledger:     ledgerRepo,
		Cache:      redisClient,
		Logger:     logg,
		Config:     cfg.Inventory,
	})
	exitOnErr(logg, "failed to create report service", err)

	alertService, err := alerts.NewService(alerts.ServiceParams{
		Repository: alertRepo,
		DB:         dbClient,
		Logger:     logg,
		Metrics:    inventoryMetrics,
		Cache:      reportService,
	})
	exitOnErr(logg, "failed to create alert service", err)

	ledgerService, err := ledger.NewService(ledgerRepo)
	exitOnErr(logg, "failed to create ledger service", err)

	itemService, err := items.NewService(items.ServiceParams{
		Repository: itemRepo,
		Ledger:     ledgerRepo,
		AlertRepo:  alertRepo,
		DB:         dbClient,
		Alerts:     alertService,
		History:    ledgerService,
		Cache:      reportService,
		Logger:     logg,
		Metrics:    inventoryMetrics,
		Config:     cfg.Inventory,
	})
	exitOnErr(logg, "failed to create item service", err)

	stockService, err := stock.NewService(stock.ServiceParams{
		Items:   itemRepo,
		Ledger:  ledgerService,
		Alerts:  alertService,
		DB:      dbClient,
		Cache:   reportService,
		Logger:  logg,
		Metrics: inventoryMetrics,
	})
	exitOnErr(logg, "failed to create stock service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(gormDB),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	exitOnErr(logg, "failed to create auth service", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	exitOnErr(logg, "failed to create register service", err)

	router, err := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Idempotency:    redisClient,
		AuthLimiter:    redisClient,
		Sessions:       sessionManager,
		Auth:           authService,
		Register:       registerService,
		Items:          itemService,
		Stock:          stockService,
		Ledger:         ledgerService,
		Alerts:         alertService,
		Reports:        reportService,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: promhttp.Handler(),
	})
	exitOnErr(logg, "failed to build router", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func exitOnErr(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
