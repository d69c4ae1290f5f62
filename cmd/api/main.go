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
	"go.uber.org/multierr"

	"github.com/beveragedistro/ops-backend/api/controllers/health"
	"github.com/beveragedistro/ops-backend/api/routes"
	"github.com/beveragedistro/ops-backend/internal/auth"
	"github.com/beveragedistro/ops-backend/internal/batches"
	"github.com/beveragedistro/ops-backend/internal/deliveryroutes"
	"github.com/beveragedistro/ops-backend/internal/ledger"
	"github.com/beveragedistro/ops-backend/internal/orders"
	"github.com/beveragedistro/ops-backend/internal/products"
	"github.com/beveragedistro/ops-backend/internal/returns"
	"github.com/beveragedistro/ops-backend/internal/shops"
	"github.com/beveragedistro/ops-backend/internal/stock"
	"github.com/beveragedistro/ops-backend/internal/trips"
	"github.com/beveragedistro/ops-backend/internal/users"
	"github.com/beveragedistro/ops-backend/pkg/auth/session"
	"github.com/beveragedistro/ops-backend/pkg/config"
	"github.com/beveragedistro/ops-backend/pkg/db"
	"github.com/beveragedistro/ops-backend/pkg/logger"
	"github.com/beveragedistro/ops-backend/pkg/metrics"
	"github.com/beveragedistro/ops-backend/pkg/migrate"
	"github.com/beveragedistro/ops-backend/pkg/redis"
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
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps, err := buildDeps(cfg, logg, dbClient, redisClient, sessionManager, reg)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildDeps(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessionManager *session.Manager,
	reg *prometheus.Registry,
) (routes.Deps, error) {
	conn := dbClient.DB()
	stockLedger := stock.NewLedger(metrics.NewStockMetrics(reg), logg)

	usersRepo := users.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	shopService, err := shops.NewService(shops.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, err
	}
	routeService, err := deliveryroutes.NewService(deliveryroutes.NewRepository(conn), dbClient, logg)
	if err != nil {
		return routes.Deps{}, err
	}
	tripService, err := trips.NewService(trips.NewRepository(conn), dbClient, logg)
	if err != nil {
		return routes.Deps{}, err
	}
	ledgerService, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, err
	}
	orderService, err := orders.NewService(ordersRepo, dbClient, stockLedger, ledgerService, tripService, logg)
	if err != nil {
		return routes.Deps{}, err
	}
	returnService, err := returns.NewService(ordersRepo, dbClient, ledgerService, tripService, logg)
	if err != nil {
		return routes.Deps{}, err
	}
	batchService, err := batches.NewService(batches.NewRepository(conn), dbClient, stockLedger, logg)
	if err != nil {
		return routes.Deps{}, err
	}
	productService, err := products.NewService(products.NewRepository(conn), dbClient)
	if err != nil {
		return routes.Deps{}, err
	}
	userService, err := users.NewService(usersRepo, dbClient, cfg.Password, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Gatherer: reg,
		Metrics:  metrics.NewHTTPMetrics(reg),
		Pingers: map[string]health.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Sessions:     sessionManager,
		Idempotency:  redisClient,
		RateLimiter:  redisClient,
		Auth:         authService,
		Shops:        shopService,
		Routes:       routeService,
		Trips:        tripService,
		Orders:       orderService,
		Returns:      returnService,
		Batches:      batchService,
		Products:     productService,
		Users:        userService,
		Transactions: ledgerService,
	}, nil
}
