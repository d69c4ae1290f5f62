package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authcontrollers "github.com/beveragedistro/ops-backend/api/controllers/auth"
	batchcontrollers "github.com/beveragedistro/ops-backend/api/controllers/batches"
	"github.com/beveragedistro/ops-backend/api/controllers/health"
	ordercontrollers "github.com/beveragedistro/ops-backend/api/controllers/orders"
	productcontrollers "github.com/beveragedistro/ops-backend/api/controllers/products"
	routecontrollers "github.com/beveragedistro/ops-backend/api/controllers/routes"
	shopcontrollers "github.com/beveragedistro/ops-backend/api/controllers/shops"
	transactioncontrollers "github.com/beveragedistro/ops-backend/api/controllers/transactions"
	tripcontrollers "github.com/beveragedistro/ops-backend/api/controllers/trips"
	usercontrollers "github.com/beveragedistro/ops-backend/api/controllers/users"
	"github.com/beveragedistro/ops-backend/api/middleware"
	"github.com/beveragedistro/ops-backend/internal/auth"
	"github.com/beveragedistro/ops-backend/internal/batches"
	"github.com/beveragedistro/ops-backend/internal/deliveryroutes"
	"github.com/beveragedistro/ops-backend/internal/ledger"
	"github.com/beveragedistro/ops-backend/internal/orders"
	"github.com/beveragedistro/ops-backend/internal/products"
	"github.com/beveragedistro/ops-backend/internal/returns"
	"github.com/beveragedistro/ops-backend/internal/shops"
	"github.com/beveragedistro/ops-backend/internal/trips"
	"github.com/beveragedistro/ops-backend/internal/users"
	"github.com/beveragedistro/ops-backend/pkg/auth/session"
	"github.com/beveragedistro/ops-backend/pkg/config"
	"github.com/beveragedistro/ops-backend/pkg/logger"
	"github.com/beveragedistro/ops-backend/pkg/metrics"
	pkgredis "github.com/beveragedistro/ops-backend/pkg/redis"
)

// Deps collects everything the HTTP surface needs. Nil stores disable
// idempotency replay and login throttling.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Gatherer prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics
	Pingers  map[string]health.Pinger

	Sessions    session.AccessSessionChecker
	Idempotency pkgredis.IdempotencyStore
	RateLimiter middleware.RateLimiter

	Auth         auth.Service
	Shops        shops.Service
	Routes       deliveryroutes.Service
	Trips        trips.Service
	Orders       orders.Service
	Returns      returns.Service
	Batches      batches.Service
	Products     products.Service
	Users        users.Service
	Transactions ledger.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.Metrics),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", health.Live(cfg))
		r.Get("/ready", health.Ready(cfg, logg, d.Pingers))
	})

	if cfg.Metrics.Enabled && d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		loginPolicy := middleware.LoginPolicyFromConfig(cfg.AuthRateLimit)
		r.With(middleware.LoginRateLimit(loginPolicy, d.RateLimiter, logg)).Post("/login", authcontrollers.Login(d.Auth, logg))
		r.Post("/refresh", authcontrollers.Refresh(d.Auth, logg))
		r.Post("/logout", authcontrollers.Logout(d.Auth, cfg.JWT, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.Idempotency(d.Idempotency, logg))

		r.Route("/shops", func(r chi.Router) {
			r.Get("/", shopcontrollers.List(d.Shops, logg))
			r.Post("/", shopcontrollers.Create(d.Shops, logg))
			r.Put("/", shopcontrollers.Update(d.Shops, logg))
			r.Delete("/", shopcontrollers.Delete(d.Shops, logg))
			r.Post("/visit", shopcontrollers.Visit(d.Trips, logg))
		})

		r.Route("/routes", func(r chi.Router) {
			r.Get("/", routecontrollers.List(d.Routes, logg))
			r.Post("/", routecontrollers.Create(d.Routes, logg))
			r.Put("/", routecontrollers.Update(d.Routes, logg))
			r.Delete("/", routecontrollers.Delete(d.Routes, logg))
		})

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", tripcontrollers.List(d.Trips, logg))
			r.Post("/", tripcontrollers.Create(d.Trips, logg))
			r.Put("/", tripcontrollers.Update(d.Trips, logg))
			r.Delete("/", tripcontrollers.Delete(d.Trips, logg))
			r.Get("/staff", tripcontrollers.Staff(d.Trips, logg))
			r.Put("/complete", tripcontrollers.Complete(d.Trips, logg))
			r.Put("/verify", tripcontrollers.Verify(d.Trips, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(d.Orders, logg))
			r.Post("/", ordercontrollers.Create(d.Orders, logg))
			r.Get("/return", ordercontrollers.Returnable(d.Orders, logg))
			r.Post("/confirm", ordercontrollers.Confirm(d.Orders, logg))
			r.Post("/return/confirm", ordercontrollers.ConfirmReturn(d.Returns, logg))
		})

		r.Route("/batches", func(r chi.Router) {
			r.Get("/", batchcontrollers.List(d.Batches, logg))
			r.Post("/", batchcontrollers.Create(d.Batches, logg))
			r.Put("/", batchcontrollers.Update(d.Batches, logg))
			r.Delete("/", batchcontrollers.Delete(d.Batches, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productcontrollers.List(d.Products, logg))
			r.Post("/", productcontrollers.Create(d.Products, logg))
			r.Put("/", productcontrollers.Update(d.Products, logg))
			r.Delete("/", productcontrollers.Delete(d.Products, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", usercontrollers.List(d.Users, logg))
			r.Post("/", usercontrollers.Create(d.Users, logg))
			r.Put("/", usercontrollers.Update(d.Users, logg))
			r.Delete("/", usercontrollers.Delete(d.Users, logg))
		})

		r.Get("/transactions", transactioncontrollers.List(d.Transactions, logg))
	})

	return r
}
