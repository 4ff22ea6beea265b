package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/inventory-backend/api/controllers"
	"github.com/angelmondragon/inventory-backend/api/middleware"
	"github.com/angelmondragon/inventory-backend/internal/alerts"
	"github.com/angelmondragon/inventory-backend/internal/auth"
	"github.com/angelmondragon/inventory-backend/internal/items"
	"github.com/angelmondragon/inventory-backend/internal/ledger"
	"github.com/angelmondragon/inventory-backend/internal/reports"
	"github.com/angelmondragon/inventory-backend/internal/stock"
	"github.com/angelmondragon/inventory-backend/pkg/auth/session"
	"github.com/angelmondragon/inventory-backend/pkg/config"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
	"github.com/angelmondragon/inventory-backend/pkg/logger"
	"github.com/angelmondragon/inventory-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/inventory-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Revoke(context.Context, string) error
}

// Deps carries everything the router wires into handlers. Redis-backed
// stores are interfaces so a deployment without Redis can leave them nil.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          controllers.Pinger
	Idempotency    pkgredis.IdempotencyStore
	AuthLimiter    middleware.RateLimiterStore
	Sessions       sessionManager
	Auth           auth.Service
	Register       auth.RegisterService
	Items          items.Service
	Stock          stock.Service
	Ledger         ledger.Service
	Alerts         alerts.Service
	Reports        reports.Service
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
}

func NewRouter(deps Deps) (http.Handler, error) {
	cfg := deps.Config
	logg := deps.Logger

	rateLimit, err := middleware.RateLimit(cfg.RateLimit, logg)
	if err != nil {
		return nil, err
	}
	idempotent := middleware.Idempotency(deps.Idempotency, logg)
	authenticated := middleware.Auth(cfg.JWT, deps.Sessions, logg)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.AuthRateLimitPolicy{
		Name:       "login",
		Window:     cfg.AuthRateLimit.LoginWindow,
		PerIP:      cfg.AuthRateLimit.LoginIPLimit,
		PerAccount: cfg.AuthRateLimit.LoginEmailLimit,
	}
	registerPolicy := middleware.AuthRateLimitPolicy{
		Name:       "register",
		Window:     cfg.AuthRateLimit.RegisterWindow,
		PerIP:      cfg.AuthRateLimit.RegisterIPLimit,
		PerAccount: cfg.AuthRateLimit.RegisterEmailLimit,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.AuthLimiter, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.AuthLimiter, logg)).Post("/register", controllers.AuthRegister(deps.Register, deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.AuthLimiter, logg)).Post("/refresh", controllers.AuthRefresh(deps.Auth, cfg.JWT, logg))
		r.With(authenticated, rateLimit).Post("/logout", controllers.AuthLogout(deps.Sessions, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticated)
		r.Use(rateLimit)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ListItems(deps.Items, logg))
			r.With(idempotent).Post("/", controllers.CreateItem(deps.Items, logg))
			r.Route("/{itemId}", func(r chi.Router) {
				r.Get("/", controllers.GetItem(deps.Items, logg))
				r.Patch("/", controllers.UpdateItem(deps.Items, logg))
				r.Delete("/", controllers.DeleteItem(deps.Items, logg))
				r.With(idempotent).Post("/stock", controllers.SubmitStock(deps.Stock, logg))
				r.Get("/transactions", controllers.ItemTransactions(deps.Items, deps.Ledger, logg))
			})
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", controllers.ListAlerts(deps.Alerts, logg))
			r.With(idempotent).Post("/generate", controllers.LegacyGenerateAlerts(deps.Alerts, logg))
			r.Post("/{alertId}/resolve", controllers.ResolveAlert(deps.Alerts, logg))
		})

		r.Get("/analytics", controllers.Analytics(deps.Reports, logg))
		r.Get("/reports", controllers.Report(deps.Reports, logg))
		r.With(idempotent).Post("/stock-update/{itemId}", controllers.LegacyStockUpdate(deps.Stock, logg))
		r.Get("/dashboard-data", controllers.LegacyDashboardData(deps.Reports, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Use(idempotent)
			r.Post("/alerts/resolve", controllers.AdminResolveAlerts(deps.Alerts, logg))
			r.Post("/items/reorder-level", controllers.AdminSetReorderLevel(deps.Items, logg))
			r.Post("/items/low-stock-check", controllers.AdminLowStockCheck(deps.Items, logg))
		})
	})

	return r, nil
}
