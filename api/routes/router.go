package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/homestead-backend/api/controllers"
	"github.com/angelmondragon/homestead-backend/api/middleware"
	"github.com/angelmondragon/homestead-backend/internal/budget"
	"github.com/angelmondragon/homestead-backend/internal/entities"
	"github.com/angelmondragon/homestead-backend/internal/purchases"
	"github.com/angelmondragon/homestead-backend/internal/receipts"
	"github.com/angelmondragon/homestead-backend/pkg/config"
	"github.com/angelmondragon/homestead-backend/pkg/db"
	"github.com/angelmondragon/homestead-backend/pkg/logger"
	"github.com/angelmondragon/homestead-backend/pkg/redis"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Receipts  receipts.Service
	Purchases purchases.Service
	Budget    budget.Service
	Stores    entities.Resolver
}

// Infra carries connections used for readiness, idempotency and throttling.
// Redis may be nil, in which case both are disabled.
type Infra struct {
	DB       db.Pinger
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.Origins),
	)

	readiness := map[string]controllers.Pinger{}
	if infra.DB != nil {
		readiness["database"] = infra.DB
	}

	idempotency := middleware.Idempotency(nil, 0, logg)
	scanLimit := func(next http.Handler) http.Handler { return next }
	if infra.Redis != nil {
		readiness["redis"] = infra.Redis
		idempotency = middleware.Idempotency(infra.Redis, cfg.Receipts.IdempotencyTTL, logg)
		scanPolicy := middleware.NewRateLimitPolicy("receipt_scan", cfg.Receipts.ScanWindow, cfg.Receipts.ScanLimit)
		scanLimit = middleware.HouseholdRateLimit(scanPolicy, infra.Redis, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if infra.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.HouseholdContext(logg))
		r.Use(idempotency)

		r.Route("/receipts", func(r chi.Router) {
			r.With(scanLimit).Post("/scan", controllers.ReceiptScan(svc.Receipts, cfg.Receipts.MaxImageBytes(), logg))
			r.Post("/confirm", controllers.ReceiptConfirm(svc.Purchases, logg))
		})

		r.Route("/budget", func(r chi.Router) {
			r.Get("/entries", controllers.BudgetEntries(svc.Budget, logg))
			r.Get("/summary", controllers.BudgetSummary(svc.Budget, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Post("/suggest-by-brand", controllers.PurchasesSuggestByBrand(svc.Purchases, logg))
			r.Get("/{purchaseId}", controllers.PurchaseEditPrefill(svc.Purchases, logg))
			r.Delete("/{purchaseId}", controllers.PurchaseDelete(svc.Purchases, logg))
		})

		r.Route("/stores/{storeId}", func(r chi.Router) {
			r.Put("/", controllers.StoreUpdate(svc.Stores, logg))
			r.Put("/inventory/{itemId}", controllers.StoreInventoryUpdate(svc.Purchases, logg))
		})
	})

	return r
}
