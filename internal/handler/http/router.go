package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DmytroLysenko1/Store/internal/service"
	"github.com/DmytroLysenko1/Store/pkg/health"
	"github.com/DmytroLysenko1/Store/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig carries the settings of the inbound middleware chain.
type RouterConfig struct {
	// Validator checks the customer's bearer token.
	Validator      middleware.TokenValidator
	RequestTimeout time.Duration
	// RateLimitRPS of zero disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
	CORS           middleware.CORSConfig
}

// NewRouter creates a chi router with all storefront routes registered.
// ctx bounds background work started by the middleware.
func NewRouter(
	ctx context.Context,
	productService *service.ProductPageService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	productHandler := NewProductHandler(productService, logger)

	r.Route("/customer", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Validator, logger))
		if cfg.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		}
		r.Use(middleware.NoStore)

		r.Get("/products", productHandler.ListProducts)
		r.Get("/favourites", productHandler.ListFavourites)

		r.Route("/products/{productId}", func(r chi.Router) {
			r.Get("/", productHandler.GetProduct)
			r.Post("/add-to-favourites", productHandler.AddToFavourites)
			r.Post("/remove-from-favourites", productHandler.RemoveFromFavourites)
			r.Post("/create-review", productHandler.CreateReview)
		})
	})

	return r
}
