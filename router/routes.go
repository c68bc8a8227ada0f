package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mstgnz/stripeconn/handler"
	"github.com/mstgnz/stripeconn/infra/config"
	"github.com/mstgnz/stripeconn/infra/metrics"
	"github.com/mstgnz/stripeconn/infra/middle"
	"github.com/mstgnz/stripeconn/infra/response"
	v1 "github.com/mstgnz/stripeconn/router/v1"
)

// Dependencies are the services the HTTP API is built on
type Dependencies struct {
	PaymentService handler.PaymentServiceInterface
	// Exchanges is optional
	Exchanges handler.ExchangeReader
	Health    *handler.HealthHandler
	API       config.APIConfig
}

// New builds the service router. ctx bounds background work such as the
// rate limiter cleanup.
func New(ctx context.Context, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middle.RequestLoggingMiddleware())
	// above the connector timeout so a slow processor still yields a result
	r.Use(middleware.Timeout(90 * time.Second))
	r.Use(middle.SecurityHeadersMiddleware())

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.API.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/health", deps.Health.CheckHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middle.IPWhitelistMiddleware(deps.API.IPWhitelist))
		r.Use(middle.RateLimitMiddleware(middle.NewRateLimiter(ctx, deps.API.RateLimitPerMinute)))
		r.Use(middle.AuthMiddleware(deps.API.Key))
		r.Use(middle.RequestValidationMiddleware())

		v1.Routes(r, deps.PaymentService, deps.Exchanges)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not Found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
	})

	return r
}
