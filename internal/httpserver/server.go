// Package httpserver exposes the facilitator's verify/settle/supported
// endpoints over HTTP.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/CedrosPay/x402-facilitator/internal/circuitbreaker"
	"github.com/CedrosPay/x402-facilitator/internal/dedup"
	"github.com/CedrosPay/x402-facilitator/internal/logger"
	"github.com/CedrosPay/x402-facilitator/internal/metrics"
	"github.com/CedrosPay/x402-facilitator/internal/ratelimit"
	"github.com/CedrosPay/x402-facilitator/internal/settlement"
	"github.com/CedrosPay/x402-facilitator/internal/verification"
	"github.com/CedrosPay/x402-facilitator/internal/webhook"
)

var serverStartTime = time.Now()

// Server wires handlers, middleware, and dependencies.
type Server struct {
	handlers
	httpServer *http.Server
}

type handlers struct {
	verifier   *verification.Pipeline
	settler    *settlement.Pipeline
	dedupStore *dedup.Store
	webhooks   *webhook.Dispatcher
	breaker    *circuitbreaker.Manager
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// Deps carries the facilitator's constructed dependencies into the server.
type Deps struct {
	Verifier   *verification.Pipeline
	Settler    *settlement.Pipeline
	DedupStore *dedup.Store
	Webhooks   *webhook.Dispatcher
	Breaker    *circuitbreaker.Manager
	Metrics    *metrics.Metrics
	Logger             zerolog.Logger
	RateLimit          ratelimit.Config
	Port               int
	CORSAllowedOrigins []string
}

// New builds the HTTP server with a fully configured router.
func New(deps Deps) *Server {
	router := chi.NewRouter()

	s := &Server{
		handlers: handlers{
			verifier:   deps.Verifier,
			settler:    deps.Settler,
			dedupStore: deps.DedupStore,
			webhooks:   deps.Webhooks,
			breaker:    deps.Breaker,
			metrics:    deps.Metrics,
			logger:     deps.Logger,
		},
		httpServer: &http.Server{
			Addr:         addr(deps.Port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			Handler:      router,
		},
	}

	ConfigureRouter(router, s.handlers, deps.RateLimit, deps.CORSAllowedOrigins)

	return s
}

func addr(port int) string {
	return fmt.Sprintf(":%d", port)
}

// ConfigureRouter attaches facilitator routes to an existing router.
func ConfigureRouter(router chi.Router, h handlers, rateLimitCfg ratelimit.Config, corsAllowedOrigins []string) {
	if router == nil {
		return
	}

	router.Use(securityHeadersMiddleware)
	router.Use(logger.Middleware(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(ratelimit.Limiter(rateLimitCfg))

	if len(corsAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Options{
			AllowedOrigins:   corsAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}).Handler)
	}

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Get("/health", h.health)
		r.Get("/supported", h.supported)
		r.Handle("/metrics", promhttp.Handler())
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post("/verify", h.verify)
		r.Post("/verify/batch", h.verifyBatch)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(90 * time.Second))
		r.Post("/settle", h.settle)
	})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// uptime reports how long the server has been running, for /health.
func uptime() time.Duration {
	return time.Since(serverStartTime)
}
