// Package api provides the HTTP API for DropRoute.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/droproute/droproute/internal/api/handler"
	"github.com/droproute/droproute/internal/api/middleware"
	"github.com/droproute/droproute/internal/api/response"
	"github.com/droproute/droproute/internal/delivery"
	"github.com/droproute/droproute/internal/planner"
	"github.com/droproute/droproute/internal/provider/resilience"
)

// DefaultServiceName is used for tracing when RouterConfig.ServiceName is empty.
const DefaultServiceName = "droproute-api"

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool

	// Registry and Subsystems feed the ops endpoints.
	Registry   *resilience.Registry
	Subsystems []handler.Subsystem

	DeliveryService *delivery.Service
	Planner         handler.RoutePlanner
	Describer       handler.Describer
	Sessions        *planner.Sessions
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))      // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))    // Panic recovery
	r.Use(chimiddleware.RealIP)               // Real IP extraction
	r.Use(middleware.SecurityHeaders)         // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.RequireJSON)

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = planner.NewSessions(cfg.Logger)
	}

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:    cfg.Version,
		BuildTime:  cfg.BuildTime,
		Registry:   cfg.Registry,
		Subsystems: cfg.Subsystems,
	})
	deliveryHandler := handler.NewDeliveryHandler(cfg.DeliveryService, cfg.Logger)
	routeHandler := handler.NewRouteHandler(cfg.Planner, cfg.Logger)
	geocodeHandler := handler.NewGeocodeHandler(cfg.Describer, cfg.Logger)
	sessionHandler := handler.NewSessionHandler(sessions, cfg.Planner, cfg.Logger)

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route matches "+r.URL.Path)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(standardRateLimit).Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", deliveryHandler.ListDeliveries)
			r.Post("/", deliveryHandler.CreateDelivery)
			r.Get("/{deliveryId}", deliveryHandler.GetDelivery)
			r.Delete("/{deliveryId}", deliveryHandler.RejectDelivery)
			r.Post("/{deliveryId}:accept", deliveryHandler.AcceptDelivery)
			r.Post("/{deliveryId}:complete", deliveryHandler.CompleteDelivery)
		})

		// Planning fans out to the providers - strict rate limiting
		r.Group(func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Post("/routes:plan", routeHandler.PlanRoute)
			r.Post("/routes:direct", routeHandler.PlanDirect)
			r.Post("/routes:accepted", routeHandler.PlanAccepted)
		})

		r.With(standardRateLimit).Post("/geocode:reverse", geocodeHandler.ReverseGeocode)

		r.Route("/sessions", func(r chi.Router) {
			r.With(standardRateLimit).Post("/", sessionHandler.CreateSession)
			r.Route("/{sessionId}/plan", func(r chi.Router) {
				// Keyed per session so one busy surface cannot starve others behind the same NAT.
				r.With(middleware.RateLimitBySession(middleware.ExpensiveRateLimit)).Post("/", sessionHandler.Plan)
				r.With(standardRateLimit).Get("/", sessionHandler.GetPlan)
			})
		})
	})

	return r
}
