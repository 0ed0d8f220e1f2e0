package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/config"
	"github.com/straye-as/crm-api/internal/database"
	"github.com/straye-as/crm-api/internal/http/handler"
	"github.com/straye-as/crm-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/straye-as/crm-api/docs" // Import swagger docs
)

// ReadinessCheck reports whether an optional dependency (redis, broker) is usable
type ReadinessCheck func() error

type Router struct {
	cfg                *config.Config
	logger             *zap.Logger
	db                 *gorm.DB
	authMiddleware     *auth.Middleware
	rateLimiter        *middleware.RateLimiter
	readinessChecks    map[string]ReadinessCheck
	accountHandler     *handler.AccountHandler
	contactHandler     *handler.ContactHandler
	opportunityHandler *handler.OpportunityHandler
	leadHandler        *handler.LeadHandler
	activityHandler    *handler.ActivityHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	accountHandler *handler.AccountHandler,
	contactHandler *handler.ContactHandler,
	opportunityHandler *handler.OpportunityHandler,
	leadHandler *handler.LeadHandler,
	activityHandler *handler.ActivityHandler,
) *Router {
	return &Router{
		cfg:                cfg,
		logger:             logger,
		db:                 db,
		authMiddleware:     authMiddleware,
		rateLimiter:        rateLimiter,
		readinessChecks:    make(map[string]ReadinessCheck),
		accountHandler:     accountHandler,
		contactHandler:     contactHandler,
		opportunityHandler: opportunityHandler,
		leadHandler:        leadHandler,
		activityHandler:    activityHandler,
	}
}

// AddReadinessCheck registers an extra dependency for /health/ready
func (rt *Router) AddReadinessCheck(name string, check ReadinessCheck) {
	rt.readinessChecks[name] = check
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(rt.authMiddleware.Identify)
	r.Use(middleware.Logging(rt.logger))
	if rt.cfg.Server.EnableMetrics {
		r.Use(middleware.Metrics)
	}
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database health check with pool stats
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check (database plus registered dependencies)
	r.Get("/health/ready", rt.ready)

	if rt.cfg.Server.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", rt.accountHandler.List)
			r.Post("/", rt.accountHandler.Create)
			r.Post("/resolve", rt.accountHandler.Resolve)
			r.Get("/{id}", rt.accountHandler.GetByID)
			r.Patch("/{id}", rt.accountHandler.Update)
			r.Delete("/{id}", rt.accountHandler.Delete)
			r.Get("/{id}/contacts", rt.accountHandler.ListContacts)
			r.Get("/{id}/opportunities", rt.accountHandler.ListOpportunities)
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", rt.contactHandler.List)
			r.Post("/", rt.contactHandler.Create)
			r.Get("/{id}", rt.contactHandler.GetByID)
			r.Patch("/{id}", rt.contactHandler.Update)
			r.Delete("/{id}", rt.contactHandler.Delete)
		})

		r.Route("/opportunities", func(r chi.Router) {
			r.Get("/", rt.opportunityHandler.List)
			r.Post("/", rt.opportunityHandler.Create)
			r.Get("/{id}", rt.opportunityHandler.GetByID)
			r.Patch("/{id}", rt.opportunityHandler.Update)
			r.Delete("/{id}", rt.opportunityHandler.Delete)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", rt.leadHandler.List)
			r.Post("/", rt.leadHandler.Create)
			r.Get("/{id}", rt.leadHandler.GetByID)
			r.Patch("/{id}", rt.leadHandler.Update)
			r.Delete("/{id}", rt.leadHandler.Delete)
			r.Post("/{id}/convert", rt.leadHandler.Convert)
		})

		r.Get("/activities", rt.activityHandler.List)
	})

	return r
}

func (rt *Router) ready(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	allHealthy := true

	record := func(name string, err error) {
		if err != nil {
			rt.logger.Error("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
			return
		}
		checks[name] = map[string]interface{}{
			"status": "healthy",
		}
	}

	record("database", database.HealthCheck(rt.db))
	for name, check := range rt.readinessChecks {
		record(name, check())
	}

	status, label := http.StatusOK, "healthy"
	if !allHealthy {
		status, label = http.StatusServiceUnavailable, "unhealthy"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": label,
		"checks": checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
