// Package handlers exposes the repair planner over HTTP.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/repair-planner/internal/auth"
	"github.com/ukydev/repair-planner/internal/db"
	"github.com/ukydev/repair-planner/internal/middleware"
	"github.com/ukydev/repair-planner/internal/models"
)

// RouterOptions carries the dependencies of the HTTP API.
type RouterOptions struct {
	Auth       *auth.Service
	Users      db.UserCollection
	Planner    WorkOrderPlanner
	WorkOrders db.WorkOrderCollection

	// Gatherer backs /metrics. Defaults to the global prometheus registry.
	Gatherer prometheus.Gatherer
	// Ping reports backend health for /health. Optional.
	Ping func(ctx context.Context) error

	PlanRateLimit  int // plan requests per client per minute
	AllowedOrigins []string
}

// Router builds the chi router with every API route.
func Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)

	allowed := opts.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         int((10 * time.Minute).Seconds()),
	}))

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	rateLimit := opts.PlanRateLimit
	if rateLimit <= 0 {
		rateLimit = 30
	}

	r.Get("/health", healthHandler(opts.Ping))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	authMiddleware := middleware.NewAuthMiddleware(opts.Auth)
	limiter := middleware.NewRateLimitMiddleware()
	authHandler := NewAuthHandler(opts.Auth, opts.Users)
	planHandler := NewPlanHandler(opts.Planner)
	workOrderHandler := NewWorkOrderHandler(opts.WorkOrders)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/register", authHandler.Register)
		r.Get("/auth/profile", authHandler.GetProfile)
		r.With(authMiddleware.RequireRole(models.RoleAdmin)).Post("/users", authHandler.CreateUser)

		r.With(
			authMiddleware.RequirePermission(models.PermPlanWorkOrder),
			limiter.RateLimit(rateLimit, 60),
		).Post("/faults/plan", planHandler.Plan)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequirePermission(models.PermViewWorkOrders))
			r.Get("/workorders", workOrderHandler.List)
			r.Get("/workorders/{id}", workOrderHandler.Get)
		})
	})

	return r
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				log.WithError(err).Warn("Health check failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": chimw.GetReqID(r.Context()),
		}).Debug("Handled request")
	})
}
