package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/toolbridge-io/toolbridge/internal/api/handlers"
	"github.com/toolbridge-io/toolbridge/internal/api/middleware"
	"github.com/toolbridge-io/toolbridge/internal/config"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
	"github.com/toolbridge-io/toolbridge/internal/pkg/metrics"
)

type Handlers struct {
	Health      *handlers.HealthHandler
	Integration *handlers.IntegrationHandler
	Tool        *handlers.ToolHandler
	Drift       *handlers.DriftHandler
	Maintenance *handlers.MaintenanceHandler
	Job         *handlers.JobHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))
	r.Use(metrics.Middleware)
	r.Use(middleware.RateLimit(100, 200)) // 100 req/sec, burst of 200

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
		r.Handle("/metrics", metrics.Handler())

		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)
	})

	// Protected routes (require a tenant-scoped token)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
		r.Use(middleware.TenantRateLimit(25, 50))

		r.Route("/api/v1/integrations", func(r chi.Router) {
			r.Get("/", h.Integration.List)
			r.Post("/", h.Integration.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Integration.Get)
				r.Post("/connect-session", h.Integration.CreateConnectSession)
				r.Get("/schema", h.Integration.GetSchema)
				r.Post("/schema/refresh", h.Drift.Refresh)

				r.Get("/drift", h.Drift.List)
				r.Get("/drift/summary", h.Drift.GetSummary)

				r.Get("/maintenance/summary", h.Maintenance.GetSummary)
				r.Route("/maintenance/proposals", func(r chi.Router) {
					r.Get("/", h.Maintenance.List)
					r.Post("/", h.Maintenance.Generate)
					r.Route("/{proposalId}", func(r chi.Router) {
						r.Get("/", h.Maintenance.Get)
						r.Post("/approve", h.Maintenance.Approve)
						r.Post("/reject", h.Maintenance.Reject)
						r.Post("/revert", h.Maintenance.Revert)
						r.Post("/descriptions", h.Maintenance.DecideDescriptions)
					})
				})
			})
		})

		r.Route("/api/v1/tools", func(r chi.Router) {
			r.Get("/", h.Tool.List)
			r.Post("/", h.Tool.Create)
			r.Get("/{id}", h.Tool.Get)
			r.Put("/{id}/description", h.Tool.UpdateDescription)
		})

		r.Route("/api/v1/jobs", func(r chi.Router) {
			r.Get("/", h.Job.List)
			r.Post("/", h.Job.Create)
			r.Get("/{id}/executions", h.Job.ListExecutions)
			r.Post("/executions/{id}/retry", h.Job.RetryExecution)
		})
	})

	return r
}
