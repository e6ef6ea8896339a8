package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tat-monitor/internal/api/http/handlers"
	"github.com/spec-kit/tat-monitor/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Monitor        *handlers.MonitorHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	monitor := app.Group("/monitor", cfg.AuthMiddleware.Handle)
	monitor.Get("/tickets/grouped", cfg.Monitor.GroupedTickets)
	monitor.Get("/summary", cfg.Monitor.Summary)
	monitor.Get("/agents", cfg.Monitor.AllAgentStats)
	monitor.Get("/agents/:agent", cfg.Monitor.AgentStats)
	monitor.Post("/dispositions", cfg.Monitor.RecordDisposition)
	monitor.Get("/dispositions", cfg.Monitor.Dispositions)
	monitor.Get("/export", cfg.Monitor.Export)
	monitor.Post("/poll", cfg.Monitor.TriggerPoll)
	monitor.Get("/metrics", cfg.Metrics.Counters)
}
