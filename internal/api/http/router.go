package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shopdesk/ticket-service/internal/api/http/handlers"
	"github.com/shopdesk/ticket-service/internal/auth"
	"github.com/shopdesk/ticket-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Tickets  *handlers.TicketsHandler
	Identity *auth.IdentityMiddleware
	Metrics  *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	tickets := app.Group("/api/tickets", cfg.Identity.Handle)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/stats", cfg.Tickets.GetStats)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Patch("/:id/assign", cfg.Tickets.AssignTicket)
	tickets.Patch("/:id/resolve", cfg.Tickets.ResolveTicket)
	tickets.Post("/:id/comment", cfg.Tickets.AddComment)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
}
