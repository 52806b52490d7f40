package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/activity-service/internal/api/http/handlers"
	"github.com/spec-kit/activity-service/internal/auth"
	"github.com/spec-kit/activity-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Activities     *handlers.ActivitiesHandler
	Insights       *handlers.InsightsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	customer := app.Group("/v1/customers/:customerId", cfg.AuthMiddleware.Handle, auth.RequireCustomer("customerId"))
	customer.Post("/activities", auth.RequireScope(auth.ScopeIngest), cfg.Activities.Ingest)
	customer.Get("/activities", auth.RequireScope(auth.ScopeRead), cfg.Activities.List)

	insights := customer.Group("/insights", auth.RequireScope(auth.ScopeRead))
	insights.Get("/activities", cfg.Insights.GroupedActivities)
	insights.Get("/actors/:actorId", cfg.Insights.ActorActivities)
	insights.Get("/launch-items", cfg.Insights.LaunchStats)
	insights.Get("/summaries", cfg.Insights.Summaries)
}
