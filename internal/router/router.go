package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/bStyler/live-stream-monitor-sub000/internal/handler"
	"github.com/bStyler/live-stream-monitor-sub000/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Broadcast *handler.BroadcastHandler
	Snapshot  *handler.SnapshotHandler
	Change    *handler.ChangeHandler
	Poll      *handler.PollHandler
	Stats     *handler.StatsHandler
	Health    *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())

	// Health checks and Prometheus scrape endpoint (outside the API group)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	windowLimit := middleware.NewWindowReadRateLimiter()
	registerLimit := middleware.NewRegisterRateLimiter()
	statsLimit := middleware.NewStatsRateLimiter()

	// API routes
	api := app.Group("/api")

	// Poll trigger (bearer secret, checked in the handler)
	api.Get("/poll/run", h.Poll.Run)

	// Broadcast catalog
	api.Post("/broadcasts", registerLimit.Handler(), h.Broadcast.Register)
	api.Get("/broadcasts/:videoId", windowLimit.Handler(), h.Broadcast.Get)
	api.Delete("/broadcasts/:videoId", registerLimit.Handler(), h.Broadcast.Delete)

	// Time-series and change-history windows
	api.Get("/broadcasts/:videoId/metrics", windowLimit.Handler(), h.Snapshot.Window)
	api.Get("/broadcasts/:videoId/changes", windowLimit.Handler(), h.Change.Window)

	// Stats routes
	api.Get("/stats", statsLimit.Handler(), h.Stats.Get)
}
