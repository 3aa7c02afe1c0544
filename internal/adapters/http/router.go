package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/mapscreen/internal/pkg/metrics"
)

const (
	handlerTimeout = 10 * time.Second
	apiVersion     = "1.0.0"
	// Device updates arrive far more often than user actions.
	rateLimitPerMinute = 600
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	useMiddleware(app)

	app.Get("/metrics", metrics.Handler())
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Screen endpoints go through the main queue, so they are bounded.
	bounded := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, handlerTimeout)
	}
	v1 := app.Group("/v1")
	v1.Get("/map", bounded(MapHandler(deps)))
	v1.Get("/map/state", bounded(MapStateHandler(deps)))
	v1.Post("/route", bounded(ShowRouteHandler(deps)))
	v1.Get("/route/requests", bounded(RouteRequestsHandler(deps)))

	device := v1.Group("/device")
	device.Post("/location", DeviceLocationHandler(deps))
	device.Post("/authorization", DeviceAuthorizationHandler(deps))

	app.Post("/graphql", bounded(GraphQLHandler(deps)))

	SetupDocs(app, deps.OpenAPIPath)

	// The event relay needs NATS.
	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}

func useMiddleware(app *fiber.App) {
	app.Use(metrics.Middleware())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	app.Use(limiter.New(limiter.Config{
		Max:          rateLimitPerMinute,
		Expiration:   time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", apiVersion)
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
}
