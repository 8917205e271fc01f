package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/surveyplan/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// RouteSunset is when GET /v1/route stops being served.
var RouteSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/v1/route", SunsetDate: RouteSunset, Alternative: "/v1/plans/preview"},
	}))

	// Health & readiness, no timeout
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1, 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Post("/plans", timeout.NewWithContext(CreatePlanHandler(deps), requestTimeout))
	v1.Post("/plans/preview", timeout.NewWithContext(PreviewPlanHandler(deps), requestTimeout))
	v1.Post("/plans/async", timeout.NewWithContext(AsyncPlanHandler(deps), requestTimeout))
	v1.Get("/plans", timeout.NewWithContext(ListPlansHandler(deps), requestTimeout))
	v1.Get("/plans/:id", timeout.NewWithContext(GetPlanHandler(deps), requestTimeout))
	v1.Get("/plans/:id/unit", timeout.NewWithContext(PlanUnitHandler(deps), requestTimeout))
	v1.Delete("/plans/:id", timeout.NewWithContext(DeletePlanHandler(deps), requestTimeout))
	v1.Post("/footprint", timeout.NewWithContext(FootprintHandler(deps), requestTimeout))
	v1.Get("/route", timeout.NewWithContext(RouteHandler(deps), requestTimeout))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
