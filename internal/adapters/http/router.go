package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/encinapp/encinapp/internal/pkg/metrics"
)

// RouterConfig tunes the middleware chain.
type RouterConfig struct {
	RouteTimeout time.Duration // per-request timeout of /v1 routes (default 15s)
	RateLimit    int           // requests per minute per IP (default 120)
	DocsPath     string        // OpenAPI document (default api/openapi.yaml)
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, cfg RouterConfig) {
	if cfg.RouteTimeout <= 0 {
		cfg.RouteTimeout = 15 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 120
	}
	if cfg.DocsPath == "" {
		cfg.DocsPath = "api/openapi.yaml"
	}

	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit,
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

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	t := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, cfg.RouteTimeout)
	}

	v1 := app.Group("/v1")

	v1.Get("/map", t(MapViewHandler(deps)))
	v1.Post("/map/refresh", t(MapRefreshHandler(deps)))
	v1.Put("/map/filter", t(MapFilterHandler(deps)))
	v1.Post("/map/alerts/:id/select", t(MapSelectAlertHandler(deps)))
	v1.Post("/map/navigation/confirm", t(MapConfirmNavigationHandler(deps)))
	v1.Post("/map/navigation/cancel", t(MapCancelNavigationHandler(deps)))
	v1.Post("/map/points/:id/select", t(MapSelectPointHandler(deps)))
	v1.Post("/map/details/dismiss", t(MapDismissDetailsHandler(deps)))

	v1.Get("/points", t(ListPointsHandler(deps)))
	v1.Post("/points", t(CreatePointHandler(deps)))
	v1.Get("/distance", t(DistanceHandler(deps)))

	v1.Get("/location", t(LocationHandler(deps)))
	v1.Put("/location", t(PushLocationHandler(deps)))
	v1.Get("/geocode", t(GeocodeHandler(deps)))

	v1.Get("/alerts", t(ListAlertsHandler(deps)))
	v1.Get("/alerts/draft", t(AlertDraftHandler(deps)))
	v1.Post("/alerts", t(EmitAlertHandler(deps)))
	v1.Get("/alerts/:id", t(GetAlertHandler(deps)))
	v1.Delete("/alerts/:id", t(DeleteAlertHandler(deps)))
	v1.Post("/alerts/:id/comments", t(AddCommentHandler(deps)))
	v1.Delete("/alerts/:id/comments/:cid", t(DeleteCommentHandler(deps)))

	v1.Get("/session", t(SessionHandler(deps)))
	v1.Post("/session", t(LoginHandler(deps)))
	v1.Delete("/session", t(LogoutHandler(deps)))

	v1.Get("/users", t(ListUsersHandler(deps)))
	v1.Post("/users", t(RegisterUserHandler(deps)))
	v1.Get("/users/:id", t(GetUserHandler(deps)))
	v1.Patch("/users/:id", t(UpdateUserHandler(deps)))
	v1.Delete("/users/:id", t(DeleteUserHandler(deps)))
	v1.Put("/users/:id/pin", t(ChangePINHandler(deps)))
	v1.Get("/users/:id/permissions", t(UserPermissionsHandler(deps)))
	v1.Put("/users/:id/permissions", t(SetPermissionsHandler(deps)))

	v1.Get("/announcements", t(ListAnnouncementsHandler(deps)))
	v1.Post("/announcements", t(PublishAnnouncementHandler(deps)))

	v1.Get("/notifications", t(ListNotificationsHandler(deps)))
	v1.Post("/notifications/:id/dismiss", t(DismissNotificationHandler(deps)))

	app.Post("/graphql", t(GraphQLHandler(deps)))

	SetupDocs(app, cfg.DocsPath)

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
