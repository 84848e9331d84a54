package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const notConfigured = "not configured"

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	Version       string `json:"version"`
	Authenticated bool   `json:"authenticated"`
	Location      string `json:"location_source"`
}

// ReadinessResponse reports each optional dependency.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// dependencyCheck reports on one optional dependency. A nil check means
// the dependency is not configured.
type dependencyCheck struct {
	name  string
	check func(ctx context.Context) string
}

// HealthHandler reports liveness with the session and location source.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	source := "static"
	if deps.Locations != nil {
		source = "device"
	}

	return func(c *fiber.Ctx) error {
		return c.JSON(HealthResponse{
			Status:        "healthy",
			Uptime:        time.Since(startedAt).Round(time.Second).String(),
			Version:       version,
			Authenticated: deps.Session != nil && deps.Session.Info().Authenticated,
			Location:      source,
		})
	}
}

// ReadyHandler checks the notification store, the event bus and the cache.
// Dependencies left out of the configuration never fail readiness.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	checks := readinessChecks(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		resp := ReadinessResponse{Status: "ready", Checks: make(map[string]string, len(checks))}
		for _, dc := range checks {
			if dc.check == nil {
				resp.Checks[dc.name] = notConfigured
				continue
			}
			result := dc.check(ctx)
			resp.Checks[dc.name] = result
			if result != "ok" {
				resp.Status = "not ready"
			}
		}

		if resp.Status != "ready" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
		}
		return c.JSON(resp)
	}
}

func readinessChecks(deps *Dependencies) []dependencyCheck {
	checks := []dependencyCheck{{name: "database"}, {name: "nats"}, {name: "cache"}}

	if deps.DB != nil {
		checks[0].check = func(ctx context.Context) string {
			return errStatus(deps.DB.Pool.Ping(ctx))
		}
	}
	if deps.NATS != nil {
		checks[1].check = func(ctx context.Context) string {
			if !deps.NATS.IsConnected() {
				return "disconnected"
			}
			return "ok"
		}
	}
	if deps.Cache != nil {
		checks[2].check = func(ctx context.Context) string {
			return errStatus(deps.Cache.Ping(ctx))
		}
	}
	return checks
}

func errStatus(err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
