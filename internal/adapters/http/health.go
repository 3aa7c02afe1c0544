package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readyTimeout = 3 * time.Second

var errDisconnected = errors.New("disconnected")

// probe checks one dependency. A nil check means the dependency is not
// configured, which does not fail readiness.
type probe struct {
	name  string
	check func(ctx context.Context) error
}

func readinessProbes(deps *Dependencies) []probe {
	probes := []probe{{
		name: "event_loop",
		check: func(ctx context.Context) error {
			return deps.Loop.Sync(ctx, func() {})
		},
	}}

	db := probe{name: "database"}
	if deps.DB != nil {
		db.check = deps.DB.Ping
	}
	nc := probe{name: "nats"}
	if deps.NATS != nil {
		nc.check = func(context.Context) error {
			if !deps.NATS.IsConnected() {
				return errDisconnected
			}
			return nil
		}
	}
	cache := probe{name: "cache"}
	if deps.Cache != nil {
		cache.check = deps.Cache.Ping
	}
	return append(probes, db, nc, cache)
}

// HealthHandler is the liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	pointSet := deps.Screen.Screen().Points.Tag

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"uptime":    time.Since(startedAt).Round(time.Second).String(),
			"point_set": pointSet,
		})
	}
}

// ReadyHandler runs every probe and answers 503 if any configured
// dependency fails.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	probes := readinessProbes(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		checks := make(map[string]string, len(probes))
		ready := true
		for _, p := range probes {
			if p.check == nil {
				checks[p.name] = "not configured"
				continue
			}
			if err := p.check(ctx); err != nil {
				checks[p.name] = "error: " + err.Error()
				ready = false
				continue
			}
			checks[p.name] = "ok"
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": checks,
			})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}
