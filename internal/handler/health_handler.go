package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const readinessTimeout = 2 * time.Second

// DatasetStatus reports how many diners are currently loaded.
type DatasetStatus interface {
	TotalDiners() int
}

// RegisterHealthRoutes wires liveness and readiness probes. rdb may be nil when
// the service runs without Redis.
func RegisterHealthRoutes(app fiber.Router, rdb *redis.Client, dataset DatasetStatus) {
	app.Get("/livez", LivezHandler())
	app.Get("/readyz", ReadyzHandler(rdb, dataset))
}

func LivezHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	}
}

func ReadyzHandler(rdb *redis.Client, dataset DatasetStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
		defer cancel()

		redisStatus := "disabled"
		ready := true
		if rdb != nil {
			redisStatus = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = "down"
				ready = false
			}
		}

		diners := 0
		if dataset != nil {
			diners = dataset.TotalDiners()
		}

		status := "ready"
		statusCode := fiber.StatusOK
		if !ready {
			status = "not_ready"
			statusCode = fiber.StatusServiceUnavailable
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"checks": fiber.Map{
				"redis": redisStatus,
			},
			"diners": diners,
		})
	}
}
