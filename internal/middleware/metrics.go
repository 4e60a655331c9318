package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sponsorwall/backend/internal/metrics"
)

// MetricsMiddleware records request counts and latency by route pattern.
func MetricsMiddleware(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Method(), route, status, time.Since(start))
		return err
	}
}
