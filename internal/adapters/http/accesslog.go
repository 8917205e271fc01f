package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SlowRequest is the latency above which a successful request logs at warn.
var SlowRequest = 2 * time.Second

// quietPaths are probes and scrapes, logged at debug.
var quietPaths = map[string]bool{
	"/v1/health": true,
	"/v1/ready":  true,
	"/metrics":   true,
}

// AccessLogMiddleware logs one structured line per request. Plan routes carry
// the plan_id; computed routes report their waypoint count.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method, path := c.Method(), c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		latency := time.Since(start)
		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.String("route", c.Route().Path),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.Int("bytes_out", len(c.Response().Body())),
			slog.String("ip", c.IP()),
		}
		if id := c.Params("id"); id != "" {
			attrs = append(attrs, slog.String("plan_id", id))
		}
		if n, ok := c.Locals(localWaypoints).(int); ok {
			attrs = append(attrs, slog.Int("waypoints", n))
		}

		level := slog.LevelInfo
		switch {
		case err != nil || status >= 500:
			level = slog.LevelError
		case status >= 400 || latency > SlowRequest:
			level = slog.LevelWarn
		case quietPaths[path]:
			level = slog.LevelDebug
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		slog.LogAttrs(c.UserContext(), level, method+" "+path, attrs...)
		return err
	}
}
