package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/surveyplan/internal/pkg/logging"
)

type loggerKey struct{}

// RequestIDLogMiddleware binds a request-scoped logger to the user context.
// The logger carries the method and path; when the requestid middleware ran,
// the ID is carried too and stored for logging's context handler, so service
// code logging with *Context calls is tagged as well.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		l := slog.Default().With("method", c.Method(), "path", c.Path())

		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ctx = logging.WithRequestID(ctx, rid)
			l = l.With("request_id", rid)
		}

		c.SetUserContext(context.WithValue(ctx, loggerKey{}, l))
		return c.Next()
	}
}

// LoggerFromCtx returns the request-scoped logger, or the default logger
// outside a request.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
