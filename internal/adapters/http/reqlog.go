package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

type loggerKey struct{}

// RequestIDLogMiddleware puts a logger tagged with the request ID into the
// user context. Handlers and the access log pick it up with LoggerFromCtx.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := slog.Default()
		if rid, _ := c.Locals("requestid").(string); rid != "" {
			log = log.With("request_id", rid)
		}
		c.SetUserContext(context.WithValue(c.UserContext(), loggerKey{}, log))
		return c.Next()
	}
}

// LoggerFromCtx returns the request logger, or the default logger outside a
// request.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
