package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// cacheRule maps a path to its default Cache-Control value. First match wins.
type cacheRule struct {
	match func(path string) bool
	value string
}

func exact(p string) func(string) bool { return func(path string) bool { return path == p } }
func prefix(p string) func(string) bool {
	return func(path string) bool { return strings.HasPrefix(path, p) }
}

var cacheRules = []cacheRule{
	{exact("/v1/health"), "public, max-age=10"},
	{exact("/v1/ready"), "no-cache"},
	{exact("/metrics"), "no-cache"},
	// Map responses change with every surface mutation; clients revalidate
	// with the surface version ETag.
	{prefix("/v1/map"), "no-cache"},
	{exact("/v1/route/requests"), "private, max-age=5"},
	{prefix("/docs"), "public, max-age=3600"},
	{prefix("/v1/"), "no-store"},
}

// CachingMiddleware sets a default Cache-Control header on GET responses.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() != fiber.MethodGet || c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return err
		}
		path := c.Path()
		for _, r := range cacheRules {
			if r.match(path) {
				c.Set(fiber.HeaderCacheControl, r.value)
				break
			}
		}
		return err
	}
}
