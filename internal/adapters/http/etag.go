package http

import (
	"fmt"
	"hash/fnv"

	"github.com/gofiber/fiber/v2"
)

// HeaderSurfaceVersion carries the surface version a response was rendered
// from.
const HeaderSurfaceVersion = "X-Surface-Version"

// ETagMiddleware tags successful GET responses and answers 304 Not Modified
// when the client already holds the same representation. Responses rendered
// from the surface are tagged by version, anything else by a body hash.
func ETagMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		if c.Method() != fiber.MethodGet || c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}

		etag := ""
		if v := c.GetRespHeader(HeaderSurfaceVersion); v != "" {
			etag = `W/"surface-` + v + `"`
		} else {
			body := c.Response().Body()
			if len(body) == 0 {
				return nil
			}
			h := fnv.New64a()
			_, _ = h.Write(body)
			etag = fmt.Sprintf(`W/"%016x"`, h.Sum64())
		}

		c.Set(fiber.HeaderETag, etag)
		if match := c.Get(fiber.HeaderIfNoneMatch); match == etag || match == "*" {
			c.Status(fiber.StatusNotModified)
			c.Response().ResetBody()
		}
		return nil
	}
}
