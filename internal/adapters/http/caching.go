package http

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses that have none and answers
// conditional requests with 304 using a weak body-hash ETag.
//
// Everything that reflects the visited set must be revalidated on every use, so those
// paths are "no-cache" and rely on the ETag.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		if c.Method() != fiber.MethodGet {
			return nil
		}

		if c.GetRespHeader(fiber.HeaderCacheControl) == "" {
			if policy := cachePolicy(c.Path()); policy != "" {
				c.Set(fiber.HeaderCacheControl, policy)
			}
		}

		if c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}
		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}

		h := sha256.Sum256(body)
		etag := `W/"` + hex.EncodeToString(h[:8]) + `"`
		c.Set(fiber.HeaderETag, etag)

		if c.Get(fiber.HeaderIfNoneMatch) == etag {
			c.Status(fiber.StatusNotModified)
			c.Response().ResetBody()
		}
		return nil
	}
}

func cachePolicy(path string) string {
	switch {
	case path == "/v1/health" || path == "/v1/ready":
		return "public, max-age=10"
	case path == "/metrics" || path == "/v1/registry/status":
		return "no-store"
	case path == "/docs" || strings.HasPrefix(path, "/docs/"):
		return "public, max-age=3600"
	case strings.HasPrefix(path, "/v1/"):
		return "no-cache"
	}
	return ""
}
