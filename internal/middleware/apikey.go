// Package middleware provides HTTP middleware for the fiber application.
package middleware

import (
	"crypto/subtle"
	"log"

	"vwallet/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const apiKeyHeader = "X-Api-Key"

// APIKey guards routes with a static API key carried in the X-Api-Key
// header. The comparison is constant time.
func APIKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get(apiKeyHeader)
		if provided == "" {
			log.Println("middleware: missing api key header")
			return response.Unauthorized(c)
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			log.Println("middleware: invalid api key")
			return response.Unauthorized(c)
		}
		return c.Next()
	}
}
