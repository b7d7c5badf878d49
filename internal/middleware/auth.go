package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/thelibrary/moderation-backend/internal/config"
	"github.com/thelibrary/moderation-backend/internal/dto"
)

// JWTProtected verifies an HS256 bearer token and stores it in Locals("user").
// With the admin token header present the check is skipped so AdminRequired can
// accept the request on the token alone.
func JWTProtected(cfg *config.Config) fiber.Handler {
	verify := jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") != "" {
			return c.Next()
		}
		return verify(c)
	}
}

// APIKeyRequired rejects requests whose X-API-KEY header does not match the
// configured key. An unset key rejects everything.
func APIKeyRequired(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("X-API-KEY")
		if cfg.APIKey == "" || key == "" || !secureEqual(key, cfg.APIKey) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid API key",
			})
		}
		return c.Next()
	}
}
