package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/thelibrary/moderation-backend/internal/config"
	"github.com/thelibrary/moderation-backend/internal/dto"
	"github.com/thelibrary/moderation-backend/internal/store"
)

// AdminRequired lets a request through when any of these holds:
// 1. X-Admin-Token matches the configured admin token
// 2. the JWT subject is listed in ADMIN_USER_IDS
// 3. the JWT subject is a user flagged is_admin in the store
func AdminRequired(st store.Store, cfg *config.Config) fiber.Handler {
	adminUserIDs := parseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && secureEqual(c.Get("X-Admin-Token"), cfg.AdminToken) {
			return c.Next()
		}

		sub, ok := Subject(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		if contains(adminUserIDs, sub) {
			return c.Next()
		}

		if user, err := st.GetUser(c.UserContext(), sub); err == nil && user.IsAdmin {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

// Subject returns the `sub` claim of the verified JWT, if any.
func Subject(c *fiber.Ctx) (string, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	sub, _ := claims["sub"].(string)
	return sub, sub != ""
}

func secureEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
