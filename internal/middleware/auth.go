package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sponsorwall/backend/internal/auth"
	"go.uber.org/zap"
)

const (
	CtxOrganizerID    = "organizer_id"
	CtxOrganizerEmail = "organizer_email"
)

func AuthMiddleware(secret string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header", "code": "unauthorized"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format", "code": "unauthorized"})
		}

		claims, err := auth.ParseJWT(secret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token", "code": "unauthorized"})
		}

		c.Locals(CtxOrganizerID, claims.OrganizerID)
		c.Locals(CtxOrganizerEmail, claims.Email)

		return c.Next()
	}
}

func GetOrganizerID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxOrganizerID).(uuid.UUID)
	return id
}
