package middleware

import (
	"strings"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/security"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
)

const userIDKey = "userID"

// RequireAuth verifies the bearer token and stores the caller's user id
func RequireAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return unauthorized(c, "Authorization header missing or invalid")
		}

		claims, err := security.ValidateJWT(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			return unauthorized(c, "Invalid token")
		}

		c.Locals(userIDKey, claims.UserID)
		return c.Next()
	}
}

// UserID returns the authenticated caller, false on routes without RequireAuth
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(userIDKey).(uint)
	return id, ok && id != 0
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
		Error:   "Unauthorized",
		Message: message,
		Code:    apperrors.CodeUnauthorized,
	})
}
