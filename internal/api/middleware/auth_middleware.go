package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/pkg/utils"
)

const CookieName = "console_token"

type AuthMiddleware struct {
	secretKey string
	logger    *zap.Logger
}

func NewAuthMiddleware(secretKey string, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{secretKey: secretKey, logger: logger}
}

// AuthMiddleware accepts a console token as a bearer header or a cookie.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if tokenString == "" {
			tokenString = c.Cookies(CookieName)
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing console token",
			})
		}

		claims, err := utils.ValidateToken(m.secretKey, tokenString)
		if err != nil {
			c.Cookie(&fiber.Cookie{
				Name:   CookieName,
				Value:  "",
				Path:   "/",
				MaxAge: -1,
			})

			m.logger.Info("Console token validation failed", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}
