// Package middleware holds the Fiber middleware guarding the admin surface.
package middleware

import (
	"errors"
	"strings"

	"swapledger/internal/models"
	"swapledger/internal/services/auth"
	"swapledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthMiddleware validates operator bearer tokens and stores the claims in
// the request locals.
type AuthMiddleware struct {
	authService auth.Service
	logger      *zap.Logger
}

func NewAuthMiddleware(authService auth.Service, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{
		authService: authService,
		logger:      logger.Named("auth"),
	}
}

func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	claims, err := m.authService.Authenticate(c.UserContext(), strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrSessionExpired):
			return utils.Unauthorized(c, "session expired")
		case errors.Is(err, auth.ErrInvalidToken):
			return utils.Unauthorized(c, "invalid token")
		default:
			m.logger.Error("token check failed", zap.Error(err))
			return utils.InternalError(c, "authentication failed")
		}
	}

	c.Locals("claims", claims)
	c.Locals("operatorID", claims.OperatorID)
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetOperatorClaims(c)
		if err != nil {
			return utils.Unauthorized(c, "unauthorized")
		}

		// Admins hold every permission.
		if claims.Role == models.RoleAdmin || claims.HasPermission(permission) {
			return c.Next()
		}
		return utils.Forbidden(c, "insufficient permissions")
	}
}
