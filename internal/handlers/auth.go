package handlers

import (
	"errors"

	"swapledger/internal/models"
	"swapledger/internal/services/auth"
	"swapledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService auth.Service
	logger      *zap.Logger
}

func NewAuthHandler(authService auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// Login authenticates an operator and returns an access token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if input.Email == "" || input.Password == "" {
		return utils.BadRequest(c, "email and password are required")
	}

	operator, token, err := h.authService.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return utils.Unauthorized(c, "invalid email or password")
		}
		h.logger.Error("login failed", zap.Error(err))
		return utils.InternalError(c, "authentication failed")
	}

	return utils.Success(c, fiber.Map{
		"access_token": token,
		"operator": fiber.Map{
			"id":          operator.ID,
			"email":       operator.Email,
			"role":        operator.Role,
			"permissions": models.GetDefaultPermissions(operator.Role),
		},
	})
}
