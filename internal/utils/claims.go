package utils

import (
	"errors"

	"swapledger/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetOperatorClaims extracts the operator claims stored by the auth middleware.
func GetOperatorClaims(c *fiber.Ctx) (*models.OperatorClaims, error) {
	v := c.Locals("claims")
	if v == nil {
		return nil, errors.New("claims not found in context")
	}

	claims, ok := v.(*models.OperatorClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}

// Actor names the operator behind a request for audit events.
func Actor(c *fiber.Ctx) string {
	claims, err := GetOperatorClaims(c)
	if err != nil {
		return "unknown"
	}
	return claims.Email
}
