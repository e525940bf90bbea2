// Package handlers exposes the engine over the Fiber admin API.
package handlers

import (
	"strconv"

	apperrors "swapledger/internal/errors"
	"swapledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps a service error onto an HTTP status. Only the domain
// message reaches the client; anything unclassified is logged and hidden.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	de, ok := apperrors.AsDomain(err)
	if !ok {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return utils.InternalError(c, "internal server error")
	}

	status := fiber.StatusInternalServerError
	switch de.Class {
	case apperrors.ClassClient:
		status = fiber.StatusBadRequest
		if de.Is(apperrors.ErrInsufficientCredits) {
			status = fiber.StatusUnprocessableEntity
		}
	case apperrors.ClassConflict:
		status = fiber.StatusConflict
	case apperrors.ClassNotFound:
		status = fiber.StatusNotFound
	case apperrors.ClassUpstream:
		status = fiber.StatusBadGateway
	}

	message := de.Message
	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		if sentinel, ok := sentinelMessage(de); ok {
			message = sentinel
		}
	}
	return utils.Error(c, status, de.Code, message)
}

func sentinelMessage(de *apperrors.DomainError) (string, bool) {
	for _, s := range []*apperrors.DomainError{
		apperrors.ErrLedgerInconsistency,
		apperrors.ErrGatewayFailure,
	} {
		if de.Is(s) {
			return s.Message, true
		}
	}
	return "", false
}

// uintParam reads a positive numeric route parameter.
func uintParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.ErrValidation.WithMessage("invalid %s", name)
	}
	return uint(id), nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.ErrValidation.WithMessage("invalid request body")
	}
	return nil
}
