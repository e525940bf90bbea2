package handlers

import (
	"swapledger/internal/services/ledger"
	"swapledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type TransferHandler struct {
	ledger ledger.Service
	logger *zap.Logger
}

func NewTransferHandler(ledgerService ledger.Service, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{ledger: ledgerService, logger: logger}
}

func (h *TransferHandler) Transfer(c *fiber.Ctx) error {
	var in ledger.TransferInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, h.logger, err)
	}
	in.Actor = utils.Actor(c)

	receipt, err := h.ledger.Transfer(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, receipt)
}

// Expire runs one expiration sweep on demand.
func (h *TransferHandler) Expire(c *fiber.Ctx) error {
	report, err := h.ledger.Expire(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"report": report})
}
