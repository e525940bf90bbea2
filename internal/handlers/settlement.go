package handlers

import (
	"swapledger/internal/services/settlement"
	"swapledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SettlementHandler struct {
	settlements settlement.Service
	logger      *zap.Logger
}

func NewSettlementHandler(settlements settlement.Service, logger *zap.Logger) *SettlementHandler {
	return &SettlementHandler{settlements: settlements, logger: logger}
}

func (h *SettlementHandler) Create(c *fiber.Ctx) error {
	var in settlement.CreateInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, h.logger, err)
	}
	in.Actor = utils.Actor(c)

	s, err := h.settlements.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, fiber.Map{"settlement": s})
}

func (h *SettlementHandler) Get(c *fiber.Ctx) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	s, err := h.settlements.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"settlement": s})
}

func (h *SettlementHandler) Match(c *fiber.Ctx) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	s, err := h.settlements.Match(c.UserContext(), id, utils.Actor(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"settlement": s})
}

func (h *SettlementHandler) Cancel(c *fiber.Ctx) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &input); err != nil {
			return respondError(c, h.logger, err)
		}
	}

	s, err := h.settlements.Cancel(c.UserContext(), id, input.Reason, utils.Actor(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"settlement": s})
}

func (h *SettlementHandler) Complete(c *fiber.Ctx) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.settlements.Complete(c.UserContext(), id, utils.Actor(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"result": result})
}
