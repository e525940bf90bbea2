package handlers

import (
	"swapledger/internal/services/ledger"
	"swapledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WalletHandler struct {
	ledger ledger.Service
	logger *zap.Logger
}

func NewWalletHandler(ledgerService ledger.Service, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{ledger: ledgerService, logger: logger}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	userID, err := uintParam(c, "userId")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	wallet, err := h.ledger.GetWallet(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"wallet": wallet})
}

func (h *WalletHandler) ListEntries(c *fiber.Ctx) error {
	userID, err := uintParam(c, "userId")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	p := utils.GetPagination(c, ledger.DefaultPageSize, ledger.MaxPageSize)

	page, err := h.ledger.ListEntries(c.UserContext(), userID, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	p.SetTotal(page.Total)
	return utils.Paginated(c, page.Entries, p)
}

func (h *WalletHandler) Reconcile(c *fiber.Ctx) error {
	userID, err := uintParam(c, "userId")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	report, err := h.ledger.Reconcile(c.UserContext(), userID)
	if err != nil {
		if report != nil {
			// Inconsistent wallets still return their figures.
			return utils.Respond(c, fiber.StatusConflict, fiber.Map{
				"error":  "ledger inconsistency detected",
				"report": report,
			})
		}
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"report": report})
}

func (h *WalletHandler) Deposit(c *fiber.Ctx) error {
	var in ledger.DepositInput
	if err := h.bind(c, &in, &in.UserID); err != nil {
		return respondError(c, h.logger, err)
	}
	in.Actor = utils.Actor(c)

	receipt, err := h.ledger.Deposit(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, receipt)
}

func (h *WalletHandler) Spend(c *fiber.Ctx) error {
	var in ledger.SpendInput
	if err := h.bind(c, &in, &in.UserID); err != nil {
		return respondError(c, h.logger, err)
	}
	in.Actor = utils.Actor(c)

	receipt, err := h.ledger.Spend(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, receipt)
}

func (h *WalletHandler) Refund(c *fiber.Ctx) error {
	var in ledger.RefundInput
	if err := h.bind(c, &in, &in.UserID); err != nil {
		return respondError(c, h.logger, err)
	}
	in.Actor = utils.Actor(c)

	receipt, err := h.ledger.Refund(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, receipt)
}

func (h *WalletHandler) Adjust(c *fiber.Ctx) error {
	var in ledger.AdjustInput
	if err := h.bind(c, &in, &in.UserID); err != nil {
		return respondError(c, h.logger, err)
	}
	in.Actor = utils.Actor(c)

	receipt, err := h.ledger.Adjust(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, receipt)
}

// bind parses the body into in and takes the user id from the path.
func (h *WalletHandler) bind(c *fiber.Ctx, in interface{}, userID *uint) error {
	id, err := uintParam(c, "userId")
	if err != nil {
		return err
	}
	if err := parseBody(c, in); err != nil {
		return err
	}
	*userID = id
	return nil
}
