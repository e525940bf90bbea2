package handlers

import (
	"errors"
	"strings"

	apperrors "swapledger/internal/errors"
	"swapledger/internal/models"
	"swapledger/internal/repositories"
	"swapledger/internal/services/audit"
	"swapledger/internal/services/ledger"
	"swapledger/internal/services/settlement"
	"swapledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminHandler serves runtime settings and the audit trail.
type AdminHandler struct {
	settings   repositories.SettingRepository
	audits     repositories.AuditRepository
	auditor    ledger.Auditor
	defaultFee string
	logger     *zap.Logger
}

func NewAdminHandler(
	settings repositories.SettingRepository,
	audits repositories.AuditRepository,
	auditor ledger.Auditor,
	defaultFee string,
	logger *zap.Logger,
) *AdminHandler {
	if defaultFee == "" {
		defaultFee = settlement.DefaultSwapFee
	}
	return &AdminHandler{
		settings:   settings,
		audits:     audits,
		auditor:    auditor,
		defaultFee: defaultFee,
		logger:     logger,
	}
}

// GetSwapFee reports the fee the next settlement would be charged and where
// it comes from.
func (h *AdminHandler) GetSwapFee(c *fiber.Ctx) error {
	setting, err := h.settings.Get(c.UserContext(), models.SettingSwapFee)
	switch {
	case err == nil:
		return utils.Success(c, fiber.Map{
			"swap_fee":   setting.Value,
			"source":     "setting",
			"updated_by": setting.UpdatedBy,
			"updated_at": setting.UpdatedAt,
		})
	case errors.Is(err, repositories.ErrSettingNotFound):
		return utils.Success(c, fiber.Map{"swap_fee": h.defaultFee, "source": "default"})
	default:
		return respondError(c, h.logger, err)
	}
}

func (h *AdminHandler) UpdateSwapFee(c *fiber.Ctx) error {
	var input struct {
		SwapFee string `json:"swap_fee"`
	}
	if err := parseBody(c, &input); err != nil {
		return respondError(c, h.logger, err)
	}
	value := strings.TrimSpace(input.SwapFee)
	if _, err := settlement.ParseFee(value); err != nil {
		return respondError(c, h.logger, apperrors.ErrValidation.WithMessage(
			"invalid request: swap_fee must be a positive amount with at most two decimals"))
	}

	actor := utils.Actor(c)
	setting, err := h.settings.Set(c.UserContext(), models.SettingSwapFee, value, actor)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	h.auditor.Record(c.UserContext(), audit.Event{
		Action: audit.ActionSettingUpdated,
		Actor:  actor,
		Details: map[string]interface{}{
			"key":   models.SettingSwapFee,
			"value": value,
		},
	})
	return utils.Success(c, fiber.Map{"swap_fee": setting.Value, "source": "setting"})
}

func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	p := utils.GetPagination(c, 50, 200)
	logs, total, err := h.audits.List(c.UserContext(), c.Query("action"), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	p.SetTotal(total)
	return utils.Paginated(c, logs, p)
}
