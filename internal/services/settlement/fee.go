package settlement

import (
	"context"
	"errors"
	"fmt"

	"swapledger/internal/models"
	"swapledger/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultSwapFee applies when neither the setting nor the environment names a fee.
const DefaultSwapFee = "25.00"

// ParseFee converts a positive decimal amount in major units ("25.00") into
// minor units (2500). More than two decimal places is rejected rather than
// rounded.
func ParseFee(raw string) (int64, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid fee %q: %w", raw, err)
	}
	if !amount.IsPositive() {
		return 0, fmt.Errorf("invalid fee %q: must be positive", raw)
	}
	minor := amount.Shift(2)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("invalid fee %q: at most two decimal places", raw)
	}
	return minor.IntPart(), nil
}

// FeeResolver reads the swap fee fresh on every call: the swap_fee setting
// first, then the configured fallback, then DefaultSwapFee.
type FeeResolver struct {
	settings SettingsReader
	fallback string
	logger   *zap.Logger
}

func NewFeeResolver(settings SettingsReader, fallback string, logger *zap.Logger) *FeeResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeResolver{settings: settings, fallback: fallback, logger: logger}
}

// Resolve returns the fee in minor units.
func (r *FeeResolver) Resolve(ctx context.Context) (int64, error) {
	if r.settings != nil {
		setting, err := r.settings.Get(ctx, models.SettingSwapFee)
		switch {
		case err == nil:
			fee, perr := ParseFee(setting.Value)
			if perr == nil {
				return fee, nil
			}
			r.logger.Warn("ignoring invalid swap fee setting", zap.String("value", setting.Value), zap.Error(perr))
		case !errors.Is(err, repositories.ErrSettingNotFound):
			r.logger.Warn("failed to read swap fee setting", zap.Error(err))
		}
	}

	if r.fallback != "" {
		fee, err := ParseFee(r.fallback)
		if err == nil {
			return fee, nil
		}
		r.logger.Warn("ignoring invalid configured swap fee", zap.String("value", r.fallback), zap.Error(err))
	}
	return ParseFee(DefaultSwapFee)
}
