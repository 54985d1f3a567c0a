package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

// SettingsStore reads and writes the key-value settings table
type SettingsStore interface {
	Load(ctx context.Context) (entities.Settings, error)
	Set(ctx context.Context, key, value string) error
}

// SettingsService exposes the admin-configurable platform switches:
// deposit and withdrawal toggles, minimum amounts, referral rates and
// the auto-confirm tolerance. Every engine operation reads these once
// at its start, so a write here takes effect on the next call.
type SettingsService struct {
	settings SettingsStore
	logger   *logger.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(settings SettingsStore, logger *logger.Logger) *SettingsService {
	return &SettingsService{
		settings: settings,
		logger:   logger,
	}
}

// GetSettings returns the effective settings, defaults overlaid with
// stored overrides.
func (s *SettingsService) GetSettings(ctx context.Context) (entities.Settings, error) {
	return s.settings.Load(ctx)
}

// UpdateSetting validates and stores one setting, then returns the
// resulting effective settings.
func (s *SettingsService) UpdateSetting(ctx context.Context, key, value string) (entities.Settings, error) {
	if err := validateSetting(key, value); err != nil {
		return entities.Settings{}, err
	}

	if err := s.settings.Set(ctx, key, value); err != nil {
		return entities.Settings{}, err
	}

	s.logger.Info("platform setting updated", "key", key, "value", value)

	return s.settings.Load(ctx)
}

func validateSetting(key, value string) error {
	switch key {
	case entities.SettingDepositsEnabled, entities.SettingWithdrawalsEnabled:
		if value != "true" && value != "false" {
			return apperrors.ValidationError("INVALID_SETTING_VALUE",
				fmt.Sprintf("setting %s must be true or false", key))
		}
	case entities.SettingMinDeposit, entities.SettingMinWithdrawal, entities.SettingAutoConfirmTolerance:
		d, err := decimal.NewFromString(value)
		if err != nil || d.IsNegative() {
			return apperrors.ValidationError("INVALID_SETTING_VALUE",
				fmt.Sprintf("setting %s must be a non-negative decimal", key))
		}
	case entities.SettingReferralRateL1, entities.SettingReferralRateL2, entities.SettingReferralRateL3:
		d, err := decimal.NewFromString(value)
		if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
			return apperrors.ValidationError("INVALID_SETTING_VALUE",
				fmt.Sprintf("setting %s must be a rate between 0 and 1", key))
		}
	default:
		return apperrors.ValidationError("UNKNOWN_SETTING",
			fmt.Sprintf("unknown setting key: %s", key))
	}
	return nil
}
