package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
)

func TestUpdateSetting_ToggleWithdrawals(t *testing.T) {
	store := new(MockSettingsStore)
	service := NewSettingsService(store, testLogger())

	updated := entities.DefaultSettings()
	updated.WithdrawalsEnabled = false

	store.On("Set", mock.Anything, entities.SettingWithdrawalsEnabled, "false").Return(nil)
	store.On("Load", mock.Anything).Return(updated, nil)

	settings, err := service.UpdateSetting(context.Background(), entities.SettingWithdrawalsEnabled, "false")

	assert.NoError(t, err)
	assert.False(t, settings.WithdrawalsEnabled)
	store.AssertExpectations(t)
}

func TestUpdateSetting_ReferralRate(t *testing.T) {
	store := new(MockSettingsStore)
	service := NewSettingsService(store, testLogger())

	updated := entities.DefaultSettings()
	updated.ReferralRates[0] = decimal.NewFromFloat(0.15)

	store.On("Set", mock.Anything, entities.SettingReferralRateL1, "0.15").Return(nil)
	store.On("Load", mock.Anything).Return(updated, nil)

	settings, err := service.UpdateSetting(context.Background(), entities.SettingReferralRateL1, "0.15")

	assert.NoError(t, err)
	assert.True(t, settings.ReferralRates[0].Equal(decimal.NewFromFloat(0.15)))
}

func TestUpdateSetting_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non boolean toggle", entities.SettingDepositsEnabled, "yes"},
		{"negative minimum", entities.SettingMinWithdrawal, "-5"},
		{"non decimal minimum", entities.SettingMinDeposit, "ten"},
		{"rate above one", entities.SettingReferralRateL2, "1.5"},
		{"negative rate", entities.SettingReferralRateL3, "-0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockSettingsStore)
			service := NewSettingsService(store, testLogger())

			_, err := service.UpdateSetting(context.Background(), tt.key, tt.value)

			assert.Error(t, err)
			assert.True(t, apperrors.IsInvalidInput(err))
			store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateSetting_RejectsUnknownKey(t *testing.T) {
	store := new(MockSettingsStore)
	service := NewSettingsService(store, testLogger())

	_, err := service.UpdateSetting(context.Background(), "maintenance_mode", "true")

	assert.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
	assert.Equal(t, "UNKNOWN_SETTING", apperrors.GetErrorCode(err))
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetSettings_ReturnsEffectiveSettings(t *testing.T) {
	store := new(MockSettingsStore)
	service := NewSettingsService(store, testLogger())

	store.On("Load", mock.Anything).Return(entities.DefaultSettings(), nil)

	settings, err := service.GetSettings(context.Background())

	assert.NoError(t, err)
	assert.True(t, settings.DepositsEnabled)
	assert.True(t, settings.MinDeposit.Equal(decimal.NewFromInt(10)))
}
