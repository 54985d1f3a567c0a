package entities

import (
	"github.com/shopspring/decimal"
)

// Settings is the admin-configurable state every engine operation reads
// once at its start and then treats as immutable for the duration of the
// call. It is deliberately a plain value, not ambient global state.
type Settings struct {
	ReferralRates        [MaxReferralLevels]decimal.Decimal `json:"referral_rates"`
	MinDeposit           decimal.Decimal                    `json:"min_deposit"`
	MinWithdrawal        decimal.Decimal                    `json:"min_withdrawal"`
	DepositsEnabled      bool                               `json:"deposits_enabled"`
	WithdrawalsEnabled   bool                               `json:"withdrawals_enabled"`
	AutoConfirmTolerance decimal.Decimal                    `json:"auto_confirm_tolerance"`
}

// DefaultSettings returns the platform defaults used when a key is absent
// from the settings store.
func DefaultSettings() Settings {
	return Settings{
		ReferralRates: [MaxReferralLevels]decimal.Decimal{
			decimal.NewFromFloat(0.10),
			decimal.NewFromFloat(0.05),
			decimal.NewFromFloat(0.02),
		},
		MinDeposit:           decimal.NewFromInt(10),
		MinWithdrawal:        decimal.NewFromInt(10),
		DepositsEnabled:      true,
		WithdrawalsEnabled:   true,
		AutoConfirmTolerance: decimal.NewFromFloat(0.01),
	}
}

// Setting keys as stored in the system_settings table
const (
	SettingReferralRateL1       = "referral_rate_level_1"
	SettingReferralRateL2       = "referral_rate_level_2"
	SettingReferralRateL3       = "referral_rate_level_3"
	SettingMinDeposit           = "min_deposit_amount"
	SettingMinWithdrawal        = "min_withdrawal_amount"
	SettingDepositsEnabled      = "deposits_enabled"
	SettingWithdrawalsEnabled   = "withdrawals_enabled"
	SettingAutoConfirmTolerance = "auto_confirm_tolerance"
)
