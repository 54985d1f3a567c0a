package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
)

// SettingsRepository persists key-value platform settings and the
// withdrawal fee tier table.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Load reads all settings rows and overlays them on the defaults, so a
// missing key never breaks an operation.
func (r *SettingsRepository) Load(ctx context.Context) (entities.Settings, error) {
	query := `SELECT key, value FROM system_settings`

	settings := entities.DefaultSettings()

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return settings, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return settings, fmt.Errorf("scan setting: %w", err)
		}
		if err := applySetting(&settings, key, value); err != nil {
			return settings, err
		}
	}
	if err := rows.Err(); err != nil {
		return settings, fmt.Errorf("iterate settings: %w", err)
	}

	return settings, nil
}

// Set upserts a single setting value
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO system_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func applySetting(s *entities.Settings, key, value string) error {
	switch key {
	case entities.SettingDepositsEnabled:
		s.DepositsEnabled = value == "true"
	case entities.SettingWithdrawalsEnabled:
		s.WithdrawalsEnabled = value == "true"
	case entities.SettingMinDeposit, entities.SettingMinWithdrawal,
		entities.SettingAutoConfirmTolerance,
		entities.SettingReferralRateL1, entities.SettingReferralRateL2, entities.SettingReferralRateL3:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return apperrors.ValidationError("INVALID_SETTING_VALUE",
				fmt.Sprintf("setting %s is not a valid decimal: %s", key, value))
		}
		switch key {
		case entities.SettingMinDeposit:
			s.MinDeposit = d
		case entities.SettingMinWithdrawal:
			s.MinWithdrawal = d
		case entities.SettingAutoConfirmTolerance:
			s.AutoConfirmTolerance = d
		case entities.SettingReferralRateL1:
			s.ReferralRates[0] = d
		case entities.SettingReferralRateL2:
			s.ReferralRates[1] = d
		case entities.SettingReferralRateL3:
			s.ReferralRates[2] = d
		}
	}
	return nil
}

// ListTiers returns all fee tiers ordered by min_amount ascending
func (r *SettingsRepository) ListTiers(ctx context.Context) ([]*entities.FeeTier, error) {
	query := `
		SELECT id, min_amount, max_amount, percent, created_at
		FROM fee_tiers
		ORDER BY min_amount ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list fee tiers: %w", err)
	}
	defer rows.Close()

	var tiers []*entities.FeeTier
	for rows.Next() {
		tier := &entities.FeeTier{}
		var maxAmount sql.NullString
		if err := rows.Scan(&tier.ID, &tier.MinAmount, &maxAmount, &tier.Percent, &tier.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fee tier: %w", err)
		}
		if maxAmount.Valid {
			d, err := decimal.NewFromString(maxAmount.String)
			if err != nil {
				return nil, fmt.Errorf("parse fee tier max_amount: %w", err)
			}
			tier.MaxAmount = &d
		}
		tiers = append(tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fee tiers: %w", err)
	}

	return tiers, nil
}

// CreateTier inserts a new fee tier
func (r *SettingsRepository) CreateTier(ctx context.Context, tier *entities.FeeTier) error {
	if err := tier.Validate(); err != nil {
		return err
	}
	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	if tier.CreatedAt.IsZero() {
		tier.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO fee_tiers (id, min_amount, max_amount, percent, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	var maxAmount interface{}
	if tier.MaxAmount != nil {
		maxAmount = tier.MaxAmount.String()
	}

	_, err := r.db.ExecContext(ctx, query, tier.ID, tier.MinAmount, maxAmount, tier.Percent, tier.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return apperrors.AlreadyExistsError("FEE_TIER")
		}
		return fmt.Errorf("create fee tier: %w", err)
	}
	return nil
}

// DeleteTier removes a fee tier by id
func (r *SettingsRepository) DeleteTier(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM fee_tiers WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete fee tier: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete fee tier rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFoundError("FEE_TIER")
	}
	return nil
}
