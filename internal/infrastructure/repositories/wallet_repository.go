package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
)

// WalletRepository persists the derived wallet cache. Wallets are only
// ever fully overwritten from ledger sums, never incremented, which keeps
// reconciliation idempotent.
type WalletRepository struct {
	db *sqlx.DB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Get retrieves a user's wallet
func (r *WalletRepository) Get(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	query := `
		SELECT user_id, balance, total_deposits, total_earnings, total_referral_bonus,
		       total_withdrawals, total_vip_payments, updated_at
		FROM wallets
		WHERE user_id = $1
	`

	var wallet entities.Wallet
	err := r.db.GetContext(ctx, &wallet, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("WALLET")
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	return &wallet, nil
}

// Overwrite upserts the whole wallet row in a single statement. The full
// overwrite (not increments) is what makes reconciliation safe to re-run
// after any drift.
func (r *WalletRepository) Overwrite(ctx context.Context, wallet *entities.Wallet) error {
	query := `
		INSERT INTO wallets (user_id, balance, total_deposits, total_earnings,
		                     total_referral_bonus, total_withdrawals, total_vip_payments, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			balance = EXCLUDED.balance,
			total_deposits = EXCLUDED.total_deposits,
			total_earnings = EXCLUDED.total_earnings,
			total_referral_bonus = EXCLUDED.total_referral_bonus,
			total_withdrawals = EXCLUDED.total_withdrawals,
			total_vip_payments = EXCLUDED.total_vip_payments,
			updated_at = EXCLUDED.updated_at
	`

	wallet.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(
		ctx,
		query,
		wallet.UserID,
		wallet.Balance,
		wallet.TotalDeposits,
		wallet.TotalEarnings,
		wallet.TotalReferralBonus,
		wallet.TotalWithdrawals,
		wallet.TotalVipPayments,
		wallet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("overwrite wallet: %w", err)
	}

	return nil
}
