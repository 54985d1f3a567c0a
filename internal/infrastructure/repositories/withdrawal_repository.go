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
	"github.com/tmb8080/nova-sub001/internal/infrastructure/database"
)

// WithdrawalRepository persists withdrawal requests and their review outcomes
type WithdrawalRepository struct {
	db     *sqlx.DB
	ledger *LedgerRepository
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *sqlx.DB, ledger *LedgerRepository) *WithdrawalRepository {
	return &WithdrawalRepository{db: db, ledger: ledger}
}

// Create inserts a new pending withdrawal and its WITHDRAWAL ledger debit
// in one transaction. Either both land or neither does.
func (r *WithdrawalRepository) Create(ctx context.Context, withdrawal *entities.Withdrawal, entry *entities.LedgerEntry) error {
	return database.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.ledger.AppendTx(ctx, tx, entry); err != nil {
			return err
		}

		query := `
			INSERT INTO withdrawals (id, user_id, amount, fee_percent, net_amount, address, network,
			                         status, ledger_entry_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`

		_, err := tx.ExecContext(ctx, query,
			withdrawal.ID, withdrawal.UserID, withdrawal.Amount, withdrawal.FeePercent,
			withdrawal.NetAmount, withdrawal.Address, withdrawal.Network, withdrawal.Status,
			withdrawal.LedgerEntryID, withdrawal.CreatedAt, withdrawal.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create withdrawal: %w", err)
		}
		return nil
	})
}

// GetByID returns a withdrawal by id
func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Withdrawal, error) {
	query := `
		SELECT id, user_id, amount, fee_percent, net_amount, address, network,
		       status, ledger_entry_id, approved_by, reject_reason, created_at, updated_at
		FROM withdrawals
		WHERE id = $1
	`

	withdrawal := &entities.Withdrawal{}
	err := r.db.GetContext(ctx, withdrawal, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("WITHDRAWAL")
		}
		return nil, fmt.Errorf("get withdrawal: %w", err)
	}
	return withdrawal, nil
}

// MarkApproved moves a pending withdrawal to APPROVED
func (r *WithdrawalRepository) MarkApproved(ctx context.Context, id uuid.UUID, approvedBy uuid.UUID) error {
	query := `
		UPDATE withdrawals
		SET status = $1, approved_by = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.db.ExecContext(ctx, query,
		entities.WithdrawalStatusApproved, approvedBy, time.Now().UTC(),
		id, entities.WithdrawalStatusPending)
	if err != nil {
		return fmt.Errorf("approve withdrawal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("approve withdrawal rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.ConflictError(apperrors.CodeWithdrawalNotPending, "withdrawal is not pending review")
	}
	return nil
}

// Reject moves a pending withdrawal to REJECTED and posts the offsetting
// credit entry in the same transaction. The original debit is never
// edited; corrections are new entries.
func (r *WithdrawalRepository) Reject(ctx context.Context, id uuid.UUID, rejectedBy uuid.UUID, reason string, refundEntry *entities.LedgerEntry) error {
	return database.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE withdrawals
			SET status = $1, approved_by = $2, reject_reason = $3, updated_at = $4
			WHERE id = $5 AND status = $6
		`

		result, err := tx.ExecContext(ctx, query,
			entities.WithdrawalStatusRejected, rejectedBy, reason, time.Now().UTC(),
			id, entities.WithdrawalStatusPending)
		if err != nil {
			return fmt.Errorf("reject withdrawal: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("reject withdrawal rows affected: %w", err)
		}
		if affected == 0 {
			return apperrors.ConflictError(apperrors.CodeWithdrawalNotPending, "withdrawal is not pending review")
		}

		return r.ledger.AppendTx(ctx, tx, refundEntry)
	})
}

// ListByUser returns a user's withdrawals, newest first
func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.Withdrawal, error) {
	query := `
		SELECT id, user_id, amount, fee_percent, net_amount, address, network,
		       status, ledger_entry_id, approved_by, reject_reason, created_at, updated_at
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	withdrawals := []*entities.Withdrawal{}
	if err := r.db.SelectContext(ctx, &withdrawals, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	return withdrawals, nil
}

// ListPending returns all withdrawals awaiting review, oldest first
func (r *WithdrawalRepository) ListPending(ctx context.Context, limit, offset int) ([]*entities.Withdrawal, error) {
	query := `
		SELECT id, user_id, amount, fee_percent, net_amount, address, network,
		       status, ledger_entry_id, approved_by, reject_reason, created_at, updated_at
		FROM withdrawals
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	withdrawals := []*entities.Withdrawal{}
	if err := r.db.SelectContext(ctx, &withdrawals, query, entities.WithdrawalStatusPending, limit, offset); err != nil {
		return nil, fmt.Errorf("list pending withdrawals: %w", err)
	}
	return withdrawals, nil
}
