package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/database"
)

// DepositRepository persists submitted deposits and their review outcomes
type DepositRepository struct {
	db     *sqlx.DB
	ledger *LedgerRepository
}

// NewDepositRepository creates a new deposit repository
func NewDepositRepository(db *sqlx.DB, ledger *LedgerRepository) *DepositRepository {
	return &DepositRepository{db: db, ledger: ledger}
}

// Create inserts a new pending deposit. The (network, tx_hash) pair is
// unique so the same on-chain transfer cannot be claimed twice.
func (r *DepositRepository) Create(ctx context.Context, deposit *entities.Deposit) error {
	if err := deposit.Validate(); err != nil {
		return apperrors.Wrap(err, "invalid deposit")
	}

	query := `
		INSERT INTO deposits (id, user_id, amount, network, tx_hash, status, auto_confirmed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		deposit.ID, deposit.UserID, deposit.Amount, deposit.Network, deposit.TxHash,
		deposit.Status, deposit.AutoConfirmed, deposit.CreatedAt, deposit.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return apperrors.AlreadyExistsError("DEPOSIT")
		}
		return fmt.Errorf("create deposit: %w", err)
	}
	return nil
}

// GetByID returns a deposit by id
func (r *DepositRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Deposit, error) {
	query := `
		SELECT id, user_id, amount, network, tx_hash, status, auto_confirmed,
		       approved_by, reject_reason, created_at, updated_at
		FROM deposits
		WHERE id = $1
	`

	deposit := &entities.Deposit{}
	err := r.db.GetContext(ctx, deposit, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("DEPOSIT")
		}
		return nil, fmt.Errorf("get deposit: %w", err)
	}
	return deposit, nil
}

// Confirm moves a pending deposit to CONFIRMED and posts its DEPOSIT
// ledger entry in the same transaction. The status guard in the WHERE
// clause makes concurrent approvals settle to exactly one winner.
func (r *DepositRepository) Confirm(ctx context.Context, id uuid.UUID, approvedBy *uuid.UUID, autoConfirmed bool, entry *entities.LedgerEntry) error {
	return database.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE deposits
			SET status = $1, approved_by = $2, auto_confirmed = $3, updated_at = $4
			WHERE id = $5 AND status = $6
		`

		result, err := tx.ExecContext(ctx, query,
			entities.DepositStatusConfirmed, approvedBy, autoConfirmed, time.Now().UTC(),
			id, entities.DepositStatusPending)
		if err != nil {
			return fmt.Errorf("confirm deposit: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("confirm deposit rows affected: %w", err)
		}
		if affected == 0 {
			return apperrors.ConflictError(apperrors.CodeDepositNotPending, "deposit is not pending review")
		}

		return r.ledger.AppendTx(ctx, tx, entry)
	})
}

// MarkRejected moves a pending deposit to REJECTED
func (r *DepositRepository) MarkRejected(ctx context.Context, id uuid.UUID, rejectedBy uuid.UUID, reason string) error {
	query := `
		UPDATE deposits
		SET status = $1, approved_by = $2, reject_reason = $3, updated_at = $4
		WHERE id = $5 AND status = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		entities.DepositStatusRejected, rejectedBy, reason, time.Now().UTC(),
		id, entities.DepositStatusPending)
	if err != nil {
		return fmt.Errorf("reject deposit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reject deposit rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.ConflictError(apperrors.CodeDepositNotPending, "deposit is not pending review")
	}
	return nil
}

// ListByUser returns a user's deposits, newest first
func (r *DepositRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.Deposit, error) {
	query := `
		SELECT id, user_id, amount, network, tx_hash, status, auto_confirmed,
		       approved_by, reject_reason, created_at, updated_at
		FROM deposits
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	deposits := []*entities.Deposit{}
	if err := r.db.SelectContext(ctx, &deposits, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}
	return deposits, nil
}

// ListPending returns all deposits awaiting review, oldest first
func (r *DepositRepository) ListPending(ctx context.Context, limit, offset int) ([]*entities.Deposit, error) {
	query := `
		SELECT id, user_id, amount, network, tx_hash, status, auto_confirmed,
		       approved_by, reject_reason, created_at, updated_at
		FROM deposits
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	deposits := []*entities.Deposit{}
	if err := r.db.SelectContext(ctx, &deposits, query, entities.DepositStatusPending, limit, offset); err != nil {
		return nil, fmt.Errorf("list pending deposits: %w", err)
	}
	return deposits, nil
}
