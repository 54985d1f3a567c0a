package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
)

// LedgerRepository handles the append-only ledger entry table. Entries are
// never updated or deleted; there are intentionally no UPDATE or DELETE
// statements in this file.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append inserts a new ledger entry. A duplicate idempotency key returns
// ErrAlreadyExists, which writers treat as "already posted".
func (r *LedgerRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	return r.append(ctx, r.db, entry)
}

// AppendTx inserts a new ledger entry within an existing transaction
func (r *LedgerRepository) AppendTx(ctx context.Context, tx *sqlx.Tx, entry *entities.LedgerEntry) error {
	return r.append(ctx, tx, entry)
}

func (r *LedgerRepository) append(ctx context.Context, ext sqlx.ExtContext, entry *entities.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validate entry: %w", err)
	}

	var metadataJSON []byte
	if entry.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	query := `
		INSERT INTO ledger_entries (id, user_id, kind, amount, currency, idempotency_key, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := ext.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.Kind,
		entry.Amount,
		entry.Currency,
		entry.IdempotencyKey,
		metadataJSON,
		entry.CreatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation on idempotency_key
				return apperrors.AlreadyExistsError("LEDGER_ENTRY")
			}
		}
		return fmt.Errorf("append entry: %w", err)
	}

	return nil
}

// SumByKind returns the signed total per entry kind for a user. Kinds
// without entries are absent from the map.
func (r *LedgerRepository) SumByKind(ctx context.Context, userID uuid.UUID) (map[entities.EntryKind]decimal.Decimal, error) {
	query := `
		SELECT kind, COALESCE(SUM(amount), 0) AS total
		FROM ledger_entries
		WHERE user_id = $1
		GROUP BY kind
	`

	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("sum by kind: %w", err)
	}
	defer rows.Close()

	sums := make(map[entities.EntryKind]decimal.Decimal)
	for rows.Next() {
		var kind entities.EntryKind
		var total decimal.Decimal
		if err := rows.Scan(&kind, &total); err != nil {
			return nil, fmt.Errorf("scan sum row: %w", err)
		}
		sums[kind] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sum rows: %w", err)
	}

	return sums, nil
}

// ListByUser retrieves a user's entries, newest first
func (r *LedgerRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.LedgerEntry, error) {
	query := `
		SELECT id, user_id, kind, amount, currency, idempotency_key, metadata, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryxContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*entities.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// UsersWithEntriesSince returns the user ids with ledger activity after
// the given instant. Used by the reconciliation sweep.
func (r *LedgerRepository) UsersWithEntriesSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT user_id
		FROM ledger_entries
		WHERE created_at >= $1
	`

	var userIDs []uuid.UUID
	if err := r.db.SelectContext(ctx, &userIDs, query, since); err != nil {
		return nil, fmt.Errorf("users with entries since: %w", err)
	}

	return userIDs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLedgerEntry(row rowScanner) (*entities.LedgerEntry, error) {
	var entry entities.LedgerEntry
	var metadataJSON []byte

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Kind,
		&entry.Amount,
		&entry.Currency,
		&entry.IdempotencyKey,
		&metadataJSON,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		var metadata entities.EntryMetadata
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		entry.Metadata = &metadata
	}

	return &entry, nil
}
