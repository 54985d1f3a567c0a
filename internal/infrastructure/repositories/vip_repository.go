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

// VipRepository reads the VIP catalog and per-user level assignments.
// The catalog itself is owned by an external admin surface; the engine
// only reads it, plus the single write of assigning a purchased level.
type VipRepository struct {
	db     *sqlx.DB
	ledger *LedgerRepository
}

// NewVipRepository creates a new VIP repository
func NewVipRepository(db *sqlx.DB, ledger *LedgerRepository) *VipRepository {
	return &VipRepository{db: db, ledger: ledger}
}

// GetActiveLevel returns the user's current VIP level, or NotFound when
// the user holds none (or the held level was deactivated in the catalog).
func (r *VipRepository) GetActiveLevel(ctx context.Context, userID uuid.UUID) (*entities.VipLevel, error) {
	query := `
		SELECT vl.id, vl.name, vl.amount, vl.daily_earning, vl.is_active, vl.created_at
		FROM user_vip_levels uvl
		JOIN vip_levels vl ON vl.id = uvl.vip_level_id
		WHERE uvl.user_id = $1 AND vl.is_active = true
	`

	var level entities.VipLevel
	err := r.db.GetContext(ctx, &level, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("VIP_LEVEL")
		}
		return nil, fmt.Errorf("get active vip level: %w", err)
	}

	return &level, nil
}

// GetLevelByID retrieves a catalog level by id
func (r *VipRepository) GetLevelByID(ctx context.Context, levelID uuid.UUID) (*entities.VipLevel, error) {
	query := `
		SELECT id, name, amount, daily_earning, is_active, created_at
		FROM vip_levels
		WHERE id = $1
	`

	var level entities.VipLevel
	err := r.db.GetContext(ctx, &level, query, levelID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("VIP_LEVEL")
		}
		return nil, fmt.Errorf("get vip level: %w", err)
	}

	return &level, nil
}

// ListActiveLevels retrieves the purchasable catalog, cheapest first
func (r *VipRepository) ListActiveLevels(ctx context.Context) ([]*entities.VipLevel, error) {
	query := `
		SELECT id, name, amount, daily_earning, is_active, created_at
		FROM vip_levels
		WHERE is_active = true
		ORDER BY amount ASC
	`

	var levels []*entities.VipLevel
	if err := r.db.SelectContext(ctx, &levels, query); err != nil {
		return nil, fmt.Errorf("list vip levels: %w", err)
	}

	return levels, nil
}

// Purchase posts the VIP_PAYMENT debit and assigns the level in one
// transaction.
func (r *VipRepository) Purchase(ctx context.Context, userID, levelID uuid.UUID, entry *entities.LedgerEntry) error {
	return database.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.ledger.AppendTx(ctx, tx, entry); err != nil {
			return err
		}

		query := `
			INSERT INTO user_vip_levels (user_id, vip_level_id, assigned_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE SET
				vip_level_id = EXCLUDED.vip_level_id,
				assigned_at = EXCLUDED.assigned_at
		`

		if _, err := tx.ExecContext(ctx, query, userID, levelID, time.Now()); err != nil {
			return fmt.Errorf("assign vip level: %w", err)
		}
		return nil
	})
}
