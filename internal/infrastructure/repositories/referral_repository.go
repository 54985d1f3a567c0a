package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ReferralRepository reads the immutable referral graph. Edges are set
// once at registration by the auth surface; the engine only walks them.
type ReferralRepository struct {
	db *sqlx.DB
}

// NewReferralRepository creates a new referral repository
func NewReferralRepository(db *sqlx.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// GetReferrer returns the user's referrer, or nil when the chain ends here
func (r *ReferralRepository) GetReferrer(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	query := `
		SELECT referrer_id
		FROM referral_edges
		WHERE user_id = $1
	`

	var referrerID uuid.UUID
	err := r.db.GetContext(ctx, &referrerID, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get referrer: %w", err)
	}

	return &referrerID, nil
}
