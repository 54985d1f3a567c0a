package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
)

// AdminRepository reads reviewer accounts
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// GetByID returns an active admin by id
func (r *AdminRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Admin, error) {
	query := `
		SELECT id, email, totp_secret, is_active, created_at
		FROM admins
		WHERE id = $1 AND is_active = true
	`

	admin := &entities.Admin{}
	err := r.db.GetContext(ctx, admin, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("ADMIN")
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return admin, nil
}
