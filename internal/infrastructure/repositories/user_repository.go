package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
)

// UserRepository reads the minimal user projection the engine needs.
// Accounts are owned by the auth surface; only the notification email
// is read here.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetEmail returns the user's notification address
func (r *UserRepository) GetEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	query := `SELECT email FROM users WHERE id = $1`

	var email string
	err := r.db.GetContext(ctx, &email, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", apperrors.NotFoundError("USER")
		}
		return "", fmt.Errorf("get user email: %w", err)
	}
	return email, nil
}
