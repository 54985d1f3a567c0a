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
)

// SessionRepository persists per-user earning sessions. Updates use a
// compare-and-set on updated_at so two concurrent writers cannot both
// transition the same session.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// GetByUser retrieves the user's session row
func (r *SessionRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*entities.EarningSession, error) {
	query := `
		SELECT id, user_id, started_at, duration_seconds, vip_daily_rate,
		       last_earnings, cooldown_until, created_at, updated_at
		FROM earning_sessions
		WHERE user_id = $1
	`

	var session entities.EarningSession
	err := r.db.GetContext(ctx, &session, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("EARNING_SESSION")
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &session, nil
}

// Create inserts the user's session row. Each user has at most one.
func (r *SessionRepository) Create(ctx context.Context, session *entities.EarningSession) error {
	query := `
		INSERT INTO earning_sessions (id, user_id, started_at, duration_seconds,
		                              vip_daily_rate, last_earnings, cooldown_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := r.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.StartedAt,
		session.DurationSeconds,
		session.VipDailyRate,
		session.LastEarnings,
		session.CooldownUntil,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation on user_id
				return apperrors.AlreadyExistsError("EARNING_SESSION")
			}
		}
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// Update writes the session with a compare-and-set on updated_at. Zero
// rows affected means another writer got there first; callers surface
// that as a conflict.
func (r *SessionRepository) Update(ctx context.Context, session *entities.EarningSession) error {
	query := `
		UPDATE earning_sessions
		SET started_at = $1, duration_seconds = $2, vip_daily_rate = $3,
		    last_earnings = $4, cooldown_until = $5, updated_at = $6
		WHERE user_id = $7 AND updated_at = $8
	`

	previousUpdatedAt := session.UpdatedAt
	session.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(
		ctx,
		query,
		session.StartedAt,
		session.DurationSeconds,
		session.VipDailyRate,
		session.LastEarnings,
		session.CooldownUntil,
		session.UpdatedAt,
		session.UserID,
		previousUpdatedAt,
	)
	if err != nil {
		session.UpdatedAt = previousUpdatedAt
		return fmt.Errorf("update session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if rowsAffected == 0 {
		session.UpdatedAt = previousUpdatedAt
		return apperrors.ConflictError(apperrors.CodeConcurrentUpdate, "session was modified concurrently")
	}

	return nil
}
