package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionState represents the earning session state
type SessionState string

const (
	SessionStateIdle     SessionState = "IDLE"
	SessionStateActive   SessionState = "ACTIVE"
	SessionStateCooldown SessionState = "COOLDOWN"
)

// EarningSession is the per-user timed state machine. The state is defined
// entirely by two timestamps (started_at and cooldown_until), so it is
// consistent regardless of how often it is read; no background timer is
// involved. Exactly one row exists per user.
type EarningSession struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	StartedAt       *time.Time      `json:"started_at,omitempty" db:"started_at"`
	DurationSeconds int             `json:"duration_seconds" db:"duration_seconds"`
	VipDailyRate    decimal.Decimal `json:"vip_daily_rate" db:"vip_daily_rate"`
	LastEarnings    decimal.Decimal `json:"last_earnings" db:"last_earnings"`
	CooldownUntil   *time.Time      `json:"cooldown_until,omitempty" db:"cooldown_until"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// StateAt derives the session state at the given instant. COOLDOWN is always
// visited between two ACTIVE windows: starting is only permitted once
// cooldown_until has passed, and cooldown_until is always set beyond the
// active window.
func (s *EarningSession) StateAt(now time.Time) SessionState {
	if s.StartedAt == nil {
		return SessionStateIdle
	}

	activeUntil := s.StartedAt.Add(time.Duration(s.DurationSeconds) * time.Second)
	if now.Before(activeUntil) {
		return SessionStateActive
	}

	if s.CooldownUntil != nil && now.Before(*s.CooldownUntil) {
		return SessionStateCooldown
	}

	return SessionStateIdle
}

// ActiveUntil returns the end of the active window, or the zero time when
// the session has never started.
func (s *EarningSession) ActiveUntil() time.Time {
	if s.StartedAt == nil {
		return time.Time{}
	}
	return s.StartedAt.Add(time.Duration(s.DurationSeconds) * time.Second)
}

// ProgressAt returns the percentage of the active window elapsed at now,
// clamped to [0,100].
func (s *EarningSession) ProgressAt(now time.Time) int {
	if s.StartedAt == nil || s.DurationSeconds <= 0 {
		return 0
	}

	elapsed := now.Sub(*s.StartedAt).Seconds()
	pct := int(elapsed * 100 / float64(s.DurationSeconds))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// EarningStatus is the read model returned to callers
type EarningStatus struct {
	State            SessionState    `json:"state"`
	RemainingSeconds int64           `json:"remaining_seconds"`
	Progress         int             `json:"progress"`
	LastEarnings     decimal.Decimal `json:"last_earnings"`
	VipDailyRate     decimal.Decimal `json:"vip_daily_rate"`
	CooldownUntil    *time.Time      `json:"cooldown_until,omitempty"`
}

// StatusAt builds the caller-facing status for the given instant
func (s *EarningSession) StatusAt(now time.Time) *EarningStatus {
	status := &EarningStatus{
		State:        s.StateAt(now),
		LastEarnings: s.LastEarnings,
		VipDailyRate: s.VipDailyRate,
	}

	switch status.State {
	case SessionStateActive:
		status.Progress = s.ProgressAt(now)
		status.RemainingSeconds = int64(s.ActiveUntil().Sub(now).Seconds())
	case SessionStateCooldown:
		status.CooldownUntil = s.CooldownUntil
		status.RemainingSeconds = int64(s.CooldownUntil.Sub(now).Seconds())
	}

	if status.RemainingSeconds < 0 {
		status.RemainingSeconds = 0
	}

	return status
}

// VipLevel is a catalog tier defining the fixed payout per session. It is
// read-only to the engine.
type VipLevel struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	DailyEarning decimal.Decimal `json:"daily_earning" db:"daily_earning"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
