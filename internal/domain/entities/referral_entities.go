package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxReferralLevels is how far up the referral chain bonuses cascade
const MaxReferralLevels = 3

// ReferralEdge links a user to the account that referred them. Set once at
// registration and never changed, which also rules out cycles: a user
// cannot become an ancestor of an account that existed before them.
type ReferralEdge struct {
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	ReferrerID uuid.UUID `json:"referrer_id" db:"referrer_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ReferralCredit records the outcome of crediting one ancestor level
// during a distribution. Distribution is best-effort per level, so
// failures are reported here rather than propagated.
type ReferralCredit struct {
	Level      int             `json:"level"`
	ReferrerID uuid.UUID       `json:"referrer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Credited   bool            `json:"credited"`
	Error      string          `json:"error,omitempty"`
}
