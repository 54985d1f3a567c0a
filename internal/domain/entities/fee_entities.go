package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeTier is an amount-banded withdrawal fee. The band is [MinAmount,
// MaxAmount): min inclusive, max exclusive. A nil MaxAmount means the band
// is unbounded above. The active tier set is expected to partition [0, inf)
// without gaps or overlaps.
type FeeTier struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	MinAmount decimal.Decimal  `json:"min_amount" db:"min_amount"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty" db:"max_amount"`
	Percent   decimal.Decimal  `json:"percent" db:"percent"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// Validate validates a single tier
func (t *FeeTier) Validate() error {
	if t.MinAmount.IsNegative() {
		return fmt.Errorf("tier min amount cannot be negative")
	}

	if t.MaxAmount != nil && !t.MaxAmount.GreaterThan(t.MinAmount) {
		return fmt.Errorf("tier max amount must exceed min amount")
	}

	if t.Percent.IsNegative() || t.Percent.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("tier percent must be within [0,100]")
	}

	return nil
}

// Contains reports whether amount falls inside this tier's band
func (t *FeeTier) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(t.MinAmount) {
		return false
	}
	if t.MaxAmount != nil && amount.GreaterThanOrEqual(*t.MaxAmount) {
		return false
	}
	return true
}

// TierRange is a half-open [From, To) interval reported by validation.
// A nil To marks an interval unbounded above.
type TierRange struct {
	From decimal.Decimal  `json:"from"`
	To   *decimal.Decimal `json:"to,omitempty"`
}

// TierValidation reports every gap and overlap in a tier set. An empty
// report means the set partitions [0, inf).
type TierValidation struct {
	Overlaps []TierRange `json:"overlaps"`
	Gaps     []TierRange `json:"gaps"`
}

// Valid reports whether the tier set had no issues
func (v *TierValidation) Valid() bool {
	return len(v.Overlaps) == 0 && len(v.Gaps) == 0
}
