package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency is the single settlement currency of the platform
const Currency = "USDT"

// EntryKind represents the kind of ledger entry
type EntryKind string

const (
	EntryKindDeposit       EntryKind = "DEPOSIT"
	EntryKindWithdrawal    EntryKind = "WITHDRAWAL"
	EntryKindVipEarnings   EntryKind = "VIP_EARNINGS"
	EntryKindReferralBonus EntryKind = "REFERRAL_BONUS"
	EntryKindVipPayment    EntryKind = "VIP_PAYMENT"
	EntryKindTaskReward    EntryKind = "TASK_REWARD"
)

// Validate checks if the entry kind is valid
func (k EntryKind) Validate() error {
	switch k {
	case EntryKindDeposit, EntryKindWithdrawal, EntryKindVipEarnings,
		EntryKindReferralBonus, EntryKindVipPayment, EntryKindTaskReward:
		return nil
	default:
		return fmt.Errorf("invalid entry kind: %s", k)
	}
}

// IsDebit returns true for kinds that are stored with a negative amount
func (k EntryKind) IsDebit() bool {
	return k == EntryKindWithdrawal || k == EntryKindVipPayment
}

// EntryMetadata carries optional context for an entry
type EntryMetadata struct {
	Network       *string    `json:"network,omitempty"`
	TxHash        *string    `json:"tx_hash,omitempty"`
	SourceUserID  *uuid.UUID `json:"source_user_id,omitempty"`
	ReferralLevel *int       `json:"referral_level,omitempty"`
	Reference     *string    `json:"reference,omitempty"`
}

// LedgerEntry is an immutable signed money-movement record. Entries are
// created once and never mutated or deleted; corrections are new
// offsetting entries.
type LedgerEntry struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	Kind           EntryKind       `json:"kind" db:"kind"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Currency       string          `json:"currency" db:"currency"`
	IdempotencyKey string          `json:"idempotency_key" db:"idempotency_key"`
	Metadata       *EntryMetadata  `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// Validate validates the ledger entry, including the amount-sign
// convention: debits (WITHDRAWAL, VIP_PAYMENT) are negative, credits
// positive.
func (e *LedgerEntry) Validate() error {
	if e.ID == uuid.Nil {
		return fmt.Errorf("entry ID is required")
	}

	if e.UserID == uuid.Nil {
		return fmt.Errorf("user ID is required")
	}

	if err := e.Kind.Validate(); err != nil {
		return err
	}

	if e.IdempotencyKey == "" {
		return fmt.Errorf("idempotency key is required")
	}

	if e.Amount.IsZero() {
		return fmt.Errorf("entry amount cannot be zero")
	}

	if e.Kind.IsDebit() && e.Amount.IsPositive() {
		return fmt.Errorf("%s entries must carry a negative amount", e.Kind)
	}

	if !e.Kind.IsDebit() && e.Amount.IsNegative() {
		return fmt.Errorf("%s entries must carry a positive amount", e.Kind)
	}

	if e.Currency != Currency {
		return fmt.Errorf("invalid currency: %s", e.Currency)
	}

	return nil
}

// Wallet is the per-user derived aggregate. It is a cache over the ledger:
// only the reconciler writes it, and it can always be rebuilt by replaying
// the user's entries.
type Wallet struct {
	UserID             uuid.UUID       `json:"user_id" db:"user_id"`
	Balance            decimal.Decimal `json:"balance" db:"balance"`
	TotalDeposits      decimal.Decimal `json:"total_deposits" db:"total_deposits"`
	TotalEarnings      decimal.Decimal `json:"total_earnings" db:"total_earnings"`
	TotalReferralBonus decimal.Decimal `json:"total_referral_bonus" db:"total_referral_bonus"`
	TotalWithdrawals   decimal.Decimal `json:"total_withdrawals" db:"total_withdrawals"`
	TotalVipPayments   decimal.Decimal `json:"total_vip_payments" db:"total_vip_payments"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// ComputeWallet derives a wallet from per-kind ledger sums. Debit kinds are
// stored negative, so the totals here are reported as absolute values and
// the balance clamps at zero.
func ComputeWallet(userID uuid.UUID, sums map[EntryKind]decimal.Decimal) *Wallet {
	w := &Wallet{
		UserID:             userID,
		TotalDeposits:      sums[EntryKindDeposit],
		TotalEarnings:      sums[EntryKindVipEarnings].Add(sums[EntryKindTaskReward]),
		TotalReferralBonus: sums[EntryKindReferralBonus],
		TotalWithdrawals:   sums[EntryKindWithdrawal].Abs(),
		TotalVipPayments:   sums[EntryKindVipPayment].Abs(),
	}

	balance := w.TotalDeposits.
		Add(w.TotalEarnings).
		Add(w.TotalReferralBonus).
		Sub(w.TotalWithdrawals).
		Sub(w.TotalVipPayments)

	if balance.IsNegative() {
		balance = decimal.Zero
	}
	w.Balance = balance

	return w
}
