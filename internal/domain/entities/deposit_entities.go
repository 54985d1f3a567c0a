package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositStatus represents the review state of a submitted deposit
type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "PENDING"
	DepositStatusConfirmed DepositStatus = "CONFIRMED"
	DepositStatusRejected  DepositStatus = "REJECTED"
)

// Validate checks if the deposit status is valid
func (s DepositStatus) Validate() error {
	switch s {
	case DepositStatusPending, DepositStatusConfirmed, DepositStatusRejected:
		return nil
	default:
		return fmt.Errorf("invalid deposit status: %s", s)
	}
}

// Deposit is a user-submitted claim that funds were sent to the platform's
// collection address. It becomes a ledger DEPOSIT entry only on
// confirmation, whether automatic or by an admin.
type Deposit struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Network       Network         `json:"network" db:"network"`
	TxHash        string          `json:"tx_hash" db:"tx_hash"`
	Status        DepositStatus   `json:"status" db:"status"`
	AutoConfirmed bool            `json:"auto_confirmed" db:"auto_confirmed"`
	ApprovedBy    *uuid.UUID      `json:"approved_by,omitempty" db:"approved_by"`
	RejectReason  *string         `json:"reject_reason,omitempty" db:"reject_reason"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Validate validates the deposit
func (d *Deposit) Validate() error {
	if d.ID == uuid.Nil {
		return fmt.Errorf("deposit ID is required")
	}

	if d.UserID == uuid.Nil {
		return fmt.Errorf("user ID is required")
	}

	if !d.Amount.IsPositive() {
		return fmt.Errorf("deposit amount must be positive")
	}

	if err := d.Network.Validate(); err != nil {
		return err
	}

	if d.TxHash == "" {
		return fmt.Errorf("transaction hash is required")
	}

	return d.Status.Validate()
}

// WithdrawalStatus represents the review state of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "PENDING"
	WithdrawalStatusApproved WithdrawalStatus = "APPROVED"
	WithdrawalStatusRejected WithdrawalStatus = "REJECTED"
)

// Validate checks if the withdrawal status is valid
func (s WithdrawalStatus) Validate() error {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusApproved, WithdrawalStatusRejected:
		return nil
	default:
		return fmt.Errorf("invalid withdrawal status: %s", s)
	}
}

// Withdrawal is a payout request. The WITHDRAWAL ledger debit is posted
// when the request is accepted; rejection posts an offsetting credit
// rather than editing the original entry.
type Withdrawal struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	UserID        uuid.UUID        `json:"user_id" db:"user_id"`
	Amount        decimal.Decimal  `json:"amount" db:"amount"`
	FeePercent    decimal.Decimal  `json:"fee_percent" db:"fee_percent"`
	NetAmount     decimal.Decimal  `json:"net_amount" db:"net_amount"`
	Address       string           `json:"address" db:"address"`
	Network       Network          `json:"network" db:"network"`
	Status        WithdrawalStatus `json:"status" db:"status"`
	LedgerEntryID uuid.UUID        `json:"ledger_entry_id" db:"ledger_entry_id"`
	ApprovedBy    *uuid.UUID       `json:"approved_by,omitempty" db:"approved_by"`
	RejectReason  *string          `json:"reject_reason,omitempty" db:"reject_reason"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// Admin is a reviewer account able to approve deposits and withdrawals.
// Withdrawal approval additionally requires the admin's TOTP code.
type Admin struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Email      string    `json:"email" db:"email"`
	TotpSecret string    `json:"-" db:"totp_secret"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
