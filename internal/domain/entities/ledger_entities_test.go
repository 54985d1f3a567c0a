package entities

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEntry() *LedgerEntry {
	return &LedgerEntry{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Kind:           EntryKindDeposit,
		Amount:         decimal.NewFromInt(100),
		Currency:       Currency,
		IdempotencyKey: "dep:test",
	}
}

func TestLedgerEntryValidate(t *testing.T) {
	t.Run("valid credit entry", func(t *testing.T) {
		require.NoError(t, validEntry().Validate())
	})

	t.Run("debit kinds must be negative", func(t *testing.T) {
		entry := validEntry()
		entry.Kind = EntryKindWithdrawal
		entry.Amount = decimal.NewFromInt(50)
		assert.Error(t, entry.Validate())

		entry.Amount = decimal.NewFromInt(-50)
		assert.NoError(t, entry.Validate())
	})

	t.Run("vip payment must be negative", func(t *testing.T) {
		entry := validEntry()
		entry.Kind = EntryKindVipPayment
		entry.Amount = decimal.NewFromInt(30)
		assert.Error(t, entry.Validate())

		entry.Amount = decimal.NewFromInt(-30)
		assert.NoError(t, entry.Validate())
	})

	t.Run("credit kinds must be positive", func(t *testing.T) {
		entry := validEntry()
		entry.Amount = decimal.NewFromInt(-100)
		assert.Error(t, entry.Validate())
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		entry := validEntry()
		entry.Amount = decimal.Zero
		assert.Error(t, entry.Validate())
	})

	t.Run("missing idempotency key rejected", func(t *testing.T) {
		entry := validEntry()
		entry.IdempotencyKey = ""
		assert.Error(t, entry.Validate())
	})

	t.Run("wrong currency rejected", func(t *testing.T) {
		entry := validEntry()
		entry.Currency = "USDC"
		assert.Error(t, entry.Validate())
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		entry := validEntry()
		entry.Kind = EntryKind("BONUS")
		assert.Error(t, entry.Validate())
	})
}

func TestEntryKindIsDebit(t *testing.T) {
	assert.True(t, EntryKindWithdrawal.IsDebit())
	assert.True(t, EntryKindVipPayment.IsDebit())
	assert.False(t, EntryKindDeposit.IsDebit())
	assert.False(t, EntryKindVipEarnings.IsDebit())
	assert.False(t, EntryKindReferralBonus.IsDebit())
	assert.False(t, EntryKindTaskReward.IsDebit())
}

func TestComputeWallet(t *testing.T) {
	userID := uuid.New()

	t.Run("totals and balance from signed sums", func(t *testing.T) {
		wallet := ComputeWallet(userID, map[EntryKind]decimal.Decimal{
			EntryKindDeposit:       decimal.NewFromInt(500),
			EntryKindVipEarnings:   decimal.NewFromInt(40),
			EntryKindTaskReward:    decimal.NewFromInt(10),
			EntryKindReferralBonus: decimal.NewFromInt(25),
			EntryKindWithdrawal:    decimal.NewFromInt(-120),
			EntryKindVipPayment:    decimal.NewFromInt(-200),
		})

		assert.Equal(t, userID, wallet.UserID)
		assert.True(t, wallet.TotalDeposits.Equal(decimal.NewFromInt(500)))
		assert.True(t, wallet.TotalEarnings.Equal(decimal.NewFromInt(50)))
		assert.True(t, wallet.TotalReferralBonus.Equal(decimal.NewFromInt(25)))
		assert.True(t, wallet.TotalWithdrawals.Equal(decimal.NewFromInt(120)))
		assert.True(t, wallet.TotalVipPayments.Equal(decimal.NewFromInt(200)))
		// 500 + 50 + 25 - 120 - 200
		assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(255)))
	})

	t.Run("empty ledger yields zero wallet", func(t *testing.T) {
		wallet := ComputeWallet(userID, map[EntryKind]decimal.Decimal{})
		assert.True(t, wallet.Balance.IsZero())
		assert.True(t, wallet.TotalDeposits.IsZero())
		assert.True(t, wallet.TotalWithdrawals.IsZero())
	})

	t.Run("balance clamps at zero", func(t *testing.T) {
		wallet := ComputeWallet(userID, map[EntryKind]decimal.Decimal{
			EntryKindDeposit:    decimal.NewFromInt(100),
			EntryKindWithdrawal: decimal.NewFromInt(-150),
		})
		assert.True(t, wallet.Balance.IsZero())
		assert.True(t, wallet.TotalWithdrawals.Equal(decimal.NewFromInt(150)))
	})

	t.Run("recompute is idempotent", func(t *testing.T) {
		sums := map[EntryKind]decimal.Decimal{
			EntryKindDeposit:    decimal.NewFromFloat(123.45),
			EntryKindVipPayment: decimal.NewFromFloat(-23.45),
		}
		first := ComputeWallet(userID, sums)
		second := ComputeWallet(userID, sums)
		assert.True(t, first.Balance.Equal(second.Balance))
		assert.True(t, first.TotalVipPayments.Equal(second.TotalVipPayments))
	})
}
