package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
)

func TestPurchaseVip(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	level := &entities.VipLevel{
		ID:           uuid.New(),
		Name:         "VIP 2",
		Amount:       decimal.NewFromInt(200),
		DailyEarning: decimal.NewFromInt(9),
		IsActive:     true,
	}

	t.Run("debits level amount and assigns level", func(t *testing.T) {
		store := new(MockVipStore)
		wallets := new(MockReconciler)
		store.On("GetLevelByID", mock.Anything, level.ID).Return(level, nil)
		wallets.On("Reconcile", mock.Anything, userID).Return(&entities.Wallet{
			UserID: userID, Balance: decimal.NewFromInt(500),
		}, nil)
		store.On("Purchase", mock.Anything, userID, level.ID, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
			return e.Kind == entities.EntryKindVipPayment &&
				e.Amount.Equal(decimal.NewFromInt(-200))
		})).Return(nil)

		svc := NewVipService(store, wallets, testLogger())

		bought, err := svc.PurchaseVip(ctx, userID, level.ID)
		require.NoError(t, err)
		assert.Equal(t, level, bought)
		store.AssertExpectations(t)
		wallets.AssertNumberOfCalls(t, "Reconcile", 2)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		store := new(MockVipStore)
		wallets := new(MockReconciler)
		store.On("GetLevelByID", mock.Anything, level.ID).Return(level, nil)
		wallets.On("Reconcile", mock.Anything, userID).Return(&entities.Wallet{
			UserID: userID, Balance: decimal.NewFromInt(150),
		}, nil)

		svc := NewVipService(store, wallets, testLogger())

		_, err := svc.PurchaseVip(ctx, userID, level.ID)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeInsufficientBalance, apperrors.GetErrorCode(err))
		store.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("inactive level", func(t *testing.T) {
		retired := &entities.VipLevel{ID: uuid.New(), Name: "Legacy", Amount: decimal.NewFromInt(50)}
		store := new(MockVipStore)
		wallets := new(MockReconciler)
		store.On("GetLevelByID", mock.Anything, retired.ID).Return(retired, nil)

		svc := NewVipService(store, wallets, testLogger())

		_, err := svc.PurchaseVip(ctx, userID, retired.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsInvalidInput(err))
		wallets.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
	})
}
