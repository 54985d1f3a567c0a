package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
)

func depositFixtures() (*MockDepositStore, *MockVerifier, *MockSettingsSource, *MockReconciler, *MockReferralDistributor, *MockUserDirectory, *MockNotifier) {
	return new(MockDepositStore), new(MockVerifier), new(MockSettingsSource),
		new(MockReconciler), new(MockReferralDistributor), new(MockUserDirectory), new(MockNotifier)
}

func TestSubmitDepositGuards(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("deposits disabled", func(t *testing.T) {
		deposits, verifier, settings, reconciler, referrals, users, notifier := depositFixtures()
		disabled := entities.DefaultSettings()
		disabled.DepositsEnabled = false
		settings.On("Load", mock.Anything).Return(disabled, nil)

		svc := NewDepositService(deposits, verifier, settings, reconciler, referrals, users, notifier, testLogger())

		_, _, err := svc.SubmitDeposit(ctx, userID, decimal.NewFromInt(100), entities.NetworkBEP20, "0xabc")
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeDepositsDisabled, apperrors.GetErrorCode(err))
		deposits.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("below minimum", func(t *testing.T) {
		deposits, verifier, settings, reconciler, referrals, users, notifier := depositFixtures()
		settings.On("Load", mock.Anything).Return(entities.DefaultSettings(), nil)

		svc := NewDepositService(deposits, verifier, settings, reconciler, referrals, users, notifier, testLogger())

		_, _, err := svc.SubmitDeposit(ctx, userID, decimal.NewFromInt(5), entities.NetworkBEP20, "0xabc")
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeAmountBelowMinimum, apperrors.GetErrorCode(err))
	})
}

func TestSubmitDepositStaysPendingWithoutMatch(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	deposits, verifier, settings, reconciler, referrals, users, notifier := depositFixtures()
	settings.On("Load", mock.Anything).Return(entities.DefaultSettings(), nil)
	deposits.On("Create", mock.Anything, mock.MatchedBy(func(d *entities.Deposit) bool {
		return d.Status == entities.DepositStatusPending && d.UserID == userID
	})).Return(nil)

	result := &entities.VerificationResult{TxHash: "0xabc"}
	verifier.On("CheckAllNetworks", mock.Anything, "0xabc").Return(result, nil)
	verifier.On("CanAutoConfirm", result, mock.Anything, mock.Anything).Return(false)

	svc := NewDepositService(deposits, verifier, settings, reconciler, referrals, users, notifier, testLogger())

	deposit, verification, err := svc.SubmitDeposit(ctx, userID, decimal.NewFromInt(100), entities.NetworkBEP20, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, entities.DepositStatusPending, deposit.Status)
	assert.Equal(t, result, verification)
	deposits.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitDepositAutoConfirms(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	deposits, verifier, settings, reconciler, referrals, users, notifier := depositFixtures()
	settings.On("Load", mock.Anything).Return(entities.DefaultSettings(), nil)

	var createdID uuid.UUID
	deposits.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		createdID = args.Get(1).(*entities.Deposit).ID
	}).Return(nil)

	result := &entities.VerificationResult{TxHash: "0xabc", Found: true, FoundOnNetwork: entities.NetworkBEP20}
	verifier.On("CheckAllNetworks", mock.Anything, "0xabc").Return(result, nil)
	verifier.On("CanAutoConfirm", result, mock.Anything, mock.Anything).Return(true)

	deposits.On("GetByID", mock.Anything, mock.Anything).Return(&entities.Deposit{
		ID: uuid.New(), UserID: userID,
		Amount:  decimal.NewFromInt(100),
		Network: entities.NetworkBEP20, TxHash: "0xabc",
		Status: entities.DepositStatusPending,
	}, nil).Once()
	// approvedBy stays nil on the automatic path
	deposits.On("Confirm", mock.Anything, mock.Anything, (*uuid.UUID)(nil), true, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.Kind == entities.EntryKindDeposit && e.Amount.Equal(decimal.NewFromInt(100))
	})).Return(nil)
	deposits.On("GetByID", mock.Anything, mock.Anything).Return(&entities.Deposit{
		ID: createdID, UserID: userID,
		Amount: decimal.NewFromInt(100),
		Status: entities.DepositStatusConfirmed, AutoConfirmed: true,
	}, nil)

	reconciler.On("Reconcile", mock.Anything, userID).Return(&entities.Wallet{}, nil)
	referrals.On("Distribute", mock.Anything, userID, mock.Anything, mock.Anything, entities.EntryKindDeposit).
		Return([]entities.ReferralCredit{}, nil)
	users.On("GetEmail", mock.Anything, userID).Return("user@example.com", nil)
	notifier.On("NotifyDepositConfirmed", mock.Anything, "user@example.com", mock.Anything, mock.Anything).Return(nil)

	svc := NewDepositService(deposits, verifier, settings, reconciler, referrals, users, notifier, testLogger())

	deposit, _, err := svc.SubmitDeposit(ctx, userID, decimal.NewFromInt(100), entities.NetworkBEP20, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, entities.DepositStatusConfirmed, deposit.Status)
	assert.True(t, deposit.AutoConfirmed)
	deposits.AssertExpectations(t)
	referrals.AssertExpectations(t)
}

func TestSubmitDepositVerifierFailureLeavesPending(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	deposits, verifier, settings, reconciler, referrals, users, notifier := depositFixtures()
	settings.On("Load", mock.Anything).Return(entities.DefaultSettings(), nil)
	deposits.On("Create", mock.Anything, mock.Anything).Return(nil)
	verifier.On("CheckAllNetworks", mock.Anything, "0xabc").Return(nil, errors.New("all upstreams down"))

	svc := NewDepositService(deposits, verifier, settings, reconciler, referrals, users, notifier, testLogger())

	deposit, verification, err := svc.SubmitDeposit(ctx, userID, decimal.NewFromInt(100), entities.NetworkBEP20, "0xabc")
	require.NoError(t, err)
	assert.Nil(t, verification)
	assert.Equal(t, entities.DepositStatusPending, deposit.Status)
}

func TestApproveDepositManually(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	adminID := uuid.New()
	depositID := uuid.New()

	deposits, verifier, settings, reconciler, referrals, users, notifier := depositFixtures()
	deposits.On("GetByID", mock.Anything, depositID).Return(&entities.Deposit{
		ID: depositID, UserID: userID,
		Amount:  decimal.NewFromInt(75),
		Network: entities.NetworkTRC20, TxHash: "txhash",
		Status: entities.DepositStatusPending,
	}, nil)
	deposits.On("Confirm", mock.Anything, depositID, &adminID, false, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.IdempotencyKey == "dep:"+depositID.String() &&
			e.Metadata != nil && *e.Metadata.TxHash == "txhash"
	})).Return(nil)
	reconciler.On("Reconcile", mock.Anything, userID).Return(&entities.Wallet{}, nil)
	referrals.On("Distribute", mock.Anything, userID, mock.Anything, decimal.NewFromInt(75), entities.EntryKindDeposit).
		Return([]entities.ReferralCredit{}, nil)
	users.On("GetEmail", mock.Anything, userID).Return("user@example.com", nil)
	notifier.On("NotifyDepositConfirmed", mock.Anything, "user@example.com", mock.Anything, entities.NetworkTRC20).Return(nil)

	svc := NewDepositService(deposits, verifier, settings, reconciler, referrals, users, notifier, testLogger())

	require.NoError(t, svc.ApproveDeposit(ctx, depositID, &adminID, false))
	deposits.AssertExpectations(t)
}

func TestApproveDepositNotPending(t *testing.T) {
	ctx := context.Background()
	depositID := uuid.New()

	deposits, verifier, settings, reconciler, referrals, users, notifier := depositFixtures()
	deposits.On("GetByID", mock.Anything, depositID).Return(&entities.Deposit{
		ID: depositID, UserID: uuid.New(),
		Amount: decimal.NewFromInt(75),
		Status: entities.DepositStatusConfirmed,
	}, nil)
	deposits.On("Confirm", mock.Anything, depositID, mock.Anything, mock.Anything, mock.Anything).
		Return(apperrors.ConflictError(apperrors.CodeDepositNotPending, "deposit is not pending"))

	svc := NewDepositService(deposits, verifier, settings, reconciler, referrals, users, notifier, testLogger())

	err := svc.ApproveDeposit(ctx, depositID, nil, false)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDepositNotPending, apperrors.GetErrorCode(err))
	reconciler.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
}

func TestRejectDeposit(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	adminID := uuid.New()
	depositID := uuid.New()

	deposits, verifier, settings, reconciler, referrals, users, notifier := depositFixtures()
	deposits.On("GetByID", mock.Anything, depositID).Return(&entities.Deposit{
		ID: depositID, UserID: userID,
		Amount: decimal.NewFromInt(75),
		Status: entities.DepositStatusPending,
	}, nil)
	deposits.On("MarkRejected", mock.Anything, depositID, adminID, "hash not found").Return(nil)
	users.On("GetEmail", mock.Anything, userID).Return("user@example.com", nil)
	notifier.On("NotifyDepositRejected", mock.Anything, "user@example.com", mock.Anything, "hash not found").Return(nil)

	svc := NewDepositService(deposits, verifier, settings, reconciler, referrals, users, notifier, testLogger())

	require.NoError(t, svc.RejectDeposit(ctx, depositID, adminID, "hash not found"))
	// Rejection posts no ledger entry; there is nothing to offset
	reconciler.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
	notifier.AssertExpectations(t)
}
