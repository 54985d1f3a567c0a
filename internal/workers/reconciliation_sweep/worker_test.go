package reconciliationsweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

type MockActivitySource struct {
	mock.Mock
}

func (m *MockActivitySource) UsersWithEntriesSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockWalletReader struct {
	mock.Mock
}

func (m *MockWalletReader) Get(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func TestSweepReconcilesActiveUsers(t *testing.T) {
	steady := uuid.New()
	drifted := uuid.New()
	fresh := uuid.New()

	activity := new(MockActivitySource)
	activity.On("UsersWithEntriesSince", mock.Anything, mock.Anything).
		Return([]uuid.UUID{steady, drifted, fresh}, nil)

	wallets := new(MockWalletReader)
	wallets.On("Get", mock.Anything, steady).Return(&entities.Wallet{
		UserID: steady, Balance: decimal.NewFromInt(100),
	}, nil)
	wallets.On("Get", mock.Anything, drifted).Return(&entities.Wallet{
		UserID: drifted, Balance: decimal.NewFromInt(80),
	}, nil)
	wallets.On("Get", mock.Anything, fresh).Return(nil, apperrors.NotFoundError("WALLET"))

	reconciler := new(MockReconciler)
	reconciler.On("Reconcile", mock.Anything, steady).Return(&entities.Wallet{
		UserID: steady, Balance: decimal.NewFromInt(100),
	}, nil)
	reconciler.On("Reconcile", mock.Anything, drifted).Return(&entities.Wallet{
		UserID: drifted, Balance: decimal.NewFromInt(95),
	}, nil)
	reconciler.On("Reconcile", mock.Anything, fresh).Return(&entities.Wallet{
		UserID: fresh, Balance: decimal.Zero,
	}, nil)

	w := New(activity, wallets, reconciler, "@hourly", logger.New("debug", "test"))
	w.Sweep(context.Background())

	reconciler.AssertNumberOfCalls(t, "Reconcile", 3)
}

func TestSweepAdvancesWatermark(t *testing.T) {
	activity := new(MockActivitySource)
	var firstSince, secondSince time.Time
	activity.On("UsersWithEntriesSince", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			if firstSince.IsZero() {
				firstSince = args.Get(1).(time.Time)
			} else {
				secondSince = args.Get(1).(time.Time)
			}
		}).
		Return([]uuid.UUID{}, nil)

	w := New(activity, new(MockWalletReader), new(MockReconciler), "@hourly", logger.New("debug", "test"))
	w.Sweep(context.Background())
	w.Sweep(context.Background())

	assert.True(t, secondSince.After(firstSince) || secondSince.Equal(firstSince))
	assert.False(t, secondSince.IsZero())
}

func TestSweepSkipsFailingUser(t *testing.T) {
	broken := uuid.New()
	healthy := uuid.New()

	activity := new(MockActivitySource)
	activity.On("UsersWithEntriesSince", mock.Anything, mock.Anything).
		Return([]uuid.UUID{broken, healthy}, nil)

	wallets := new(MockWalletReader)
	wallets.On("Get", mock.Anything, broken).Return(nil, apperrors.NotFoundError("WALLET"))
	wallets.On("Get", mock.Anything, healthy).Return(&entities.Wallet{
		UserID: healthy, Balance: decimal.NewFromInt(10),
	}, nil)

	reconciler := new(MockReconciler)
	reconciler.On("Reconcile", mock.Anything, broken).Return(nil, errors.New("ledger down"))
	reconciler.On("Reconcile", mock.Anything, healthy).Return(&entities.Wallet{
		UserID: healthy, Balance: decimal.NewFromInt(10),
	}, nil)

	w := New(activity, wallets, reconciler, "@hourly", logger.New("debug", "test"))
	w.Sweep(context.Background())

	// One user failing never stops the sweep
	reconciler.AssertCalled(t, "Reconcile", mock.Anything, healthy)
}

func TestSweepAbortsWhenActivityQueryFails(t *testing.T) {
	activity := new(MockActivitySource)
	activity.On("UsersWithEntriesSince", mock.Anything, mock.Anything).
		Return(nil, errors.New("timeout"))

	reconciler := new(MockReconciler)
	w := New(activity, new(MockWalletReader), reconciler, "@hourly", logger.New("debug", "test"))
	w.Sweep(context.Background())

	reconciler.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
}
