package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New("debug", "test")
}

// noopLocker hands out locks unconditionally
type noopLocker struct{}

func (noopLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	return func() {}, nil
}

type failingLocker struct {
	err error
}

func (l failingLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	return nil, l.err
}

type MockLedgerSummer struct {
	mock.Mock
}

func (m *MockLedgerSummer) SumByKind(ctx context.Context, userID uuid.UUID) (map[entities.EntryKind]decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[entities.EntryKind]decimal.Decimal), args.Error(1)
}

type MockWalletStore struct {
	mock.Mock
}

func (m *MockWalletStore) Get(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func (m *MockWalletStore) Overwrite(ctx context.Context, wallet *entities.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

type MockEntryAppender struct {
	mock.Mock
}

func (m *MockEntryAppender) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockSettingsSource struct {
	mock.Mock
}

func (m *MockSettingsSource) Load(ctx context.Context) (entities.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(entities.Settings), args.Error(1)
}

type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) Load(ctx context.Context) (entities.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(entities.Settings), args.Error(1)
}

func (m *MockSettingsStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
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

type MockReferralGraph struct {
	mock.Mock
}

func (m *MockReferralGraph) GetReferrer(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uuid.UUID), args.Error(1)
}

type MockReferralDistributor struct {
	mock.Mock
}

func (m *MockReferralDistributor) Distribute(ctx context.Context, userID uuid.UUID, qualifyingEntryID uuid.UUID, qualifyingAmount decimal.Decimal, sourceKind entities.EntryKind) ([]entities.ReferralCredit, error) {
	args := m.Called(ctx, userID, qualifyingEntryID, qualifyingAmount, sourceKind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ReferralCredit), args.Error(1)
}

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) GetByUser(ctx context.Context, userID uuid.UUID) (*entities.EarningSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EarningSession), args.Error(1)
}

func (m *MockSessionStore) Create(ctx context.Context, session *entities.EarningSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) Update(ctx context.Context, session *entities.EarningSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

type MockVipCatalog struct {
	mock.Mock
}

func (m *MockVipCatalog) GetActiveLevel(ctx context.Context, userID uuid.UUID) (*entities.VipLevel, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VipLevel), args.Error(1)
}

type MockTierStore struct {
	mock.Mock
}

func (m *MockTierStore) ListTiers(ctx context.Context) ([]*entities.FeeTier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.FeeTier), args.Error(1)
}

func (m *MockTierStore) CreateTier(ctx context.Context, tier *entities.FeeTier) error {
	args := m.Called(ctx, tier)
	return args.Error(0)
}

func (m *MockTierStore) DeleteTier(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockDepositStore struct {
	mock.Mock
}

func (m *MockDepositStore) Create(ctx context.Context, deposit *entities.Deposit) error {
	args := m.Called(ctx, deposit)
	return args.Error(0)
}

func (m *MockDepositStore) GetByID(ctx context.Context, id uuid.UUID) (*entities.Deposit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Deposit), args.Error(1)
}

func (m *MockDepositStore) Confirm(ctx context.Context, id uuid.UUID, approvedBy *uuid.UUID, autoConfirmed bool, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, id, approvedBy, autoConfirmed, entry)
	return args.Error(0)
}

func (m *MockDepositStore) MarkRejected(ctx context.Context, id uuid.UUID, rejectedBy uuid.UUID, reason string) error {
	args := m.Called(ctx, id, rejectedBy, reason)
	return args.Error(0)
}

func (m *MockDepositStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.Deposit, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Deposit), args.Error(1)
}

func (m *MockDepositStore) ListPending(ctx context.Context, limit, offset int) ([]*entities.Deposit, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Deposit), args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) CheckAllNetworks(ctx context.Context, txHash string) (*entities.VerificationResult, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VerificationResult), args.Error(1)
}

func (m *MockVerifier) CanAutoConfirm(result *entities.VerificationResult, deposit *entities.Deposit, tolerance decimal.Decimal) bool {
	args := m.Called(result, deposit, tolerance)
	return args.Bool(0)
}

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) GetEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyDepositConfirmed(ctx context.Context, email string, amount decimal.Decimal, network entities.Network) error {
	args := m.Called(ctx, email, amount, network)
	return args.Error(0)
}

func (m *MockNotifier) NotifyDepositRejected(ctx context.Context, email string, amount decimal.Decimal, reason string) error {
	args := m.Called(ctx, email, amount, reason)
	return args.Error(0)
}

func (m *MockNotifier) NotifyWithdrawalApproved(ctx context.Context, email string, netAmount decimal.Decimal, address string) error {
	args := m.Called(ctx, email, netAmount, address)
	return args.Error(0)
}

func (m *MockNotifier) NotifyWithdrawalRejected(ctx context.Context, email string, amount decimal.Decimal, reason string) error {
	args := m.Called(ctx, email, amount, reason)
	return args.Error(0)
}

type MockWithdrawalStore struct {
	mock.Mock
}

func (m *MockWithdrawalStore) Create(ctx context.Context, withdrawal *entities.Withdrawal, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, withdrawal, entry)
	return args.Error(0)
}

func (m *MockWithdrawalStore) GetByID(ctx context.Context, id uuid.UUID) (*entities.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalStore) MarkApproved(ctx context.Context, id uuid.UUID, approvedBy uuid.UUID) error {
	args := m.Called(ctx, id, approvedBy)
	return args.Error(0)
}

func (m *MockWithdrawalStore) Reject(ctx context.Context, id uuid.UUID, rejectedBy uuid.UUID, reason string, refundEntry *entities.LedgerEntry) error {
	args := m.Called(ctx, id, rejectedBy, reason, refundEntry)
	return args.Error(0)
}

func (m *MockWithdrawalStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.Withdrawal, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalStore) ListPending(ctx context.Context, limit, offset int) ([]*entities.Withdrawal, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Withdrawal), args.Error(1)
}

type MockFeeResolver struct {
	mock.Mock
}

func (m *MockFeeResolver) ResolveFee(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockAdminDirectory struct {
	mock.Mock
}

func (m *MockAdminDirectory) GetByID(ctx context.Context, id uuid.UUID) (*entities.Admin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Admin), args.Error(1)
}

type MockVipStore struct {
	mock.Mock
}

func (m *MockVipStore) GetActiveLevel(ctx context.Context, userID uuid.UUID) (*entities.VipLevel, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VipLevel), args.Error(1)
}

func (m *MockVipStore) GetLevelByID(ctx context.Context, levelID uuid.UUID) (*entities.VipLevel, error) {
	args := m.Called(ctx, levelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VipLevel), args.Error(1)
}

func (m *MockVipStore) ListActiveLevels(ctx context.Context) ([]*entities.VipLevel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.VipLevel), args.Error(1)
}

func (m *MockVipStore) Purchase(ctx context.Context, userID, levelID uuid.UUID, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, userID, levelID, entry)
	return args.Error(0)
}

type MockEntryLister struct {
	mock.Mock
}

func (m *MockEntryLister) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}
