package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
)

// a Monday
var monday = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newEarningService(sessions *MockSessionStore, vip *MockVipCatalog, ledger *MockEntryAppender, reconciler *MockReconciler, referrals *MockReferralDistributor, now time.Time) *EarningService {
	svc := NewEarningService(sessions, vip, ledger, reconciler, referrals, noopLocker{}, 3600, 24, testLogger())
	svc.nowFn = func() time.Time { return now }
	return svc
}

func vipLevel(daily float64) *entities.VipLevel {
	return &entities.VipLevel{
		ID:           uuid.New(),
		Name:         "VIP 1",
		Amount:       decimal.NewFromInt(100),
		DailyEarning: decimal.NewFromFloat(daily),
		IsActive:     true,
	}
}

func TestStartEarningWeekendRestricted(t *testing.T) {
	saturday := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)

	for _, day := range []time.Time{saturday, sunday} {
		vip := new(MockVipCatalog)
		svc := newEarningService(new(MockSessionStore), vip, new(MockEntryAppender), new(MockReconciler), new(MockReferralDistributor), day)

		_, err := svc.StartEarning(context.Background(), uuid.New())
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeWeekendRestricted, apperrors.GetErrorCode(err))
		vip.AssertNotCalled(t, "GetActiveLevel", mock.Anything, mock.Anything)
	}
}

func TestStartEarningRequiresVip(t *testing.T) {
	userID := uuid.New()
	vip := new(MockVipCatalog)
	vip.On("GetActiveLevel", mock.Anything, userID).Return(nil, apperrors.NotFoundError("VIP_LEVEL"))

	svc := newEarningService(new(MockSessionStore), vip, new(MockEntryAppender), new(MockReconciler), new(MockReferralDistributor), monday)

	_, err := svc.StartEarning(context.Background(), userID)
	require.Error(t, err)
	// Distinct from the weekend code: the caller can fix this one
	assert.Equal(t, apperrors.CodeVipRequired, apperrors.GetErrorCode(err))
}

func TestStartEarningConflicts(t *testing.T) {
	userID := uuid.New()

	t.Run("active session", func(t *testing.T) {
		started := monday.Add(-30 * time.Minute)
		cooldown := started.Add(24 * time.Hour)
		session := &entities.EarningSession{
			ID: uuid.New(), UserID: userID,
			StartedAt: &started, DurationSeconds: 3600, CooldownUntil: &cooldown,
		}

		vip := new(MockVipCatalog)
		vip.On("GetActiveLevel", mock.Anything, userID).Return(vipLevel(5), nil)
		sessions := new(MockSessionStore)
		sessions.On("GetByUser", mock.Anything, userID).Return(session, nil)

		svc := newEarningService(sessions, vip, new(MockEntryAppender), new(MockReconciler), new(MockReferralDistributor), monday)

		_, err := svc.StartEarning(context.Background(), userID)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeSessionActive, apperrors.GetErrorCode(err))
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("cooldown", func(t *testing.T) {
		started := monday.Add(-2 * time.Hour)
		cooldown := started.Add(24 * time.Hour)
		session := &entities.EarningSession{
			ID: uuid.New(), UserID: userID,
			StartedAt: &started, DurationSeconds: 3600, CooldownUntil: &cooldown,
		}

		vip := new(MockVipCatalog)
		vip.On("GetActiveLevel", mock.Anything, userID).Return(vipLevel(5), nil)
		sessions := new(MockSessionStore)
		sessions.On("GetByUser", mock.Anything, userID).Return(session, nil)

		svc := newEarningService(sessions, vip, new(MockEntryAppender), new(MockReconciler), new(MockReferralDistributor), monday)

		_, err := svc.StartEarning(context.Background(), userID)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeSessionCooldown, apperrors.GetErrorCode(err))
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestStartEarningFirstSession(t *testing.T) {
	userID := uuid.New()
	level := vipLevel(7.5)

	vip := new(MockVipCatalog)
	vip.On("GetActiveLevel", mock.Anything, userID).Return(level, nil)

	sessions := new(MockSessionStore)
	sessions.On("GetByUser", mock.Anything, userID).Return(nil, apperrors.NotFoundError("EARNING_SESSION"))
	sessions.On("Create", mock.Anything, mock.MatchedBy(func(s *entities.EarningSession) bool {
		return s.UserID == userID &&
			s.StartedAt.Equal(monday) &&
			s.DurationSeconds == 3600 &&
			s.CooldownUntil.Equal(monday.Add(24*time.Hour)) &&
			s.VipDailyRate.Equal(level.DailyEarning)
	})).Return(nil)

	ledger := new(MockEntryAppender)
	ledger.On("Append", mock.Anything, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.Kind == entities.EntryKindVipEarnings &&
			e.UserID == userID &&
			e.Amount.Equal(level.DailyEarning) &&
			e.IdempotencyKey == "earn:"+userID.String()+":"+monday.UTC().Format(time.RFC3339)
	})).Return(nil)

	reconciler := new(MockReconciler)
	reconciler.On("Reconcile", mock.Anything, userID).Return(&entities.Wallet{}, nil)

	referrals := new(MockReferralDistributor)
	referrals.On("Distribute", mock.Anything, userID, mock.Anything, level.DailyEarning, entities.EntryKindVipEarnings).
		Return([]entities.ReferralCredit{}, nil)

	svc := newEarningService(sessions, vip, ledger, reconciler, referrals, monday)

	status, err := svc.StartEarning(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, entities.SessionStateActive, status.State)
	assert.Equal(t, int64(3600), status.RemainingSeconds)
	assert.True(t, status.LastEarnings.Equal(level.DailyEarning))

	sessions.AssertExpectations(t)
	ledger.AssertExpectations(t)
	referrals.AssertExpectations(t)
}

func TestStartEarningRestartAfterCycle(t *testing.T) {
	userID := uuid.New()
	level := vipLevel(5)

	prevStart := monday.Add(-25 * time.Hour)
	prevCooldown := prevStart.Add(24 * time.Hour)
	existing := &entities.EarningSession{
		ID: uuid.New(), UserID: userID,
		StartedAt: &prevStart, DurationSeconds: 3600, CooldownUntil: &prevCooldown,
		VipDailyRate: level.DailyEarning, LastEarnings: level.DailyEarning,
	}

	vip := new(MockVipCatalog)
	vip.On("GetActiveLevel", mock.Anything, userID).Return(level, nil)

	sessions := new(MockSessionStore)
	sessions.On("GetByUser", mock.Anything, userID).Return(existing, nil)
	sessions.On("Update", mock.Anything, mock.MatchedBy(func(s *entities.EarningSession) bool {
		return s.ID == existing.ID && s.StartedAt.Equal(monday)
	})).Return(nil)

	ledger := new(MockEntryAppender)
	ledger.On("Append", mock.Anything, mock.Anything).Return(nil)
	reconciler := new(MockReconciler)
	reconciler.On("Reconcile", mock.Anything, userID).Return(&entities.Wallet{}, nil)
	referrals := new(MockReferralDistributor)
	referrals.On("Distribute", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]entities.ReferralCredit{}, nil)

	svc := newEarningService(sessions, vip, ledger, reconciler, referrals, monday)

	status, err := svc.StartEarning(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, entities.SessionStateActive, status.State)
	sessions.AssertExpectations(t)
}

func TestStartEarningDuplicatePayoutTolerated(t *testing.T) {
	userID := uuid.New()
	level := vipLevel(5)

	vip := new(MockVipCatalog)
	vip.On("GetActiveLevel", mock.Anything, userID).Return(level, nil)
	sessions := new(MockSessionStore)
	sessions.On("GetByUser", mock.Anything, userID).Return(nil, apperrors.NotFoundError("EARNING_SESSION"))
	sessions.On("Create", mock.Anything, mock.Anything).Return(nil)

	ledger := new(MockEntryAppender)
	ledger.On("Append", mock.Anything, mock.Anything).Return(apperrors.AlreadyExistsError("LEDGER_ENTRY"))
	reconciler := new(MockReconciler)
	reconciler.On("Reconcile", mock.Anything, userID).Return(&entities.Wallet{}, nil)
	referrals := new(MockReferralDistributor)
	referrals.On("Distribute", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]entities.ReferralCredit{}, nil)

	svc := newEarningService(sessions, vip, ledger, reconciler, referrals, monday)

	_, err := svc.StartEarning(context.Background(), userID)
	require.NoError(t, err)
}

func TestGetStatus(t *testing.T) {
	userID := uuid.New()

	t.Run("no session row is idle", func(t *testing.T) {
		sessions := new(MockSessionStore)
		sessions.On("GetByUser", mock.Anything, userID).Return(nil, apperrors.NotFoundError("EARNING_SESSION"))

		svc := newEarningService(sessions, new(MockVipCatalog), new(MockEntryAppender), new(MockReconciler), new(MockReferralDistributor), monday)

		status, err := svc.GetStatus(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, entities.SessionStateIdle, status.State)
	})

	t.Run("expired window reports cooldown without any writer", func(t *testing.T) {
		started := monday.Add(-2 * time.Hour)
		cooldown := started.Add(24 * time.Hour)
		session := &entities.EarningSession{
			ID: uuid.New(), UserID: userID,
			StartedAt: &started, DurationSeconds: 3600, CooldownUntil: &cooldown,
			LastEarnings: decimal.NewFromInt(5),
		}
		sessions := new(MockSessionStore)
		sessions.On("GetByUser", mock.Anything, userID).Return(session, nil)

		svc := newEarningService(sessions, new(MockVipCatalog), new(MockEntryAppender), new(MockReconciler), new(MockReferralDistributor), monday)

		status, err := svc.GetStatus(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, entities.SessionStateCooldown, status.State)
		assert.Equal(t, int64(22*3600), status.RemainingSeconds)
	})
}
