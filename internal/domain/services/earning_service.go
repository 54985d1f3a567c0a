package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/cache"
	"github.com/tmb8080/nova-sub001/pkg/logger"
	"github.com/tmb8080/nova-sub001/pkg/metrics"
	"github.com/tmb8080/nova-sub001/pkg/tracing"
)

// SessionStore persists the per-user earning session row
type SessionStore interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*entities.EarningSession, error)
	Create(ctx context.Context, session *entities.EarningSession) error
	Update(ctx context.Context, session *entities.EarningSession) error
}

// VipCatalog reads the user's active VIP level
type VipCatalog interface {
	GetActiveLevel(ctx context.Context, userID uuid.UUID) (*entities.VipLevel, error)
}

// ReferralDistributor fans out referral bonuses for a qualifying entry
type ReferralDistributor interface {
	Distribute(ctx context.Context, userID uuid.UUID, qualifyingEntryID uuid.UUID, qualifyingAmount decimal.Decimal, sourceKind entities.EntryKind) ([]entities.ReferralCredit, error)
}

// EarningService runs the per-user daily earning session machine. All
// transitions are derived lazily from stored timestamps, so the machine
// is consistent no matter how often it is read.
type EarningService struct {
	sessions   SessionStore
	vip        VipCatalog
	ledger     EntryAppender
	reconciler Reconciler
	referrals  ReferralDistributor
	locker     cache.Locker
	logger     *logger.Logger

	durationSeconds int
	cycle           time.Duration

	// nowFn is swapped in tests to pin the clock
	nowFn func() time.Time
}

// NewEarningService creates a new earning service
func NewEarningService(sessions SessionStore, vip VipCatalog, ledger EntryAppender, reconciler Reconciler, referrals ReferralDistributor, locker cache.Locker, durationSeconds, cycleHours int, logger *logger.Logger) *EarningService {
	return &EarningService{
		sessions:        sessions,
		vip:             vip,
		ledger:          ledger,
		reconciler:      reconciler,
		referrals:       referrals,
		locker:          locker,
		logger:          logger,
		durationSeconds: durationSeconds,
		cycle:           time.Duration(cycleHours) * time.Hour,
		nowFn:           time.Now,
	}
}

const startLockTTL = 10 * time.Second

// StartEarning transitions the user's session IDLE -> ACTIVE and posts
// the VIP_EARNINGS payout immediately. The payout is granted at session
// start, not completion; the product communicates this to the user.
func (s *EarningService) StartEarning(ctx context.Context, userID uuid.UUID) (*entities.EarningStatus, error) {
	ctx, span := tracing.GetTracer("services.earning").Start(ctx, "EarningService.StartEarning")
	defer span.End()

	now := s.nowFn()

	if weekday := now.Weekday(); weekday == time.Saturday || weekday == time.Sunday {
		metrics.SessionStartsTotal.WithLabelValues("weekend").Inc()
		return nil, apperrors.ValidationError(apperrors.CodeWeekendRestricted,
			"earning sessions can only be started Monday through Friday")
	}

	level, err := s.vip.GetActiveLevel(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			metrics.SessionStartsTotal.WithLabelValues("no_vip").Inc()
			return nil, apperrors.ValidationError(apperrors.CodeVipRequired,
				"an active VIP level is required to start earning")
		}
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, fmt.Sprintf("earning:%s", userID), startLockTTL)
	if err != nil {
		metrics.SessionStartsTotal.WithLabelValues("lock_failed").Inc()
		return nil, apperrors.ServiceUnavailableError("earning lock", err)
	}
	defer release()

	session, err := s.sessions.GetByUser(ctx, userID)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	if session != nil {
		switch session.StateAt(now) {
		case entities.SessionStateActive:
			metrics.SessionStartsTotal.WithLabelValues("already_active").Inc()
			return nil, apperrors.ConflictError(apperrors.CodeSessionActive,
				"an earning session is already active")
		case entities.SessionStateCooldown:
			metrics.SessionStartsTotal.WithLabelValues("cooldown").Inc()
			return nil, apperrors.ConflictError(apperrors.CodeSessionCooldown,
				"the previous earning session is still in cooldown")
		}
	}

	startedAt := now
	cooldownUntil := startedAt.Add(s.cycle)

	if session == nil {
		session = &entities.EarningSession{
			ID:              uuid.New(),
			UserID:          userID,
			StartedAt:       &startedAt,
			DurationSeconds: s.durationSeconds,
			VipDailyRate:    level.DailyEarning,
			LastEarnings:    level.DailyEarning,
			CooldownUntil:   &cooldownUntil,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.sessions.Create(ctx, session); err != nil {
			return nil, err
		}
	} else {
		session.StartedAt = &startedAt
		session.DurationSeconds = s.durationSeconds
		session.VipDailyRate = level.DailyEarning
		session.LastEarnings = level.DailyEarning
		session.CooldownUntil = &cooldownUntil
		if err := s.sessions.Update(ctx, session); err != nil {
			return nil, err
		}
	}

	entry := &entities.LedgerEntry{
		ID:             uuid.New(),
		UserID:         userID,
		Kind:           entities.EntryKindVipEarnings,
		Amount:         level.DailyEarning,
		Currency:       entities.Currency,
		IdempotencyKey: fmt.Sprintf("earn:%s:%s", userID, startedAt.UTC().Format(time.RFC3339)),
		CreatedAt:      now,
	}
	if err := s.ledger.Append(ctx, entry); err != nil && !apperrors.IsAlreadyExists(err) {
		return nil, fmt.Errorf("post earning payout: %w", err)
	}

	if _, err := s.reconciler.Reconcile(ctx, userID); err != nil {
		s.logger.Warn("earning reconcile deferred", "error", err, "user_id", userID.String())
	}

	if _, err := s.referrals.Distribute(ctx, userID, entry.ID, level.DailyEarning, entities.EntryKindVipEarnings); err != nil {
		s.logger.Warn("referral distribution failed for earning payout",
			"error", err, "user_id", userID.String())
	}

	metrics.SessionStartsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("earning session started",
		"user_id", userID.String(),
		"daily_earning", level.DailyEarning.String())

	return session.StatusAt(now), nil
}

// GetStatus returns the session status at the current instant. The state
// is derived from the stored timestamps, so expired windows report
// COOLDOWN or IDLE without any background job having run.
func (s *EarningService) GetStatus(ctx context.Context, userID uuid.UUID) (*entities.EarningStatus, error) {
	now := s.nowFn()

	session, err := s.sessions.GetByUser(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return &entities.EarningStatus{State: entities.SessionStateIdle}, nil
		}
		return nil, err
	}

	return session.StatusAt(now), nil
}
