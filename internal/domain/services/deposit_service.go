package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/adapters"
	"github.com/tmb8080/nova-sub001/pkg/logger"
	"github.com/tmb8080/nova-sub001/pkg/metrics"
	"github.com/tmb8080/nova-sub001/pkg/tracing"
)

// DepositStore persists deposits and confirms them atomically with their
// ledger entry
type DepositStore interface {
	Create(ctx context.Context, deposit *entities.Deposit) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Deposit, error)
	Confirm(ctx context.Context, id uuid.UUID, approvedBy *uuid.UUID, autoConfirmed bool, entry *entities.LedgerEntry) error
	MarkRejected(ctx context.Context, id uuid.UUID, rejectedBy uuid.UUID, reason string) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.Deposit, error)
	ListPending(ctx context.Context, limit, offset int) ([]*entities.Deposit, error)
}

// Verifier checks a hash across networks and judges auto-confirm eligibility
type Verifier interface {
	CheckAllNetworks(ctx context.Context, txHash string) (*entities.VerificationResult, error)
	CanAutoConfirm(result *entities.VerificationResult, deposit *entities.Deposit, tolerance decimal.Decimal) bool
}

// UserDirectory resolves notification addresses
type UserDirectory interface {
	GetEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

// DepositService owns the deposit review flow: submission, cross-network
// verification, auto-confirmation, and the manual admin path. Automatic
// and manual confirmation share the same ApproveDeposit path.
type DepositService struct {
	deposits   DepositStore
	verifier   Verifier
	settings   SettingsSource
	reconciler Reconciler
	referrals  ReferralDistributor
	users      UserDirectory
	notifier   adapters.Notifier
	logger     *logger.Logger
}

// NewDepositService creates a new deposit service
func NewDepositService(deposits DepositStore, verifier Verifier, settings SettingsSource, reconciler Reconciler, referrals ReferralDistributor, users UserDirectory, notifier adapters.Notifier, logger *logger.Logger) *DepositService {
	return &DepositService{
		deposits:   deposits,
		verifier:   verifier,
		settings:   settings,
		reconciler: reconciler,
		referrals:  referrals,
		users:      users,
		notifier:   notifier,
		logger:     logger,
	}
}

// SubmitDeposit records a pending deposit claim, runs the cross-network
// verifier, and auto-confirms when the on-chain transfer matches. A
// non-matching or unverifiable claim stays pending for admin review,
// never silently rejected.
func (s *DepositService) SubmitDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, network entities.Network, txHash string) (*entities.Deposit, *entities.VerificationResult, error) {
	ctx, span := tracing.GetTracer("services.deposit").Start(ctx, "DepositService.SubmitDeposit")
	defer span.End()

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}
	if !settings.DepositsEnabled {
		return nil, nil, apperrors.ValidationError(apperrors.CodeDepositsDisabled,
			"deposits are currently disabled")
	}
	if amount.LessThan(settings.MinDeposit) {
		return nil, nil, apperrors.ValidationError(apperrors.CodeAmountBelowMinimum,
			fmt.Sprintf("minimum deposit is %s %s", settings.MinDeposit.StringFixed(2), entities.Currency))
	}

	now := time.Now().UTC()
	deposit := &entities.Deposit{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Network:   network,
		TxHash:    txHash,
		Status:    entities.DepositStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.deposits.Create(ctx, deposit); err != nil {
		return nil, nil, err
	}

	result, err := s.verifier.CheckAllNetworks(ctx, txHash)
	if err != nil {
		// Verification problems leave the deposit for manual review
		s.logger.Warn("verification failed, deposit left pending",
			"error", err, "deposit_id", deposit.ID.String())
		return deposit, nil, nil
	}

	if s.verifier.CanAutoConfirm(result, deposit, settings.AutoConfirmTolerance) {
		if err := s.ApproveDeposit(ctx, deposit.ID, nil, true); err != nil {
			s.logger.Warn("auto-confirm failed, deposit left pending",
				"error", err, "deposit_id", deposit.ID.String())
			return deposit, result, nil
		}
		confirmed, err := s.deposits.GetByID(ctx, deposit.ID)
		if err == nil {
			deposit = confirmed
		}
	}

	return deposit, result, nil
}

// ApproveDeposit confirms a pending deposit: posts the DEPOSIT ledger
// entry atomically with the status change, reconciles the wallet, fans
// out referral bonuses, and notifies the user. approvedBy is nil on the
// auto-confirm path.
func (s *DepositService) ApproveDeposit(ctx context.Context, depositID uuid.UUID, approvedBy *uuid.UUID, autoConfirmed bool) error {
	deposit, err := s.deposits.GetByID(ctx, depositID)
	if err != nil {
		return err
	}

	network := string(deposit.Network)
	txHash := deposit.TxHash
	entry := &entities.LedgerEntry{
		ID:             uuid.New(),
		UserID:         deposit.UserID,
		Kind:           entities.EntryKindDeposit,
		Amount:         deposit.Amount,
		Currency:       entities.Currency,
		IdempotencyKey: fmt.Sprintf("dep:%s", deposit.ID),
		Metadata: &entities.EntryMetadata{
			Network: &network,
			TxHash:  &txHash,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.deposits.Confirm(ctx, depositID, approvedBy, autoConfirmed, entry); err != nil {
		metrics.DepositDecisionsTotal.WithLabelValues("approve_failed").Inc()
		return err
	}

	if autoConfirmed {
		metrics.DepositDecisionsTotal.WithLabelValues("auto_confirmed").Inc()
	} else {
		metrics.DepositDecisionsTotal.WithLabelValues("approved").Inc()
	}

	if _, err := s.reconciler.Reconcile(ctx, deposit.UserID); err != nil {
		s.logger.Warn("deposit reconcile deferred", "error", err, "user_id", deposit.UserID.String())
	}

	if _, err := s.referrals.Distribute(ctx, deposit.UserID, entry.ID, deposit.Amount, entities.EntryKindDeposit); err != nil {
		s.logger.Warn("referral distribution failed for deposit",
			"error", err, "deposit_id", deposit.ID.String())
	}

	s.notifyConfirmed(ctx, deposit)

	s.logger.Info("deposit confirmed",
		"deposit_id", deposit.ID.String(),
		"user_id", deposit.UserID.String(),
		"amount", deposit.Amount.String(),
		"auto_confirmed", autoConfirmed)
	return nil
}

// RejectDeposit records a rejection with its reason. No ledger entry was
// ever posted for a pending deposit, so there is nothing to offset.
func (s *DepositService) RejectDeposit(ctx context.Context, depositID, rejectedBy uuid.UUID, reason string) error {
	deposit, err := s.deposits.GetByID(ctx, depositID)
	if err != nil {
		return err
	}

	if err := s.deposits.MarkRejected(ctx, depositID, rejectedBy, reason); err != nil {
		return err
	}
	metrics.DepositDecisionsTotal.WithLabelValues("rejected").Inc()

	if email, err := s.users.GetEmail(ctx, deposit.UserID); err == nil {
		if err := s.notifier.NotifyDepositRejected(ctx, email, deposit.Amount, reason); err != nil {
			s.logger.Warn("deposit rejection email failed", "error", err)
		}
	}
	return nil
}

// ListDeposits returns a user's deposit history
func (s *DepositService) ListDeposits(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.Deposit, error) {
	return s.deposits.ListByUser(ctx, userID, limit, offset)
}

// ListPendingDeposits returns the admin review queue
func (s *DepositService) ListPendingDeposits(ctx context.Context, limit, offset int) ([]*entities.Deposit, error) {
	return s.deposits.ListPending(ctx, limit, offset)
}

func (s *DepositService) notifyConfirmed(ctx context.Context, deposit *entities.Deposit) {
	email, err := s.users.GetEmail(ctx, deposit.UserID)
	if err != nil {
		return
	}
	if err := s.notifier.NotifyDepositConfirmed(ctx, email, deposit.Amount, deposit.Network); err != nil {
		s.logger.Warn("deposit confirmation email failed", "error", err)
	}
}
