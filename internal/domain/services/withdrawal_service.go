package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/shopspring/decimal"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/adapters"
	"github.com/tmb8080/nova-sub001/pkg/logger"
	"github.com/tmb8080/nova-sub001/pkg/tracing"
)

// WithdrawalStore persists withdrawal requests atomically with their
// ledger entries
type WithdrawalStore interface {
	Create(ctx context.Context, withdrawal *entities.Withdrawal, entry *entities.LedgerEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Withdrawal, error)
	MarkApproved(ctx context.Context, id uuid.UUID, approvedBy uuid.UUID) error
	Reject(ctx context.Context, id uuid.UUID, rejectedBy uuid.UUID, reason string, refundEntry *entities.LedgerEntry) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.Withdrawal, error)
	ListPending(ctx context.Context, limit, offset int) ([]*entities.Withdrawal, error)
}

// FeeResolver maps a withdrawal amount to its fee percent
type FeeResolver interface {
	ResolveFee(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error)
}

// AdminDirectory reads reviewer accounts for TOTP verification
type AdminDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Admin, error)
}

// WithdrawalService owns the withdrawal flow: the balance-checked debit
// at request time, TOTP-gated admin approval, and the offsetting refund
// on rejection.
type WithdrawalService struct {
	withdrawals WithdrawalStore
	fees        FeeResolver
	settings    SettingsSource
	wallets     Reconciler
	admins      AdminDirectory
	users       UserDirectory
	notifier    adapters.Notifier
	logger      *logger.Logger
}

// NewWithdrawalService creates a new withdrawal service
func NewWithdrawalService(withdrawals WithdrawalStore, fees FeeResolver, settings SettingsSource, wallets Reconciler, admins AdminDirectory, users UserDirectory, notifier adapters.Notifier, logger *logger.Logger) *WithdrawalService {
	return &WithdrawalService{
		withdrawals: withdrawals,
		fees:        fees,
		settings:    settings,
		wallets:     wallets,
		admins:      admins,
		users:       users,
		notifier:    notifier,
		logger:      logger,
	}
}

// RequestWithdrawal validates the request, resolves the fee tier,
// computes the net payout and posts the WITHDRAWAL debit immediately.
// The debit holds the funds while the request awaits review.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, address string, network entities.Network) (*entities.Withdrawal, error) {
	ctx, span := tracing.GetTracer("services.withdrawal").Start(ctx, "WithdrawalService.RequestWithdrawal")
	defer span.End()

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !settings.WithdrawalsEnabled {
		return nil, apperrors.ValidationError(apperrors.CodeWithdrawalsDisabled,
			"withdrawals are currently disabled")
	}
	if amount.LessThan(settings.MinWithdrawal) {
		return nil, apperrors.ValidationError(apperrors.CodeAmountBelowMinimum,
			fmt.Sprintf("minimum withdrawal is %s %s", settings.MinWithdrawal.StringFixed(2), entities.Currency))
	}
	if err := network.Validate(); err != nil {
		return nil, apperrors.ValidationError("UNSUPPORTED_NETWORK", err.Error())
	}

	wallet, err := s.wallets.Reconcile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance.LessThan(amount) {
		return nil, apperrors.ValidationError(apperrors.CodeInsufficientBalance,
			"balance is insufficient for the requested withdrawal")
	}

	percent, err := s.fees.ResolveFee(ctx, amount)
	if err != nil {
		return nil, err
	}
	netAmount := amount.Mul(decimal.NewFromInt(100).Sub(percent)).Div(decimal.NewFromInt(100))

	now := time.Now().UTC()
	entryID := uuid.New()
	withdrawal := &entities.Withdrawal{
		ID:            uuid.New(),
		UserID:        userID,
		Amount:        amount,
		FeePercent:    percent,
		NetAmount:     netAmount,
		Address:       address,
		Network:       network,
		Status:        entities.WithdrawalStatusPending,
		LedgerEntryID: entryID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	entry := &entities.LedgerEntry{
		ID:             entryID,
		UserID:         userID,
		Kind:           entities.EntryKindWithdrawal,
		Amount:         amount.Neg(),
		Currency:       entities.Currency,
		IdempotencyKey: fmt.Sprintf("wd:%s", withdrawal.ID),
		CreatedAt:      now,
	}

	if err := s.withdrawals.Create(ctx, withdrawal, entry); err != nil {
		return nil, err
	}

	if _, err := s.wallets.Reconcile(ctx, userID); err != nil {
		s.logger.Warn("withdrawal reconcile deferred", "error", err, "user_id", userID.String())
	}

	s.logger.Info("withdrawal requested",
		"withdrawal_id", withdrawal.ID.String(),
		"user_id", userID.String(),
		"amount", amount.String(),
		"fee_percent", percent.String(),
		"net_amount", netAmount.String())

	return withdrawal, nil
}

// ApproveWithdrawal marks a pending withdrawal approved for payout.
// The approving admin must present a valid TOTP code.
func (s *WithdrawalService) ApproveWithdrawal(ctx context.Context, withdrawalID, adminID uuid.UUID, totpCode string) error {
	admin, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if !totp.Validate(totpCode, admin.TotpSecret) {
		return apperrors.ValidationError(apperrors.CodeInvalidTotp,
			"the provided TOTP code is invalid")
	}

	withdrawal, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		return err
	}

	if err := s.withdrawals.MarkApproved(ctx, withdrawalID, adminID); err != nil {
		return err
	}

	if email, err := s.users.GetEmail(ctx, withdrawal.UserID); err == nil {
		if err := s.notifier.NotifyWithdrawalApproved(ctx, email, withdrawal.NetAmount, withdrawal.Address); err != nil {
			s.logger.Warn("withdrawal approval email failed", "error", err)
		}
	}

	s.logger.Info("withdrawal approved",
		"withdrawal_id", withdrawalID.String(),
		"admin_id", adminID.String())
	return nil
}

// RejectWithdrawal rejects a pending withdrawal and refunds the held
// funds with an offsetting credit entry. The original debit stands.
func (s *WithdrawalService) RejectWithdrawal(ctx context.Context, withdrawalID, adminID uuid.UUID, reason string) error {
	withdrawal, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		return err
	}

	refund := &entities.LedgerEntry{
		ID:             uuid.New(),
		UserID:         withdrawal.UserID,
		Kind:           entities.EntryKindDeposit,
		Amount:         withdrawal.Amount,
		Currency:       entities.Currency,
		IdempotencyKey: fmt.Sprintf("wd-refund:%s", withdrawal.ID),
		Metadata: &entities.EntryMetadata{
			Reference: refundReference(withdrawal.LedgerEntryID),
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.withdrawals.Reject(ctx, withdrawalID, adminID, reason, refund); err != nil {
		return err
	}

	if _, err := s.wallets.Reconcile(ctx, withdrawal.UserID); err != nil {
		s.logger.Warn("refund reconcile deferred", "error", err, "user_id", withdrawal.UserID.String())
	}

	if email, err := s.users.GetEmail(ctx, withdrawal.UserID); err == nil {
		if err := s.notifier.NotifyWithdrawalRejected(ctx, email, withdrawal.Amount, reason); err != nil {
			s.logger.Warn("withdrawal rejection email failed", "error", err)
		}
	}

	s.logger.Info("withdrawal rejected and refunded",
		"withdrawal_id", withdrawalID.String(),
		"admin_id", adminID.String())
	return nil
}

// ListWithdrawals returns a user's withdrawal history
func (s *WithdrawalService) ListWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.Withdrawal, error) {
	return s.withdrawals.ListByUser(ctx, userID, limit, offset)
}

// ListPendingWithdrawals returns the admin review queue
func (s *WithdrawalService) ListPendingWithdrawals(ctx context.Context, limit, offset int) ([]*entities.Withdrawal, error) {
	return s.withdrawals.ListPending(ctx, limit, offset)
}

func refundReference(entryID uuid.UUID) *string {
	ref := fmt.Sprintf("refund of %s", entryID)
	return &ref
}
