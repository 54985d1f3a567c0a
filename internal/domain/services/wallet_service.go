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

// LedgerSummer aggregates a user's ledger entries by kind
type LedgerSummer interface {
	SumByKind(ctx context.Context, userID uuid.UUID) (map[entities.EntryKind]decimal.Decimal, error)
}

// WalletStore reads and overwrites the derived wallet row
type WalletStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)
	Overwrite(ctx context.Context, wallet *entities.Wallet) error
}

// WalletService rebuilds wallets from the ledger. The wallet row is a
// cache; every write here is a full overwrite derived from the entry
// sums, so re-running after any drift converges on the same row.
type WalletService struct {
	ledger LedgerSummer
	wallet WalletStore
	locker cache.Locker
	logger *logger.Logger
}

// NewWalletService creates a new wallet service
func NewWalletService(ledger LedgerSummer, wallet WalletStore, locker cache.Locker, logger *logger.Logger) *WalletService {
	return &WalletService{
		ledger: ledger,
		wallet: wallet,
		locker: locker,
		logger: logger,
	}
}

// lock TTL bounds how long a crashed reconciliation can block a user
const reconcileLockTTL = 30 * time.Second

// Reconcile recomputes the user's wallet from the ledger and overwrites
// the stored row. Concurrent reconciliations for the same user are
// serialized by a per-user lock. A ledger read failure aborts before
// anything is written, leaving the prior wallet intact.
func (s *WalletService) Reconcile(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	ctx, span := tracing.GetTracer("services.wallet").Start(ctx, "WalletService.Reconcile")
	defer span.End()

	release, err := s.locker.Acquire(ctx, fmt.Sprintf("reconcile:%s", userID), reconcileLockTTL)
	if err != nil {
		metrics.ReconciliationRunsTotal.WithLabelValues("request", "lock_failed").Inc()
		return nil, apperrors.ServiceUnavailableError("reconcile lock", err)
	}
	defer release()

	sums, err := s.ledger.SumByKind(ctx, userID)
	if err != nil {
		metrics.ReconciliationRunsTotal.WithLabelValues("request", "read_failed").Inc()
		s.logger.Error("ledger read failed, reconciliation aborted",
			"error", err, "user_id", userID.String())
		return nil, apperrors.IntegrityError("ledger read failed, wallet left untouched", err)
	}

	wallet := entities.ComputeWallet(userID, sums)
	wallet.UpdatedAt = time.Now().UTC()

	if err := s.wallet.Overwrite(ctx, wallet); err != nil {
		metrics.ReconciliationRunsTotal.WithLabelValues("request", "write_failed").Inc()
		return nil, fmt.Errorf("overwrite wallet: %w", err)
	}

	metrics.ReconciliationRunsTotal.WithLabelValues("request", "ok").Inc()
	s.logger.Debug("wallet reconciled",
		"user_id", userID.String(),
		"balance", wallet.Balance.String())

	return wallet, nil
}

// GetWallet returns the stored wallet, reconciling first when the user
// has never had one.
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	wallet, err := s.wallet.Get(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return s.Reconcile(ctx, userID)
		}
		return nil, err
	}
	return wallet, nil
}
