// Package reconciliationsweep periodically re-runs wallet reconciliation
// for recently active users. The sweep is an audit: the lazy reconcile on
// every write path is what keeps wallets correct, so a hit here means a
// write path failed to reconcile and is worth investigating.
package reconciliationsweep

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
	"github.com/tmb8080/nova-sub001/pkg/logger"
	"github.com/tmb8080/nova-sub001/pkg/metrics"
)

// ActivitySource lists users whose ledger changed since a given instant
type ActivitySource interface {
	UsersWithEntriesSince(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// WalletReader reads the stored wallet row
type WalletReader interface {
	Get(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)
}

// Reconciler rebuilds one user's wallet from the ledger
type Reconciler interface {
	Reconcile(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)
}

// Worker runs the scheduled drift sweep
type Worker struct {
	activity   ActivitySource
	wallets    WalletReader
	reconciler Reconciler
	schedule   string
	logger     *logger.Logger

	cron *cron.Cron

	mu        sync.Mutex
	lastSweep time.Time
}

// New creates a sweep worker with a cron schedule like "0 * * * *"
func New(activity ActivitySource, wallets WalletReader, reconciler Reconciler, schedule string, logger *logger.Logger) *Worker {
	return &Worker{
		activity:   activity,
		wallets:    wallets,
		reconciler: reconciler,
		schedule:   schedule,
		logger:     logger,
		lastSweep:  time.Now().UTC(),
	}
}

// Start registers the schedule and begins sweeping
func (w *Worker) Start() error {
	w.cron = cron.New()
	if _, err := w.cron.AddFunc(w.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		w.Sweep(ctx)
	}); err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("reconciliation sweep scheduled", "schedule", w.schedule)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish
func (w *Worker) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

// Sweep re-reconciles every user with ledger activity since the previous
// sweep and reports drift between the stored wallet and the rebuilt one.
func (w *Worker) Sweep(ctx context.Context) {
	w.mu.Lock()
	since := w.lastSweep
	started := time.Now().UTC()
	w.mu.Unlock()

	users, err := w.activity.UsersWithEntriesSince(ctx, since)
	if err != nil {
		w.logger.Error("sweep aborted, activity query failed", "error", err)
		return
	}

	var drifted int
	for _, userID := range users {
		if ctx.Err() != nil {
			w.logger.Warn("sweep cancelled", "remaining", len(users))
			return
		}

		before, err := w.wallets.Get(ctx, userID)
		if err != nil && !apperrors.IsNotFound(err) {
			w.logger.Warn("sweep wallet read failed", "error", err, "user_id", userID.String())
			continue
		}

		after, err := w.reconciler.Reconcile(ctx, userID)
		if err != nil {
			w.logger.Warn("sweep reconcile failed", "error", err, "user_id", userID.String())
			continue
		}

		if before != nil && !before.Balance.Equal(after.Balance) {
			drifted++
			metrics.ReconciliationDriftTotal.Inc()
			w.logger.Warn("wallet drift corrected by sweep",
				"user_id", userID.String(),
				"stored_balance", before.Balance.String(),
				"ledger_balance", after.Balance.String())
		}
	}

	w.mu.Lock()
	w.lastSweep = started
	w.mu.Unlock()

	w.logger.Info("reconciliation sweep completed",
		"users", len(users),
		"drifted", drifted,
		"duration", time.Since(started).String())
}
