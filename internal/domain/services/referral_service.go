package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
	"github.com/tmb8080/nova-sub001/pkg/logger"
	"github.com/tmb8080/nova-sub001/pkg/metrics"
)

// ReferralGraph walks the immutable referrer chain
type ReferralGraph interface {
	GetReferrer(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
}

// EntryAppender appends a single ledger entry
type EntryAppender interface {
	Append(ctx context.Context, entry *entities.LedgerEntry) error
}

// SettingsSource loads the current platform settings
type SettingsSource interface {
	Load(ctx context.Context) (entities.Settings, error)
}

// Reconciler rebuilds one user's wallet from the ledger
type Reconciler interface {
	Reconcile(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)
}

// ReferralService cascades bonuses up the referral chain when a
// qualifying ledger entry is posted. Crediting is best-effort per level:
// a failure at one level never blocks the other levels and never fails
// the triggering event.
type ReferralService struct {
	graph      ReferralGraph
	ledger     EntryAppender
	settings   SettingsSource
	reconciler Reconciler
	logger     *logger.Logger
}

// NewReferralService creates a new referral service
func NewReferralService(graph ReferralGraph, ledger EntryAppender, settings SettingsSource, reconciler Reconciler, logger *logger.Logger) *ReferralService {
	return &ReferralService{
		graph:      graph,
		ledger:     ledger,
		settings:   settings,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Distribute posts REFERRAL_BONUS entries to up to three ancestors of
// userID, each `qualifyingAmount * levelRate`. The qualifying entry id
// keys idempotency: re-running for the same entry posts nothing new.
func (s *ReferralService) Distribute(ctx context.Context, userID uuid.UUID, qualifyingEntryID uuid.UUID, qualifyingAmount decimal.Decimal, sourceKind entities.EntryKind) ([]entities.ReferralCredit, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	credits := make([]entities.ReferralCredit, 0, entities.MaxReferralLevels)
	current := userID

	for level := 1; level <= entities.MaxReferralLevels; level++ {
		referrer, err := s.graph.GetReferrer(ctx, current)
		if err != nil {
			s.logger.Error("referral chain walk failed",
				"error", err, "user_id", current.String(), "level", level)
			metrics.ReferralCreditsTotal.WithLabelValues(strconv.Itoa(level), "walk_failed").Inc()
			break
		}
		if referrer == nil {
			break
		}

		rate := settings.ReferralRates[level-1]
		amount := qualifyingAmount.Mul(rate)
		credit := entities.ReferralCredit{
			Level:      level,
			ReferrerID: *referrer,
			Amount:     amount,
		}

		if amount.IsPositive() {
			if err := s.creditLevel(ctx, *referrer, amount, qualifyingEntryID, userID, level, sourceKind); err != nil {
				credit.Error = err.Error()
				s.logger.Warn("referral level credit failed",
					"error", err,
					"referrer_id", referrer.String(),
					"level", level,
					"qualifying_entry_id", qualifyingEntryID.String())
				metrics.ReferralCreditsTotal.WithLabelValues(strconv.Itoa(level), "failed").Inc()
			} else {
				credit.Credited = true
				metrics.ReferralCreditsTotal.WithLabelValues(strconv.Itoa(level), "ok").Inc()
			}
		}

		credits = append(credits, credit)
		current = *referrer
	}

	return credits, nil
}

func (s *ReferralService) creditLevel(ctx context.Context, referrerID uuid.UUID, amount decimal.Decimal, qualifyingEntryID, sourceUserID uuid.UUID, level int, sourceKind entities.EntryKind) error {
	sourceUser := sourceUserID
	lvl := level
	kind := string(sourceKind)
	entry := &entities.LedgerEntry{
		ID:             uuid.New(),
		UserID:         referrerID,
		Kind:           entities.EntryKindReferralBonus,
		Amount:         amount,
		Currency:       entities.Currency,
		IdempotencyKey: fmt.Sprintf("ref:%s:L%d", qualifyingEntryID, level),
		Metadata: &entities.EntryMetadata{
			SourceUserID:  &sourceUser,
			ReferralLevel: &lvl,
			Reference:     &kind,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.ledger.Append(ctx, entry); err != nil {
		if apperrors.IsAlreadyExists(err) {
			// Already credited for this qualifying entry
			return nil
		}
		return err
	}

	if _, err := s.reconciler.Reconcile(ctx, referrerID); err != nil {
		// The entry is posted; the wallet catches up on the next reconcile
		s.logger.Warn("referral reconcile deferred",
			"error", err, "referrer_id", referrerID.String())
	}
	return nil
}
