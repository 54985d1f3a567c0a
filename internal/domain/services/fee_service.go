package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

// TierStore persists the withdrawal fee tier set
type TierStore interface {
	ListTiers(ctx context.Context) ([]*entities.FeeTier, error)
	CreateTier(ctx context.Context, tier *entities.FeeTier) error
	DeleteTier(ctx context.Context, id uuid.UUID) error
}

// FeeService resolves withdrawal fees from amount-banded tiers and keeps
// the tier set validated. The resolver works with whatever tiers exist;
// an inconsistent set is flagged to operators, never silently tolerated.
type FeeService struct {
	tiers  TierStore
	logger *logger.Logger
}

// NewFeeService creates a new fee service
func NewFeeService(tiers TierStore, logger *logger.Logger) *FeeService {
	return &FeeService{
		tiers:  tiers,
		logger: logger,
	}
}

// ResolveFee maps a withdrawal amount to its fee percent. A boundary
// amount belongs to the upper tier: min is inclusive, max exclusive.
func (s *FeeService) ResolveFee(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	tiers, err := s.tiers.ListTiers(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	for _, tier := range tiers {
		if tier.Contains(amount) {
			return tier.Percent, nil
		}
	}

	s.logger.Warn("no fee tier covers amount, tier set is inconsistent",
		"amount", amount.String())
	return decimal.Zero, apperrors.ValidationError(apperrors.CodeInvalidFeeTiers,
		"no fee tier covers the requested amount")
}

// ValidateTiers reports every gap and overlap in the stored tier set
func (s *FeeService) ValidateTiers(ctx context.Context) (*entities.TierValidation, error) {
	tiers, err := s.tiers.ListTiers(ctx)
	if err != nil {
		return nil, err
	}
	return ValidateTierSet(tiers), nil
}

// CreateTier stores a new tier and returns the validation report for the
// resulting set, so operators see any gap or overlap they just created.
func (s *FeeService) CreateTier(ctx context.Context, tier *entities.FeeTier) (*entities.TierValidation, error) {
	if err := s.tiers.CreateTier(ctx, tier); err != nil {
		return nil, err
	}

	validation, err := s.ValidateTiers(ctx)
	if err != nil {
		return nil, err
	}
	if !validation.Valid() {
		s.logger.Warn("fee tier set invalid after create",
			"tier_id", tier.ID.String(),
			"overlaps", len(validation.Overlaps),
			"gaps", len(validation.Gaps))
	}
	return validation, nil
}

// DeleteTier removes a tier and returns the validation report for the
// resulting set.
func (s *FeeService) DeleteTier(ctx context.Context, id uuid.UUID) (*entities.TierValidation, error) {
	if err := s.tiers.DeleteTier(ctx, id); err != nil {
		return nil, err
	}

	validation, err := s.ValidateTiers(ctx)
	if err != nil {
		return nil, err
	}
	if !validation.Valid() {
		s.logger.Warn("fee tier set invalid after delete",
			"tier_id", id.String(),
			"overlaps", len(validation.Overlaps),
			"gaps", len(validation.Gaps))
	}
	return validation, nil
}

// ValidateTierSet walks the tiers sorted by min amount and reports each
// adjacent pair that overlaps or leaves a gap, plus a leading gap when
// the first tier does not start at zero and a trailing gap when the last
// tier is bounded.
func ValidateTierSet(tiers []*entities.FeeTier) *entities.TierValidation {
	validation := &entities.TierValidation{
		Overlaps: []entities.TierRange{},
		Gaps:     []entities.TierRange{},
	}
	if len(tiers) == 0 {
		validation.Gaps = append(validation.Gaps, entities.TierRange{From: decimal.Zero})
		return validation
	}

	sorted := make([]*entities.FeeTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinAmount.LessThan(sorted[j].MinAmount)
	})

	if sorted[0].MinAmount.IsPositive() {
		min := sorted[0].MinAmount
		validation.Gaps = append(validation.Gaps, entities.TierRange{From: decimal.Zero, To: &min})
	}

	for i := 0; i < len(sorted)-1; i++ {
		prev, next := sorted[i], sorted[i+1]
		if prev.MaxAmount == nil {
			// Unbounded tier swallows everything after it
			validation.Overlaps = append(validation.Overlaps, entities.TierRange{
				From: next.MinAmount,
				To:   next.MaxAmount,
			})
			continue
		}

		switch {
		case next.MinAmount.LessThan(*prev.MaxAmount):
			from := next.MinAmount
			to := decimal.Min(*prev.MaxAmount, upperBound(next, *prev.MaxAmount))
			validation.Overlaps = append(validation.Overlaps, entities.TierRange{From: from, To: &to})
		case next.MinAmount.GreaterThan(*prev.MaxAmount):
			from := *prev.MaxAmount
			to := next.MinAmount
			validation.Gaps = append(validation.Gaps, entities.TierRange{From: from, To: &to})
		}
	}

	last := sorted[len(sorted)-1]
	if last.MaxAmount != nil {
		validation.Gaps = append(validation.Gaps, entities.TierRange{From: *last.MaxAmount})
	}

	return validation
}

func upperBound(t *entities.FeeTier, fallback decimal.Decimal) decimal.Decimal {
	if t.MaxAmount == nil {
		return fallback
	}
	return *t.MaxAmount
}
