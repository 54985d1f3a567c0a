package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

// VipStore reads the catalog and records purchases
type VipStore interface {
	GetActiveLevel(ctx context.Context, userID uuid.UUID) (*entities.VipLevel, error)
	GetLevelByID(ctx context.Context, levelID uuid.UUID) (*entities.VipLevel, error)
	ListActiveLevels(ctx context.Context) ([]*entities.VipLevel, error)
	Purchase(ctx context.Context, userID, levelID uuid.UUID, entry *entities.LedgerEntry) error
}

// VipService sells catalog levels. A purchase is a balance-checked
// VIP_PAYMENT debit plus the level assignment the session machine reads.
type VipService struct {
	vip     VipStore
	wallets Reconciler
	logger  *logger.Logger
}

// NewVipService creates a new VIP service
func NewVipService(vip VipStore, wallets Reconciler, logger *logger.Logger) *VipService {
	return &VipService{
		vip:     vip,
		wallets: wallets,
		logger:  logger,
	}
}

// ListLevels returns the purchasable catalog
func (s *VipService) ListLevels(ctx context.Context) ([]*entities.VipLevel, error) {
	return s.vip.ListActiveLevels(ctx)
}

// GetActiveLevel returns the user's current level
func (s *VipService) GetActiveLevel(ctx context.Context, userID uuid.UUID) (*entities.VipLevel, error) {
	return s.vip.GetActiveLevel(ctx, userID)
}

// PurchaseVip debits the level's entry amount and assigns the level
func (s *VipService) PurchaseVip(ctx context.Context, userID, levelID uuid.UUID) (*entities.VipLevel, error) {
	level, err := s.vip.GetLevelByID(ctx, levelID)
	if err != nil {
		return nil, err
	}
	if !level.IsActive {
		return nil, apperrors.ValidationError("VIP_LEVEL_INACTIVE",
			"the requested VIP level is no longer available")
	}

	wallet, err := s.wallets.Reconcile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance.LessThan(level.Amount) {
		return nil, apperrors.ValidationError(apperrors.CodeInsufficientBalance,
			"balance is insufficient for this VIP level")
	}

	entry := &entities.LedgerEntry{
		ID:             uuid.New(),
		UserID:         userID,
		Kind:           entities.EntryKindVipPayment,
		Amount:         level.Amount.Neg(),
		Currency:       entities.Currency,
		IdempotencyKey: fmt.Sprintf("vip:%s:%s:%d", userID, levelID, time.Now().UTC().Unix()),
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.vip.Purchase(ctx, userID, levelID, entry); err != nil {
		return nil, err
	}

	if _, err := s.wallets.Reconcile(ctx, userID); err != nil {
		s.logger.Warn("vip purchase reconcile deferred", "error", err, "user_id", userID.String())
	}

	s.logger.Info("vip level purchased",
		"user_id", userID.String(),
		"level", level.Name,
		"amount", level.Amount.String())

	return level, nil
}
