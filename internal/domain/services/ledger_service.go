package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

// EntryLister reads a user's entry history
type EntryLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.LedgerEntry, error)
}

// LedgerService exposes the read side of the ledger
type LedgerService struct {
	entries EntryLister
	logger  *logger.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(entries EntryLister, logger *logger.Logger) *LedgerService {
	return &LedgerService{entries: entries, logger: logger}
}

// History returns a user's ledger entries, newest first
func (s *LedgerService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.entries.ListByUser(ctx, userID, limit, offset)
}
