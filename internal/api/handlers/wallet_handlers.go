package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tmb8080/nova-sub001/internal/domain/services"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

// WalletHandlers serves balance and ledger history reads plus explicit
// reconciliation
type WalletHandlers struct {
	wallets *services.WalletService
	ledger  *services.LedgerService
	logger  *logger.Logger
}

// NewWalletHandlers creates a new WalletHandlers instance
func NewWalletHandlers(wallets *services.WalletService, ledger *services.LedgerService, logger *logger.Logger) *WalletHandlers {
	return &WalletHandlers{
		wallets: wallets,
		ledger:  ledger,
		logger:  logger,
	}
}

// GetWallet handles GET /wallet
func (h *WalletHandlers) GetWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing user ID")
		return
	}

	wallet, err := h.wallets.GetWallet(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("get wallet failed", "error", err, "user_id", userID.String())
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, wallet)
}

// Reconcile handles POST /wallet/reconcile
func (h *WalletHandlers) Reconcile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing user ID")
		return
	}

	wallet, err := h.wallets.Reconcile(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("reconcile failed", "error", err, "user_id", userID.String())
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, wallet)
}

// GetHistory handles GET /wallet/history
func (h *WalletHandlers) GetHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing user ID")
		return
	}

	limit, offset := parsePagination(c)
	entries, err := h.ledger.History(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("ledger history failed", "error", err, "user_id", userID.String())
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, entries)
}
