package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	"github.com/tmb8080/nova-sub001/internal/domain/services"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

// WithdrawalHandlers serves withdrawal requests and the admin review queue
type WithdrawalHandlers struct {
	withdrawals *services.WithdrawalService
	logger      *logger.Logger
}

// NewWithdrawalHandlers creates a new WithdrawalHandlers instance
func NewWithdrawalHandlers(withdrawals *services.WithdrawalService, logger *logger.Logger) *WithdrawalHandlers {
	return &WithdrawalHandlers{
		withdrawals: withdrawals,
		logger:      logger,
	}
}

// RequestWithdrawalRequest is the withdrawal submission payload
type RequestWithdrawalRequest struct {
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	Address string          `json:"address" binding:"required"`
	Network string          `json:"network" binding:"required"`
}

// RequestWithdrawal handles POST /withdrawals
func (h *WithdrawalHandlers) RequestWithdrawal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing user ID")
		return
	}

	var req RequestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	withdrawal, err := h.withdrawals.RequestWithdrawal(c.Request.Context(), userID, req.Amount, req.Address, entities.Network(req.Network))
	if err != nil {
		h.logger.Warn("withdrawal request rejected", "error", err, "user_id", userID.String())
		respondDomainError(c, err)
		return
	}

	SendCreated(c, withdrawal)
}

// ListWithdrawals handles GET /withdrawals
func (h *WithdrawalHandlers) ListWithdrawals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing user ID")
		return
	}

	limit, offset := parsePagination(c)
	withdrawals, err := h.withdrawals.ListWithdrawals(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, withdrawals)
}

// ListPending handles GET /admin/withdrawals/pending
func (h *WithdrawalHandlers) ListPending(c *gin.Context) {
	limit, offset := parsePagination(c)
	withdrawals, err := h.withdrawals.ListPendingWithdrawals(c.Request.Context(), limit, offset)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, withdrawals)
}

// ApproveWithdrawalRequest carries the admin's TOTP code
type ApproveWithdrawalRequest struct {
	TotpCode string `json:"totp_code" binding:"required"`
}

// ApproveWithdrawal handles POST /admin/withdrawals/:id/approve
func (h *WithdrawalHandlers) ApproveWithdrawal(c *gin.Context) {
	adminID, err := getAdminID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing admin ID")
		return
	}

	withdrawalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid withdrawal ID")
		return
	}

	var req ApproveWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := h.withdrawals.ApproveWithdrawal(c.Request.Context(), withdrawalID, adminID, req.TotpCode); err != nil {
		h.logger.Warn("withdrawal approval failed", "error", err, "withdrawal_id", withdrawalID.String())
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, gin.H{"withdrawal_id": withdrawalID, "status": entities.WithdrawalStatusApproved})
}

// RejectWithdrawalRequest carries the rejection reason
type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectWithdrawal handles POST /admin/withdrawals/:id/reject
func (h *WithdrawalHandlers) RejectWithdrawal(c *gin.Context) {
	adminID, err := getAdminID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing admin ID")
		return
	}

	withdrawalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid withdrawal ID")
		return
	}

	var req RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := h.withdrawals.RejectWithdrawal(c.Request.Context(), withdrawalID, adminID, req.Reason); err != nil {
		h.logger.Warn("withdrawal rejection failed", "error", err, "withdrawal_id", withdrawalID.String())
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, gin.H{"withdrawal_id": withdrawalID, "status": entities.WithdrawalStatusRejected})
}
