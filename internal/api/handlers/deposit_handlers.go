package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	"github.com/tmb8080/nova-sub001/internal/domain/services"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

// DepositHandlers serves deposit submission and the admin review queue
type DepositHandlers struct {
	deposits *services.DepositService
	logger   *logger.Logger
}

// NewDepositHandlers creates a new DepositHandlers instance
func NewDepositHandlers(deposits *services.DepositService, logger *logger.Logger) *DepositHandlers {
	return &DepositHandlers{
		deposits: deposits,
		logger:   logger,
	}
}

// SubmitDepositRequest is the deposit submission payload
type SubmitDepositRequest struct {
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	Network string          `json:"network" binding:"required"`
	TxHash  string          `json:"tx_hash" binding:"required"`
}

// SubmitDeposit handles POST /deposits
func (h *DepositHandlers) SubmitDeposit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing user ID")
		return
	}

	var req SubmitDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	network := entities.Network(req.Network)
	if err := network.Validate(); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	deposit, result, err := h.deposits.SubmitDeposit(c.Request.Context(), userID, req.Amount, network, req.TxHash)
	if err != nil {
		h.logger.Warn("deposit submission rejected", "error", err, "user_id", userID.String())
		respondDomainError(c, err)
		return
	}

	SendCreated(c, gin.H{
		"deposit":      deposit,
		"verification": result,
	})
}

// ListDeposits handles GET /deposits
func (h *DepositHandlers) ListDeposits(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing user ID")
		return
	}

	limit, offset := parsePagination(c)
	deposits, err := h.deposits.ListDeposits(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, deposits)
}

// ListPending handles GET /admin/deposits/pending
func (h *DepositHandlers) ListPending(c *gin.Context) {
	limit, offset := parsePagination(c)
	deposits, err := h.deposits.ListPendingDeposits(c.Request.Context(), limit, offset)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, deposits)
}

// ApproveDeposit handles POST /admin/deposits/:id/approve
func (h *DepositHandlers) ApproveDeposit(c *gin.Context) {
	adminID, err := getAdminID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing admin ID")
		return
	}

	depositID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid deposit ID")
		return
	}

	if err := h.deposits.ApproveDeposit(c.Request.Context(), depositID, &adminID, false); err != nil {
		h.logger.Warn("deposit approval failed", "error", err, "deposit_id", depositID.String())
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, gin.H{"deposit_id": depositID, "status": entities.DepositStatusConfirmed})
}

// RejectDepositRequest carries the rejection reason
type RejectDepositRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectDeposit handles POST /admin/deposits/:id/reject
func (h *DepositHandlers) RejectDeposit(c *gin.Context) {
	adminID, err := getAdminID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing admin ID")
		return
	}

	depositID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid deposit ID")
		return
	}

	var req RejectDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := h.deposits.RejectDeposit(c.Request.Context(), depositID, adminID, req.Reason); err != nil {
		h.logger.Warn("deposit rejection failed", "error", err, "deposit_id", depositID.String())
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, gin.H{"deposit_id": depositID, "status": entities.DepositStatusRejected})
}
