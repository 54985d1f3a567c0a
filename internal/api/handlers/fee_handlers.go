package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	"github.com/tmb8080/nova-sub001/internal/domain/services"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

// FeeHandlers serves fee resolution and the admin tier CRUD
type FeeHandlers struct {
	fees   *services.FeeService
	logger *logger.Logger
}

// NewFeeHandlers creates a new FeeHandlers instance
func NewFeeHandlers(fees *services.FeeService, logger *logger.Logger) *FeeHandlers {
	return &FeeHandlers{
		fees:   fees,
		logger: logger,
	}
}

// ResolveFee handles GET /fees/resolve?amount=
func (h *FeeHandlers) ResolveFee(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		respondBadRequest(c, "amount must be a decimal number")
		return
	}

	percent, err := h.fees.ResolveFee(c.Request.Context(), amount)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	net := amount.Mul(decimal.NewFromInt(100).Sub(percent)).Div(decimal.NewFromInt(100))
	SendSuccess(c, gin.H{
		"amount":     amount,
		"percent":    percent,
		"net_amount": net,
	})
}

// ValidateTiers handles GET /admin/fees/validate
func (h *FeeHandlers) ValidateTiers(c *gin.Context) {
	validation, err := h.fees.ValidateTiers(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, validation)
}

// CreateTierRequest is the tier creation payload. A null max_amount makes
// the band unbounded above.
type CreateTierRequest struct {
	MinAmount decimal.Decimal  `json:"min_amount"`
	MaxAmount *decimal.Decimal `json:"max_amount"`
	Percent   decimal.Decimal  `json:"percent"`
}

// CreateTier handles POST /admin/fees/tiers
func (h *FeeHandlers) CreateTier(c *gin.Context) {
	var req CreateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	tier := &entities.FeeTier{
		MinAmount: req.MinAmount,
		MaxAmount: req.MaxAmount,
		Percent:   req.Percent,
	}

	validation, err := h.fees.CreateTier(c.Request.Context(), tier)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	SendCreated(c, gin.H{
		"tier":       tier,
		"validation": validation,
	})
}

// DeleteTier handles DELETE /admin/fees/tiers/:id
func (h *FeeHandlers) DeleteTier(c *gin.Context) {
	tierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid tier ID")
		return
	}

	validation, err := h.fees.DeleteTier(c.Request.Context(), tierID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, gin.H{
		"deleted":    tierID,
		"validation": validation,
	})
}
