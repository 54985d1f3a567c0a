package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tmb8080/nova-sub001/internal/domain/services"
	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

// VipHandlers serves the VIP catalog and purchases
type VipHandlers struct {
	vip    *services.VipService
	logger *logger.Logger
}

// NewVipHandlers creates a new VipHandlers instance
func NewVipHandlers(vip *services.VipService, logger *logger.Logger) *VipHandlers {
	return &VipHandlers{
		vip:    vip,
		logger: logger,
	}
}

// ListLevels handles GET /vip/levels
func (h *VipHandlers) ListLevels(c *gin.Context) {
	levels, err := h.vip.ListLevels(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, levels)
}

// GetActiveLevel handles GET /vip/level
func (h *VipHandlers) GetActiveLevel(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing user ID")
		return
	}

	level, err := h.vip.GetActiveLevel(c.Request.Context(), userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			SendSuccess(c, nil)
			return
		}
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, level)
}

// PurchaseVipRequest names the level to buy
type PurchaseVipRequest struct {
	LevelID uuid.UUID `json:"level_id" binding:"required"`
}

// PurchaseVip handles POST /vip/purchase
func (h *VipHandlers) PurchaseVip(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing user ID")
		return
	}

	var req PurchaseVipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	level, err := h.vip.PurchaseVip(c.Request.Context(), userID, req.LevelID)
	if err != nil {
		h.logger.Warn("vip purchase rejected", "error", err, "user_id", userID.String())
		respondDomainError(c, err)
		return
	}

	SendCreated(c, level)
}
