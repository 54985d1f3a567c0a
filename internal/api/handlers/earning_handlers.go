package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tmb8080/nova-sub001/internal/domain/services"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

// EarningHandlers serves the earning session machine
type EarningHandlers struct {
	earnings *services.EarningService
	logger   *logger.Logger
}

// NewEarningHandlers creates a new EarningHandlers instance
func NewEarningHandlers(earnings *services.EarningService, logger *logger.Logger) *EarningHandlers {
	return &EarningHandlers{
		earnings: earnings,
		logger:   logger,
	}
}

// StartEarning handles POST /earning/start
func (h *EarningHandlers) StartEarning(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing user ID")
		return
	}

	status, err := h.earnings.StartEarning(c.Request.Context(), userID)
	if err != nil {
		h.logger.Warn("start earning rejected", "error", err, "user_id", userID.String())
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, status)
}

// GetStatus handles GET /earning/status
func (h *EarningHandlers) GetStatus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondBadRequest(c, "invalid or missing user ID")
		return
	}

	status, err := h.earnings.GetStatus(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("earning status failed", "error", err, "user_id", userID.String())
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, status)
}
