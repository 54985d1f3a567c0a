package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tmb8080/nova-sub001/internal/domain/services"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

// VerificationHandlers exposes the cross-network lookup to admins
type VerificationHandlers struct {
	verifier *services.VerificationService
	logger   *logger.Logger
}

// NewVerificationHandlers creates a new VerificationHandlers instance
func NewVerificationHandlers(verifier *services.VerificationService, logger *logger.Logger) *VerificationHandlers {
	return &VerificationHandlers{
		verifier: verifier,
		logger:   logger,
	}
}

// CheckHash handles GET /admin/verify/:hash. Operators reviewing a
// pending deposit see every network's outcome, not only the hit.
func (h *VerificationHandlers) CheckHash(c *gin.Context) {
	txHash := c.Param("hash")
	if txHash == "" {
		respondBadRequest(c, "transaction hash is required")
		return
	}

	result, err := h.verifier.CheckAllNetworks(c.Request.Context(), txHash)
	if err != nil {
		h.logger.Error("verification failed", "error", err, "tx_hash", txHash)
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, result)
}
