package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tmb8080/nova-sub001/internal/domain/services"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

// SettingsHandlers serves the admin platform settings surface
type SettingsHandlers struct {
	settings *services.SettingsService
	logger   *logger.Logger
}

// NewSettingsHandlers creates a new SettingsHandlers instance
func NewSettingsHandlers(settings *services.SettingsService, logger *logger.Logger) *SettingsHandlers {
	return &SettingsHandlers{
		settings: settings,
		logger:   logger,
	}
}

// GetSettings handles GET /admin/settings
func (h *SettingsHandlers) GetSettings(c *gin.Context) {
	settings, err := h.settings.GetSettings(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, settings)
}

// UpdateSettingRequest carries one key-value settings write
type UpdateSettingRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// UpdateSetting handles PUT /admin/settings
func (h *SettingsHandlers) UpdateSetting(c *gin.Context) {
	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	settings, err := h.settings.UpdateSetting(c.Request.Context(), req.Key, req.Value)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	SendSuccess(c, settings)
}
