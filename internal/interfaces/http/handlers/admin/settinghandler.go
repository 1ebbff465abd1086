package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/usdtpay/internal/shared/logger"
	"github.com/orris-inc/usdtpay/internal/shared/utils"
)

type SettingHandler struct {
	settingsUC manageSettingsUseCase
	logger     logger.Interface
}

func NewSettingHandler(settingsUC manageSettingsUseCase, logger logger.Interface) *SettingHandler {
	return &SettingHandler{
		settingsUC: settingsUC,
		logger:     logger,
	}
}

// UpdateSettingsRequest maps setting keys to new values. An empty value
// removes the stored override.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}

// GetSettings retrieves payment settings
// GET /admin/settings
func (h *SettingHandler) GetSettings(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", h.settingsUC.List(c.Request.Context()))
}

// UpdateSettings updates payment settings
// PATCH /admin/settings
func (h *SettingHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.settingsUC.Update(c.Request.Context(), req.Settings)
	if err != nil {
		h.logger.Warnw("failed to update settings", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Settings updated successfully", result)
}
