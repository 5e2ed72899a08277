package handlers

import (
	"errors"
	"net/http"
	"strings"

	"eta_monitor/internal/config"
	"eta_monitor/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidBodyPref = "invalid body: "
	errSaveSettings    = "failed to save settings"
	errResetFailed     = "failed to reset state"
	errResetConfirm    = "reset is destructive; repeat with ?confirm=true"
)

// UpdateSettingsRequest is an exported model for Swagger docs of the settings payload.
type UpdateSettingsRequest struct {
	// Base URL of the controller gateway
	BaseURL *string `json:"base_url,omitempty" example:"http://192.168.0.25:8080"`
	// Refresh interval in seconds, clamped to [1, 3600]. A numeric string is accepted too.
	RefreshInterval *intervalValue `json:"refresh_interval,omitempty" swaggertype:"integer" example:"10"`
	// Simulate the controller instead of calling it
	MockMode *bool `json:"mock_mode,omitempty" example:"true"`
}

// intervalValue is a refresh interval given as a JSON number or numeric string.
type intervalValue int

func (v *intervalValue) UnmarshalJSON(b []byte) error {
	n, err := config.ParseInterval(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*v = intervalValue(n)
	return nil
}

// @Summary      Get settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  models.Settings
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/settings [get]
// @Security     BearerAuth
func (h *Handler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.GetSettings())
}

// @Summary      Update settings
// @Description  Partial update. Takes effect immediately and reschedules the sync timer.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      UpdateSettingsRequest  true  "Settings patch"
// @Success      200   {object}  models.Settings
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/settings [patch]
// @Security     BearerAuth
func (h *Handler) patchSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	patch := models.SettingsPatch{
		BaseURL:         req.BaseURL,
		RefreshInterval: (*int)(req.RefreshInterval),
		MockMode:        req.MockMode,
	}

	s, err := h.services.UpdateSettings(c.Request.Context(), patch)
	if err != nil {
		if errors.Is(err, config.ErrInvalidSettings) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveSettings, "settings_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Reset
// @Description  Clears persisted state and the sync journal, restores default settings and restarts the sync timer. Irreversible.
// @Tags         settings
// @Produce      json
// @Param        confirm  query     bool  true  "Must be true"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /api/v1/reset [post]
// @Security     BearerAuth
func (h *Handler) reset(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errResetConfirm})
		return
	}
	if err := h.services.Reset(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errResetFailed, "reset_failed", err)
		return
	}
	if h.log != nil {
		uid, _ := c.Get(ctxUserID)
		h.log.Infow("state_reset_by_user", "userId", uid)
	}
	c.JSON(http.StatusOK, gin.H{"status": statusReset})
}
