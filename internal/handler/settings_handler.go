package handler

import (
	"errors"
	"net/http"

	"coursebot/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	svc *service.SettingsService
	log *zap.Logger
}

func NewSettingsHandler(svc *service.SettingsService, log *zap.Logger) *SettingsHandler {
	return &SettingsHandler{svc: svc, log: log}
}

// Get handles GET /admin/settings. Every editable key is present.
func (h *SettingsHandler) Get(c *gin.Context) {
	values, err := h.svc.Effective()
	if err != nil {
		h.log.Error("load settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, values)
}

// Update handles PUT /admin/settings with a flat key/value object.
func (h *SettingsHandler) Update(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(values) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no settings given"})
		return
	}
	if err := h.svc.Update(values); err != nil {
		if errors.Is(err, service.ErrUnknownSetting) || errors.Is(err, service.ErrInvalidSetting) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("save settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	h.Get(c)
}
