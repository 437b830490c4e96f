package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/manifest"
	"github.com/xaenox/mawari-agent/internal/webhook"
)

func (h *handlers) minikit(c *gin.Context) {
	c.JSON(http.StatusOK, manifest.Miniapp(h.BaseURL))
}

// platformManifest is fetched by the host platform on every launch and must not be cached
func (h *handlers) platformManifest(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "SAMEORIGIN")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	c.JSON(http.StatusOK, manifest.Platform(h.BaseURL))
}

func (h *handlers) farcaster(c *gin.Context) {
	c.JSON(http.StatusOK, manifest.AccountAssociation(h.Association))
}

func (h *handlers) wellKnownFarcaster(c *gin.Context) {
	c.JSON(http.StatusOK, manifest.Farcaster(h.BaseURL, h.Association))
}

func (h *handlers) webhookStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "Base Miniapp Webhook Endpoint Active",
		"version":         "1.0.0",
		"supportedEvents": webhook.SupportedEvents,
		"timestamp":       h.now().UTC().Format(timestampLayout),
	})
}

func (h *handlers) webhook(c *gin.Context) {
	var ev webhook.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		h.webhookFailed(c, err)
		return
	}
	if err := h.Webhooks.Dispatch(c.Request.Context(), ev); err != nil {
		h.webhookFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"processed": true,
		"timestamp": h.now().UTC().Format(timestampLayout),
	})
}

func (h *handlers) webhookFailed(c *gin.Context, err error) {
	h.Logger.Error("Webhook processing failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":     "Webhook processing failed",
		"message":   err.Error(),
		"timestamp": h.now().UTC().Format(timestampLayout),
	})
}
