package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/auth"
	"github.com/asorevs/image-api-updater/internal/config"
)

// Webhook topics the app subscribes to
const (
	TopicAppUninstalled       = "app/uninstalled"
	TopicShopRedact           = "shop/redact"
	TopicCustomersDataRequest = "customers/data_request"
	TopicCustomersRedact      = "customers/redact"
)

// HandleWebhook handles POST /api/webhooks.
// The app stores no customer data, so the customer topics are only acknowledged.
func HandleWebhook(deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// HMAC is computed over the raw bytes
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		if !auth.VerifyWebhookHMAC(body, c.GetHeader("X-Shopify-Hmac-Sha256"), deps.Config.Shopify.APISecret) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
			return
		}

		topic := strings.TrimSpace(c.GetHeader("X-Shopify-Topic"))
		shop := config.NormalizeShop(c.GetHeader("X-Shopify-Shop-Domain"))

		switch topic {
		case TopicAppUninstalled, TopicShopRedact:
			if err := deps.Repos.Session.Delete(c.Request.Context(), shop); err != nil {
				logger.Error("Failed to delete session", zap.Error(err), zap.String("shop", shop), zap.String("topic", topic))
				// Non-2xx makes Shopify retry the delivery
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			logger.Info("Session removed", zap.String("shop", shop), zap.String("topic", topic))
		case TopicCustomersDataRequest, TopicCustomersRedact:
			logger.Info("Privacy webhook acknowledged", zap.String("shop", shop), zap.String("topic", topic))
		default:
			logger.Warn("Unhandled webhook topic", zap.String("shop", shop), zap.String("topic", topic))
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
