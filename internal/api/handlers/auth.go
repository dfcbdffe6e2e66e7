package handlers

import (
	"crypto/subtle"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/auth"
	"github.com/asorevs/image-api-updater/internal/config"
)

const (
	oauthStateCookie = "shopify_oauth_state"
	oauthStateMaxAge = 600
)

// HandleAuthBegin handles GET /api/auth?shop= by redirecting to the consent screen
func HandleAuthBegin(deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shop := config.NormalizeShop(c.Query("shop"))
		if !auth.ValidShopDomain(shop) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shop parameter"})
			return
		}

		state := uuid.NewString()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/api/auth", "", deps.Config.Environment == "production", true)

		logger.Info("Starting OAuth", zap.String("shop", shop))
		c.Redirect(http.StatusFound, deps.OAuth.AuthorizeURL(shop, state))
	}
}

// HandleAuthCallback handles GET /api/auth/callback: verifies the redirect,
// exchanges the code and stores the shop session
func HandleAuthCallback(deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Request.URL.Query()
		shop := config.NormalizeShop(q.Get("shop"))
		if !auth.ValidShopDomain(shop) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shop parameter"})
			return
		}
		if !deps.OAuth.VerifyCallback(q) {
			logger.Warn("OAuth callback signature mismatch", zap.String("shop", shop))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid hmac"})
			return
		}

		cookieState, err := c.Cookie(oauthStateCookie)
		state := q.Get("state")
		if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookieState), []byte(state)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": "oauth state mismatch"})
			return
		}

		code := q.Get("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
			return
		}

		session, err := deps.OAuth.Exchange(c.Request.Context(), shop, code)
		if err != nil {
			respondError(c, logger, "auth/callback", err)
			return
		}
		if err := deps.Repos.Session.Save(c.Request.Context(), session); err != nil {
			logger.Error("Failed to store session", zap.Error(err), zap.String("shop", shop))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if deps.Webhooks != nil && deps.Config.Shopify.HostURL != "" {
			// Not fatal; the install itself succeeded
			if err := deps.Webhooks.RegisterWebhooks(c.Request.Context(), session, deps.Config.Shopify.HostURL+"/api/webhooks"); err != nil {
				logger.Warn("Failed to subscribe webhooks", zap.Error(err), zap.String("shop", shop))
			}
		}

		c.SetCookie(oauthStateCookie, "", -1, "/api/auth", "", deps.Config.Environment == "production", true)
		logger.Info("App installed", zap.String("shop", shop))

		redirect := url.Values{}
		redirect.Set("shop", shop)
		if host := q.Get("host"); host != "" {
			redirect.Set("host", host)
		}
		c.Redirect(http.StatusFound, "/?"+redirect.Encode())
	}
}
