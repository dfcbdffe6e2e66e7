package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/auth"
	"github.com/asorevs/image-api-updater/internal/config"
	"github.com/asorevs/image-api-updater/internal/domain"
	"github.com/asorevs/image-api-updater/internal/repository"
)

const SessionContextKey = "shopify_session"

// Headers App Bridge reads to restart OAuth from inside the admin
const (
	reauthorizeHeader    = "X-Shopify-API-Request-Failure-Reauthorize"
	reauthorizeURLHeader = "X-Shopify-API-Request-Failure-Reauthorize-Url"
)

// ValidateAuthenticatedSession requires a valid session token and a stored
// session for the token's shop
func ValidateAuthenticatedSession(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := auth.ParseSessionToken(cfg.Shopify.APIKey, cfg.Shopify.APISecret, parts[1])
		if err != nil {
			logger.Warn("Rejected session token", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			c.Abort()
			return
		}

		shop := claims.Shop()
		session, err := repos.Session.GetByShop(c.Request.Context(), shop)
		if err != nil {
			logger.Info("No stored session for shop, reauthorization required", zap.String("shop", shop), zap.Error(err))
			c.Header(reauthorizeHeader, "1")
			c.Header(reauthorizeURLHeader, "/api/auth?shop="+url.QueryEscape(shop))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "shop is not installed"})
			c.Abort()
			return
		}

		c.Set(SessionContextKey, session)
		c.Next()
	}
}

// GetSessionFromContext retrieves the shop session from the Gin context
func GetSessionFromContext(c *gin.Context) (*domain.Session, bool) {
	session, exists := c.Get(SessionContextKey)
	if !exists {
		return nil, false
	}

	s, ok := session.(*domain.Session)
	return s, ok
}
