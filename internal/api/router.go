package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/api/handlers"
	"github.com/asorevs/image-api-updater/internal/api/middleware"
)

// NewRouter creates and configures the Gin router
func NewRouter(deps *handlers.Deps, logger *zap.Logger) *gin.Engine {
	if deps.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))
	router.Use(middleware.RequestMetrics(deps.Metrics))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	// OAuth and webhooks authenticate on their own (HMAC), not with session tokens
	router.GET("/api/auth", handlers.HandleAuthBegin(deps, logger))
	router.GET("/api/auth/callback", handlers.HandleAuthCallback(deps, logger))
	router.POST("/api/webhooks", handlers.HandleWebhook(deps, logger))

	// Everything else under /api requires an active shop session
	apiRoutes := router.Group("/api")
	apiRoutes.Use(middleware.ValidateAuthenticatedSession(deps.Config, deps.Repos, logger))
	{
		apiRoutes.GET("/skulibrary/product", handlers.HandleGetCatalogProduct(deps, logger))
		apiRoutes.GET("/products", handlers.HandleListProducts(deps, logger))
		apiRoutes.GET("/products/count", handlers.HandleCountProducts(deps, logger))
		apiRoutes.GET("/products/generate", handlers.HandleGenerateProducts(deps, logger))
		apiRoutes.POST("/image/upload", handlers.HandleImageUpload(deps, logger))
		apiRoutes.POST("/products/create", handlers.HandleCreateProduct(deps, logger))
	}

	router.NoRoute(handlers.HandleFrontend(deps, logger))

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

// loggingMiddleware logs HTTP requests. The query string is left out since
// OAuth callbacks carry the authorization code in it.
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
		)
	}
}
