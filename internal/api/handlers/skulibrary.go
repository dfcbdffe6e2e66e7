package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleGetCatalogProduct handles GET /api/skulibrary/product?ean=.
// The catalog response is passed through unchanged.
func HandleGetCatalogProduct(deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ean := strings.TrimSpace(c.Query("ean"))
		if ean == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ean query parameter is required"})
			return
		}

		lookup, err := deps.Catalog.LookupByEAN(c.Request.Context(), ean)
		if err != nil {
			deps.Metrics.CatalogLookups.WithLabelValues("error").Inc()
			respondError(c, logger, "skulibrary/product", err)
			return
		}

		outcome := "found"
		if !lookup.Found {
			outcome = "not_found"
		}
		deps.Metrics.CatalogLookups.WithLabelValues(outcome).Inc()
		logger.Debug("Catalog lookup served", zap.String("ean", ean), zap.String("outcome", outcome))
		c.Data(http.StatusOK, "application/json", lookup.Raw)
	}
}
