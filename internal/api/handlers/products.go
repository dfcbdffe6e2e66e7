package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/api/middleware"
	"github.com/asorevs/image-api-updater/internal/service"
	apperrors "github.com/asorevs/image-api-updater/pkg/errors"
)

// MaxCreateBodyBytes bounds the body of POST /api/products/create
const MaxCreateBodyBytes = 64 << 10

// HandleListProducts handles GET /api/products
func HandleListProducts(deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		products, err := deps.Storefront.ListProducts(c.Request.Context(), session)
		if err != nil {
			respondError(c, logger, "products", err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// HandleCountProducts handles GET /api/products/count
func HandleCountProducts(deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		count, err := deps.Storefront.CountProducts(c.Request.Context(), session)
		if err != nil {
			respondError(c, logger, "products/count", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

// HandleGenerateProducts handles GET /api/products/generate
func HandleGenerateProducts(deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := deps.Storefront.CreateSampleProducts(c.Request.Context(), session); err != nil {
			logger.Error("Failed to process products/generate", zap.Error(err), zap.String("shop", session.Shop))
			respondResult(c, http.StatusInternalServerError, err)
			return
		}
		respondResult(c, http.StatusOK, nil)
	}
}

// HandleCreateProduct handles POST /api/products/create. The body must be a
// JSON object; its compact form becomes the template product's description.
func HandleCreateProduct(deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxCreateBodyBytes)
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondResult(c, http.StatusRequestEntityTooLarge, errors.New("request body too large"))
				return
			}
			respondResult(c, http.StatusBadRequest, errors.New("failed to read body"))
			return
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			respondResult(c, http.StatusBadRequest, errors.New("request body must be a JSON object"))
			return
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			respondResult(c, http.StatusBadRequest, errors.New("request body must be a JSON object"))
			return
		}

		err = deps.Storefront.CreateProduct(c.Request.Context(), session, service.NewTemplateDraft(compact.String()))
		if err != nil {
			logger.Error("Failed to process products/create", zap.Error(err), zap.String("shop", session.Shop))
			var ve *apperrors.ErrValidation
			if errors.As(err, &ve) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": ve.Error(), "fields": ve.Fields})
				return
			}
			respondResult(c, http.StatusInternalServerError, err)
			return
		}
		respondResult(c, http.StatusOK, nil)
	}
}
