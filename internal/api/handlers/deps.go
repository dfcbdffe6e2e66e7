package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/auth"
	"github.com/asorevs/image-api-updater/internal/config"
	"github.com/asorevs/image-api-updater/internal/metrics"
	"github.com/asorevs/image-api-updater/internal/repository"
	"github.com/asorevs/image-api-updater/internal/service"
	"github.com/asorevs/image-api-updater/internal/skulibrary"
	apperrors "github.com/asorevs/image-api-updater/pkg/errors"
)

// CatalogLookup is the part of the SKU library client the relay uses
type CatalogLookup interface {
	LookupByEAN(ctx context.Context, ean string) (*skulibrary.Lookup, error)
}

// Deps are the collaborators shared by all handlers
type Deps struct {
	Config     *config.Config
	Repos      *repository.Repositories
	Storefront service.Storefront
	Catalog    CatalogLookup
	OAuth      *auth.OAuth
	Metrics    *metrics.Metrics
	// Webhooks is optional; without it the install skips webhook subscription
	Webhooks   service.WebhookRegistrar
}

// statusFor maps typed errors to an HTTP status. Anything untyped is
// treated as an upstream failure.
func statusFor(err error) int {
	var (
		ve *apperrors.ErrValidation
		ue *apperrors.ErrUnauthorized
		ne *apperrors.ErrNotFound
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ue):
		return http.StatusUnauthorized
	case errors.As(err, &ne):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// respondError logs and writes {"error": ...} for read endpoints
func respondError(c *gin.Context, logger *zap.Logger, route string, err error) {
	status := statusFor(err)
	logger.Error("Failed to process "+route, zap.Error(err), zap.Int("status", status))
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondResult writes the {success, error} envelope used by mutating endpoints
func respondResult(c *gin.Context, status int, err error) {
	if err == nil {
		c.JSON(status, gin.H{"success": true, "error": nil})
		return
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}
