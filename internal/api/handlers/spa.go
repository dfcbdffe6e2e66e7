package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/config"
	apperrors "github.com/asorevs/image-api-updater/pkg/errors"
)

// HandleFrontend serves files from the static directory and falls back to
// index.html for client-side routes once the shop is known to be installed.
// Registered as the router's NoRoute handler.
func HandleFrontend(deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		root := deps.Config.StaticPath
		if rel := filepath.Clean("/" + path); rel != "/" {
			file := filepath.Join(root, filepath.FromSlash(rel))
			if fi, err := os.Stat(file); err == nil && !fi.IsDir() {
				c.File(file)
				return
			}
		}

		shop := config.NormalizeShop(c.Query("shop"))
		if shop == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing shop parameter"})
			return
		}
		if _, err := deps.Repos.Session.GetByShop(c.Request.Context(), shop); err != nil {
			var nf *apperrors.ErrNotFound
			if errors.As(err, &nf) {
				c.Redirect(http.StatusFound, "/api/auth?shop="+url.QueryEscape(shop))
				return
			}
			logger.Error("Failed to check installation", zap.Error(err), zap.String("shop", shop))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		index := filepath.Join(root, "index.html")
		if _, err := os.Stat(index); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "frontend not built"})
			return
		}
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.File(index)
	}
}
