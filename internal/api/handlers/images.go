package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/api/middleware"
	"github.com/asorevs/image-api-updater/internal/domain"
)

// HandleImageUpload handles POST /api/image/upload.
// Front and back images are saved independently; one failing does not stop
// the other. Images already saved are not rolled back.
func HandleImageUpload(deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req domain.ImageUploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			msg := "invalid request body: " + err.Error()
			c.JSON(http.StatusBadRequest, domain.ImageUploadResponse{Success: false, Error: &msg, Results: []domain.ImageUploadResult{}})
			return
		}

		sides := []struct {
			name string
			url  string
		}{
			{"front", req.Images.FrontImageURL},
			{"back", req.Images.BackImageURL},
		}

		resp := domain.ImageUploadResponse{Success: true, Results: make([]domain.ImageUploadResult, 0, len(sides))}
		for _, side := range sides {
			result := domain.ImageUploadResult{Image: side.name}
			filename, err := deps.Storefront.UploadImage(c.Request.Context(), session, req.ID, req.Images.SizeLabel, side.url)
			if err != nil {
				logger.Error("Failed to process image/upload",
					zap.Error(err),
					zap.Int64("product_id", req.ID),
					zap.String("image", side.name),
				)
				result.Error = err.Error()
				if resp.Success {
					msg := err.Error()
					resp.Error = &msg
				}
				resp.Success = false
				deps.Metrics.ImageUploads.WithLabelValues(side.name, "error").Inc()
			} else {
				result.Success = true
				result.Filename = filename
				deps.Metrics.ImageUploads.WithLabelValues(side.name, "ok").Inc()
			}
			resp.Results = append(resp.Results, result)
		}

		status := http.StatusOK
		if !resp.Success {
			status = http.StatusInternalServerError
		}
		c.JSON(status, resp)
	}
}
