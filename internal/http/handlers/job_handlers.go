package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phambaophuc/image-normalizer/internal/models"
	"github.com/phambaophuc/image-normalizer/internal/services/storage"
	"go.uber.org/zap"
)

// NormalizeAsync queues a normalization of a remote or stored image and
// answers with the pending job.
func (h *ImageHandler) NormalizeAsync(c *gin.Context) {
	if h.queue == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Queue is not available")
		return
	}

	var req models.AsyncNormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBodyError(c, err, "image_url or object_key is required")
		return
	}

	if req.ImageURL != "" {
		u, err := url.Parse(req.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			h.respondError(c, http.StatusBadRequest, "image_url must be an http(s) URL")
			return
		}
	}

	job := &models.NormalizeJob{
		ID:        uuid.New().String(),
		ImageURL:  req.ImageURL,
		ObjectKey: req.ObjectKey,
		Filename:  req.Filename,
		Options:   req.Options,
	}

	if err := h.queue.PublishJob(c.Request.Context(), job); err != nil {
		h.logger.Error("Failed to publish job", zap.String("job_id", job.ID), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to queue job")
		return
	}

	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Data:    job,
	})
}

func (h *ImageHandler) GetJob(c *gin.Context) {
	if h.storage == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Job store is not available")
		return
	}

	job, err := h.storage.GetJob(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrJobNotFound) {
		h.respondError(c, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to load job", zap.String("job_id", c.Param("id")), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to load job")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    job,
	})
}
