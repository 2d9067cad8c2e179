package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phambaophuc/image-normalizer/internal/config"
	"github.com/phambaophuc/image-normalizer/internal/models"
	"github.com/phambaophuc/image-normalizer/internal/services/processor"
	"github.com/phambaophuc/image-normalizer/internal/services/queue"
	"github.com/phambaophuc/image-normalizer/internal/services/storage"
	"github.com/phambaophuc/image-normalizer/pkg/utils"
	"go.uber.org/zap"
)

const (
	imageParamKey  = "image"
	imagesParamKey = "images"
	MaxBatchFiles  = 20
)

// ImageHandler serves the normalization API. storage and queue are optional;
// endpoints that need them degrade or answer 503 when they are nil.
type ImageHandler struct {
	processor *processor.ImageProcessor
	storage   *storage.StorageService
	queue     *queue.QueueService
	logger    *zap.Logger
	config    *config.Config
}

func NewImageHandler(
	processor *processor.ImageProcessor,
	storage *storage.StorageService,
	queue *queue.QueueService,
	logger *zap.Logger,
	config *config.Config,
) *ImageHandler {
	return &ImageHandler{
		processor: processor,
		storage:   storage,
		queue:     queue,
		logger:    logger,
		config:    config,
	}
}

// === MAIN API ENDPOINTS ===

func (h *ImageHandler) ValidateImage(c *gin.Context) {
	header, err := c.FormFile(imageParamKey)
	if err != nil {
		h.respondBodyError(c, err, "No image file provided")
		return
	}

	result := h.processor.Validate(&processor.SourceImage{
		Filename:  header.Filename,
		MediaType: fileMediaType(header),
		Size:      header.Size,
	})

	c.JSON(http.StatusOK, models.APIResponse{
		Success: result.Valid,
		Data:    result,
	})
}

func (h *ImageHandler) NormalizeImage(c *gin.Context) {
	header, err := c.FormFile(imageParamKey)
	if err != nil {
		h.respondBodyError(c, err, "No image file provided")
		return
	}

	opts, err := h.parseOptions(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	data, mediaType, err := h.readUpload(header)
	if err != nil {
		h.respondProcessingError(c, err)
		return
	}

	ctx := c.Request.Context()
	cacheKey := h.cacheKey(data, opts)
	if cached, ok := h.tryGetFromCache(ctx, cacheKey); ok {
		cached.ID = uuid.New().String()
		cached.ProcessedAt = time.Now()
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: cached})
		return
	}

	normalized, err := h.processor.Normalize(sourceFromBytes(header.Filename, mediaType, data), opts)
	if err != nil {
		h.logger.Error("Normalization failed",
			zap.String("filename", header.Filename),
			zap.Error(err))
		h.respondProcessingError(c, err)
		return
	}

	stored := h.uploadToStorage(ctx, normalized, header.Filename)
	response := models.NewNormalizeResponse(uuid.New().String(), header.Filename, normalized, stored)
	h.setCacheData(ctx, cacheKey, response)

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    response,
	})
}

func (h *ImageHandler) BatchNormalize(c *gin.Context) {
	files, err := h.parseMultipartFiles(c)
	if err != nil {
		h.respondBodyError(c, err, err.Error())
		return
	}

	opts, err := h.parseOptions(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	sources, closeAll, err := h.openSources(files)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, "Failed to open files: "+err.Error())
		return
	}
	defer closeAll()

	results := h.processor.NormalizeBatch(sources, opts, h.config.Normalizer.BatchWorkers)
	response := h.buildBatchResponse(c, results, files)

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    response,
	})
}

func (h *ImageHandler) Placeholder(c *gin.Context) {
	header, err := c.FormFile(imageParamKey)
	if err != nil {
		h.respondBodyError(c, err, "No image file provided")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, "Internal file error")
		return
	}
	defer file.Close()

	placeholder, err := h.processor.BlurPlaceholder(&processor.SourceImage{
		Filename:  header.Filename,
		MediaType: fileMediaType(header),
		Size:      header.Size,
		Reader:    file,
	})
	if err != nil {
		h.respondProcessingError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data: models.PlaceholderResponse{
			Placeholder: placeholder.DataURL(),
			Dimensions:  placeholder.Dimensions,
		},
	})
}

// UploadImage stores an image the client already normalized, sent as a
// data URL.
func (h *ImageHandler) UploadImage(c *gin.Context) {
	var req models.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBodyError(c, err, "No image provided")
		return
	}

	mediaType, data, err := utils.ParseDataURL(req.Image)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid image data")
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = utils.GenerateFilename(uuid.New().String()[:8], utils.ExtensionFor(mediaType))
	}

	result := h.processor.Validate(&processor.SourceImage{
		Filename:  filename,
		MediaType: mediaType,
		Size:      int64(len(data)),
	})
	if !result.Valid {
		h.respondError(c, http.StatusBadRequest, result.Error)
		return
	}

	if !h.hasObjectStore() {
		h.respondError(c, http.StatusServiceUnavailable, "Storage is not configured")
		return
	}

	url, err := h.storage.Upload(c.Request.Context(), data, filename, mediaType)
	if err != nil {
		h.logger.Error("Upload failed", zap.String("filename", filename), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to upload image")
		return
	}

	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Data: models.UploadResponse{
			Message: "Image uploaded successfully",
			URL:     url,
		},
	})
}

// DeleteImage removes a stored object. The key is everything after
// /images/, folder included.
func (h *ImageHandler) DeleteImage(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		h.respondError(c, http.StatusBadRequest, "No image key provided")
		return
	}

	if !h.hasObjectStore() {
		h.respondError(c, http.StatusServiceUnavailable, "Storage is not configured")
		return
	}

	if err := h.storage.Delete(c.Request.Context(), key); err != nil {
		h.logger.Error("Delete failed", zap.String("key", key), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to delete image")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data: models.DeleteResponse{
			Message: "Image deleted successfully",
			Key:     key,
		},
	})
}

// HealthCheck
func (h *ImageHandler) HealthCheck(c *gin.Context) {
	services := map[string]string{}
	if h.storage != nil {
		services = h.storage.HealthCheck(c.Request.Context())
	} else {
		services["redis"] = "not configured"
	}
	if h.queue != nil {
		services["rabbitmq"] = h.queue.HealthCheck()
	} else {
		services["rabbitmq"] = "not configured"
	}

	overall := h.calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:         overall,
			Timestamp:      time.Now(),
			StorageBackend: h.config.Storage.Backend,
			Services:       services,
		},
	})
}

func (h *ImageHandler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"defaults":  h.config.NormalizeOptions(),
		"timestamp": time.Now(),
	}

	if h.storage != nil {
		cacheStats, err := h.storage.GetCacheStats(c.Request.Context())
		if err != nil {
			h.logger.Error("Failed to get cache stats", zap.Error(err))
		} else {
			stats["cache"] = cacheStats
		}
	}

	if h.queue != nil {
		queueStats, err := h.queue.GetQueueStats()
		if err != nil {
			h.logger.Error("Failed to get queue stats", zap.Error(err))
		} else {
			stats["queue"] = queueStats
		}
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}
