package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phambaophuc/image-normalizer/internal/models"
	"github.com/phambaophuc/image-normalizer/internal/services/processor"
	"go.uber.org/zap"
)

// === REQUEST PARSING ===

func (h *ImageHandler) parseOptions(c *gin.Context) (processor.Options, error) {
	var req models.NormalizeOptions
	if err := c.ShouldBind(&req); err != nil {
		return processor.Options{}, fmt.Errorf("invalid normalize options: %v", err)
	}
	return req.Apply(h.config.NormalizeOptions()), nil
}

func (h *ImageHandler) parseMultipartFiles(c *gin.Context) ([]*multipart.FileHeader, error) {
	if err := c.Request.ParseMultipartForm(h.config.Storage.MaxFileSize * 10); err != nil {
		return nil, fmt.Errorf("failed to parse form data: %w", err)
	}

	files := c.Request.MultipartForm.File[imagesParamKey]
	if len(files) == 0 {
		return nil, fmt.Errorf("no images provided")
	}
	if len(files) > MaxBatchFiles {
		return nil, fmt.Errorf("at most %d images per batch", MaxBatchFiles)
	}

	return files, nil
}

// fileMediaType prefers the part's declared Content-Type and falls back to
// the filename extension.
func fileMediaType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			return mediaType
		}
		return ct
	}
	if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
		mediaType, _, _ := mime.ParseMediaType(byExt)
		return mediaType
	}
	return ""
}

// === FILE OPERATIONS ===

// readUpload loads an uploaded part into memory, refusing parts larger than
// processor.MaxFileSize.
func (h *ImageHandler) readUpload(header *multipart.FileHeader) ([]byte, string, error) {
	const op = "normalize"

	file, err := header.Open()
	if err != nil {
		return nil, "", &processor.Error{Kind: processor.KindReadFailed, Op: op, Err: err}
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, processor.MaxFileSize+1))
	if err != nil {
		return nil, "", &processor.Error{Kind: processor.KindReadFailed, Op: op, Err: err}
	}
	if len(data) > processor.MaxFileSize {
		return nil, "", &processor.Error{Kind: processor.KindInvalidInput, Op: op, Err: processor.ErrTooLarge}
	}

	return data, fileMediaType(header), nil
}

func sourceFromBytes(filename, mediaType string, data []byte) *processor.SourceImage {
	return &processor.SourceImage{
		Filename:  filename,
		MediaType: mediaType,
		Size:      int64(len(data)),
		Reader:    bytes.NewReader(data),
	}
}

func (h *ImageHandler) openSources(files []*multipart.FileHeader) ([]*processor.SourceImage, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, file := range opened {
			file.Close()
		}
	}

	sources := make([]*processor.SourceImage, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)
		sources = append(sources, &processor.SourceImage{
			Filename:  fh.Filename,
			MediaType: fileMediaType(fh),
			Size:      fh.Size,
			Reader:    f,
		})
	}

	return sources, closeAll, nil
}

// === RESPONSE HANDLING ===

func (h *ImageHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// respondBodyError answers 413 when err comes from reading past the body
// limit and 400 with message otherwise.
func (h *ImageHandler) respondBodyError(c *gin.Context, err error, message string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.respondError(c, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	h.respondError(c, http.StatusBadRequest, message)
}

func (h *ImageHandler) respondProcessingError(c *gin.Context, err error) {
	h.respondError(c, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch processor.KindOf(err) {
	case processor.KindInvalidInput:
		return http.StatusBadRequest
	case processor.KindReadFailed, processor.KindDecodeFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *ImageHandler) buildBatchResponse(c *gin.Context, results []processor.BatchResult, files []*multipart.FileHeader) models.BatchResponse {
	response := models.BatchResponse{
		Images:      []models.NormalizeResponse{},
		ProcessedAt: time.Now(),
	}

	var images []*processor.NormalizedImage
	var filenames []string
	for i, result := range results {
		filename := files[i].Filename
		if result.Err != nil {
			h.logger.Warn("Batch item failed",
				zap.Int("index", i),
				zap.String("filename", filename),
				zap.Error(result.Err))
			response.Failed = append(response.Failed, models.BatchFailure{
				Index:    i,
				Filename: filename,
				Error:    result.Err.Error(),
			})
			continue
		}
		images = append(images, result.Image)
		filenames = append(filenames, filename)
	}

	stored := h.uploadBatchToStorage(c.Request.Context(), images, filenames)
	for i, img := range images {
		response.Images = append(response.Images,
			models.NewNormalizeResponse(uuid.New().String(), filenames[i], img, stored[i]))
	}

	return response
}

// === UTILITY METHODS ===

func (h *ImageHandler) calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}

func (h *ImageHandler) hasObjectStore() bool {
	return h.storage != nil && h.storage.HasObjectStore()
}

// === STORAGE OPERATIONS ===

func (h *ImageHandler) uploadToStorage(ctx context.Context, img *processor.NormalizedImage, filename string) models.StoredImage {
	if !h.hasObjectStore() {
		return models.StoredImage{}
	}

	stored, err := h.storage.UploadNormalized(ctx, img, filename)
	if err != nil {
		h.logger.Warn("Failed to upload to storage", zap.Error(err))
		return models.StoredImage{}
	}

	return stored
}

// uploadBatchToStorage returns one entry per image; entries stay empty when
// there is no object store or their upload failed.
func (h *ImageHandler) uploadBatchToStorage(ctx context.Context, images []*processor.NormalizedImage, filenames []string) []models.StoredImage {
	if !h.hasObjectStore() || len(images) == 0 {
		return make([]models.StoredImage, len(images))
	}

	stored, err := h.storage.UploadNormalizedBatch(ctx, images, filenames)
	if err != nil {
		h.logger.Warn("Failed to upload batch to storage", zap.Error(err))
	}
	return stored
}

func (h *ImageHandler) cacheKey(data []byte, opts processor.Options) string {
	if h.storage == nil {
		return ""
	}
	return h.storage.GenerateCacheKey(data, opts)
}

func (h *ImageHandler) tryGetFromCache(ctx context.Context, cacheKey string) (*models.NormalizeResponse, bool) {
	if cacheKey == "" {
		return nil, false
	}

	cachedData, err := h.storage.GetFromCache(ctx, cacheKey)
	if err != nil || cachedData == nil {
		return nil, false
	}

	var cached models.NormalizeResponse
	if err := json.Unmarshal(cachedData, &cached); err != nil {
		h.logger.Warn("Failed to unmarshal cached data", zap.String("cache_key", cacheKey))
		return nil, false
	}

	h.logger.Info("Cache hit", zap.String("cache_key", cacheKey))
	return &cached, true
}

func (h *ImageHandler) setCacheData(ctx context.Context, cacheKey string, response models.NormalizeResponse) {
	if cacheKey == "" {
		return
	}

	data, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := h.storage.SetCache(ctx, cacheKey, data); err != nil {
		h.logger.Warn("Failed to cache data", zap.String("cache_key", cacheKey), zap.Error(err))
	}
}
