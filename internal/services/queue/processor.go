package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/phambaophuc/image-normalizer/internal/models"
	"github.com/phambaophuc/image-normalizer/internal/services/processor"
	"github.com/phambaophuc/image-normalizer/internal/services/storage"
	"github.com/phambaophuc/image-normalizer/pkg/utils"
	"go.uber.org/zap"
)

func (q *QueueService) processJob(ctx context.Context, job *models.NormalizeJob) (*models.NormalizeResponse, error) {
	imageData, contentType, err := q.fetchSource(ctx, job)
	if err != nil {
		return nil, err
	}

	opts := job.Options.Apply(q.defaults)

	cacheKey := q.storage.GenerateCacheKey(imageData, opts)
	cachedData, err := q.storage.GetFromCache(ctx, cacheKey)
	if err == nil && cachedData != nil {
		var cachedResult models.NormalizeResponse
		if err := json.Unmarshal(cachedData, &cachedResult); err == nil {
			q.logger.Info("Cache hit", zap.String("job_id", job.ID))
			cachedResult.ID = job.ID
			cachedResult.ProcessedAt = time.Now()
			return &cachedResult, nil
		}
		q.logger.Warn("Failed to unmarshal cached data", zap.String("job_id", job.ID))
	}

	normalized, err := q.processor.Normalize(&processor.SourceImage{
		Filename:  job.Filename,
		MediaType: contentType,
		Size:      int64(len(imageData)),
		Reader:    bytes.NewReader(imageData),
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize image: %w", err)
	}

	filename := job.Filename
	if filename == "" {
		filename = utils.GenerateFilename(job.ID, utils.ExtensionFor(normalized.Main.MediaType))
	}

	stored, err := q.storage.UploadNormalized(ctx, normalized, filename)
	if err != nil && !errors.Is(err, storage.ErrNoObjectStore) {
		return nil, fmt.Errorf("failed to save normalized image: %w", err)
	}

	result := models.NewNormalizeResponse(job.ID, filename, normalized, stored)
	result.DropInlineData()

	resultBytes, err := json.Marshal(result)
	if err != nil {
		q.logger.Warn("Failed to marshal result for cache", zap.String("job_id", job.ID), zap.Error(err))
		return &result, nil
	}
	if err := q.storage.SetCache(ctx, cacheKey, resultBytes); err != nil {
		q.logger.Warn("Failed to cache result", zap.Error(err))
	}

	return &result, nil
}

func (q *QueueService) fetchSource(ctx context.Context, job *models.NormalizeJob) ([]byte, string, error) {
	switch {
	case job.ImageURL != "":
		data, contentType, err := utils.DownloadImage(ctx, job.ImageURL, processor.MaxFileSize)
		if err != nil {
			return nil, "", fmt.Errorf("failed to download image: %w", err)
		}
		return data, contentType, nil
	case job.ObjectKey != "":
		data, err := q.storage.Download(ctx, job.ObjectKey)
		if err != nil {
			return nil, "", fmt.Errorf("failed to fetch object %s: %w", job.ObjectKey, err)
		}
		return data, http.DetectContentType(data), nil
	default:
		return nil, "", fmt.Errorf("job %s has no image source", job.ID)
	}
}
