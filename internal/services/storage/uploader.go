package storage

import (
	"context"
	"fmt"

	"github.com/phambaophuc/image-normalizer/internal/models"
	"github.com/phambaophuc/image-normalizer/internal/services/processor"
	"github.com/phambaophuc/image-normalizer/pkg/utils"
)

// Upload stores data under a fresh key derived from filename and returns
// its public URL.
func (s *StorageService) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if s.objects == nil {
		return "", ErrNoObjectStore
	}

	key := utils.GenerateStorageKey(s.folder, filename)
	url, err := s.objects.Put(ctx, key, data, contentType)
	if err != nil {
		return "", err
	}
	return url, nil
}

// UploadNormalized stores the main image and, when present, its thumbnail.
func (s *StorageService) UploadNormalized(ctx context.Context, img *processor.NormalizedImage, filename string) (models.StoredImage, error) {
	var stored models.StoredImage

	files := normalizedFiles(img, filename)
	url, err := s.Upload(ctx, files[0].Data, files[0].Filename, files[0].ContentType)
	if err != nil {
		return stored, fmt.Errorf("failed to upload main image: %w", err)
	}
	stored.MainURL = url

	if len(files) > 1 {
		url, err := s.Upload(ctx, files[1].Data, files[1].Filename, files[1].ContentType)
		if err != nil {
			return stored, fmt.Errorf("failed to upload thumbnail: %w", err)
		}
		stored.ThumbnailURL = url
	}

	return stored, nil
}

func (s *StorageService) Download(ctx context.Context, key string) ([]byte, error) {
	if s.objects == nil {
		return nil, ErrNoObjectStore
	}
	return s.objects.Get(ctx, key)
}

// Delete removes file from the object store
func (s *StorageService) Delete(ctx context.Context, key string) error {
	if s.objects == nil {
		return ErrNoObjectStore
	}
	return s.objects.Remove(ctx, key)
}
