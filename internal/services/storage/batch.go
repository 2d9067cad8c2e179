package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/phambaophuc/image-normalizer/internal/models"
	"github.com/phambaophuc/image-normalizer/internal/services/processor"
	"github.com/phambaophuc/image-normalizer/pkg/utils"
	"golang.org/x/sync/errgroup"
)

const uploadConcurrency = 5

// UploadMultiple uploads files concurrently. The returned slice is aligned
// with files; entries that failed are empty and reported together in the
// error.
func (s *StorageService) UploadMultiple(ctx context.Context, files []models.UploadFile) ([]string, error) {
	urls := make([]string, len(files))
	failures := make([]error, len(files))

	var group errgroup.Group
	group.SetLimit(uploadConcurrency)

	for i, file := range files {
		group.Go(func() error {
			urls[i], failures[i] = s.Upload(ctx, file.Data, file.Filename, file.ContentType)
			return nil
		})
	}
	_ = group.Wait()

	var failed []string
	for i, err := range failures {
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s (#%d): %v", files[i].Filename, i, err))
		}
	}
	if len(failed) > 0 {
		return urls, fmt.Errorf("failed to upload %d files: %s", len(failed), strings.Join(failed, "; "))
	}

	return urls, nil
}

// UploadNormalizedBatch stores every image of a batch and its thumbnail
// through UploadMultiple. The result is aligned with images; an image whose
// upload failed keeps empty URLs and is named in the error.
func (s *StorageService) UploadNormalizedBatch(ctx context.Context, images []*processor.NormalizedImage, filenames []string) ([]models.StoredImage, error) {
	stored := make([]models.StoredImage, len(images))
	if s.objects == nil {
		return stored, ErrNoObjectStore
	}

	type slot struct {
		owner int
		thumb bool
	}
	var files []models.UploadFile
	var slots []slot
	for i, img := range images {
		for k, file := range normalizedFiles(img, filenames[i]) {
			files = append(files, file)
			slots = append(slots, slot{owner: i, thumb: k > 0})
		}
	}

	urls, err := s.UploadMultiple(ctx, files)
	for j, url := range urls {
		if slots[j].thumb {
			stored[slots[j].owner].ThumbnailURL = url
		} else {
			stored[slots[j].owner].MainURL = url
		}
	}

	return stored, err
}

// normalizedFiles lists the main image then, when present, the thumbnail.
func normalizedFiles(img *processor.NormalizedImage, filename string) []models.UploadFile {
	files := []models.UploadFile{{
		Data:        img.Main.Data,
		Filename:    utils.ReplaceExtension(filename, utils.ExtensionFor(img.Main.MediaType)),
		ContentType: img.Main.MediaType,
	}}
	if img.Thumbnail != nil {
		files = append(files, models.UploadFile{
			Data:        img.Thumbnail.Data,
			Filename:    utils.ReplaceExtension(filename, "thumb."+utils.ExtensionFor(img.Thumbnail.MediaType)),
			ContentType: img.Thumbnail.MediaType,
		})
	}
	return files
}
