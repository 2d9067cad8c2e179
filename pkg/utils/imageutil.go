package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DownloadImage fetches imageURL and returns at most maxSize bytes together
// with the sniffed content type.
func DownloadImage(ctx context.Context, imageURL string, maxSize int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}

	if len(imageData) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}

	if int64(len(imageData)) > maxSize {
		return nil, "", fmt.Errorf("image exceeds maximum size of %d bytes", maxSize)
	}

	contentType := http.DetectContentType(imageData)
	if !IsValidImageType(contentType) {
		return nil, "", fmt.Errorf("invalid content type: %s", contentType)
	}

	return imageData, contentType, nil
}

// IsValidImageType checks if content type is one of the accepted upload types
func IsValidImageType(contentType string) bool {
	validTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/gif",
		"image/webp",
	}

	ct := strings.ToLower(contentType)
	for _, validType := range validTypes {
		if strings.Contains(ct, validType) {
			return true
		}
	}
	return false
}

// ExtensionFor maps a media type to the file extension used for storage keys.
func ExtensionFor(mediaType string) string {
	switch strings.ToLower(mediaType) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}

// GenerateFilename generates a unique filename for a normalized image
func GenerateFilename(jobID, ext string) string {
	timestamp := time.Now().Unix()
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("normalized_%s_%d.%s", jobID, timestamp, ext)
}

// ReplaceExtension swaps the extension of filename for ext.
func ReplaceExtension(filename, ext string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + "." + ext
}

func GenerateStorageKey(folder, filename string) string {
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filepath.Base(filename), ext)
	if name == "" || name == "." {
		name = "image"
	}
	timestamp := time.Now().Unix()
	uuid := uuid.New().String()[:8]

	if folder == "" {
		return fmt.Sprintf("%s_%d_%s%s", name, timestamp, uuid, ext)
	}
	return fmt.Sprintf("%s/%s_%d_%s%s", strings.Trim(folder, "/"), name, timestamp, uuid, ext)
}
