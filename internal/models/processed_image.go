package models

import (
	"time"

	"github.com/phambaophuc/image-normalizer/internal/services/processor"
)

// NormalizeOptions is the wire form of processor.Options. Unset fields fall
// back to the server defaults.
type NormalizeOptions struct {
	MaxWidth        int      `json:"max_width,omitempty" form:"max_width" binding:"omitempty,min=1"`
	MaxHeight       int      `json:"max_height,omitempty" form:"max_height" binding:"omitempty,min=1"`
	Quality         *float64 `json:"quality,omitempty" form:"quality" binding:"omitempty,min=0,max=1"`
	Format          string   `json:"format,omitempty" form:"format" binding:"omitempty,oneof=image/jpeg image/jpg image/png image/gif image/webp"`
	CreateThumbnail *bool    `json:"thumbnail,omitempty" form:"thumbnail"`
}

// Apply overlays the set fields on base.
func (o NormalizeOptions) Apply(base processor.Options) processor.Options {
	if o.MaxWidth > 0 {
		base.MaxWidth = o.MaxWidth
	}
	if o.MaxHeight > 0 {
		base.MaxHeight = o.MaxHeight
	}
	if o.Quality != nil {
		base.Quality = *o.Quality
	}
	if o.Format != "" {
		base.OutputFormat = o.Format
	}
	if o.CreateThumbnail != nil {
		base.CreateThumbnail = *o.CreateThumbnail
	}
	return base
}

type ImagePayload struct {
	DataURL       string               `json:"data_url,omitempty"`
	MediaType     string               `json:"media_type"`
	Dimensions    processor.Dimensions `json:"dimensions"`
	Size          int                  `json:"size"`
	FormattedSize string               `json:"formatted_size"`
	URL           string               `json:"url,omitempty"`
}

type CompressionSummary struct {
	processor.CompressionStats
	OriginalFormatted   string `json:"original_formatted"`
	CompressedFormatted string `json:"compressed_formatted"`
}

type NormalizeResponse struct {
	ID          string               `json:"id"`
	Filename    string               `json:"filename"`
	Main        ImagePayload         `json:"main"`
	Thumbnail   *ImagePayload        `json:"thumbnail,omitempty"`
	Dimensions  processor.Dimensions `json:"dimensions"`
	Stats       CompressionSummary   `json:"stats"`
	ProcessedAt time.Time            `json:"processed_at"`
}

type PlaceholderResponse struct {
	Placeholder string               `json:"placeholder"`
	Dimensions  processor.Dimensions `json:"dimensions"`
}

// NewNormalizeResponse flattens a normalized image into its API shape.
func NewNormalizeResponse(id, filename string, img *processor.NormalizedImage, stored StoredImage) NormalizeResponse {
	stats := img.Stats()
	resp := NormalizeResponse{
		ID:         id,
		Filename:   filename,
		Main:       newImagePayload(&img.Main, stored.MainURL),
		Dimensions: img.Dimensions,
		Stats: CompressionSummary{
			CompressionStats:    stats,
			OriginalFormatted:   processor.FormatBytes(stats.OriginalSize),
			CompressedFormatted: processor.FormatBytes(stats.CompressedSize),
		},
		ProcessedAt: time.Now(),
	}
	if img.Thumbnail != nil {
		thumb := newImagePayload(img.Thumbnail, stored.ThumbnailURL)
		resp.Thumbnail = &thumb
	}
	return resp
}

func newImagePayload(img *processor.EncodedImage, url string) ImagePayload {
	return ImagePayload{
		DataURL:       img.DataURL(),
		MediaType:     img.MediaType,
		Dimensions:    img.Dimensions,
		Size:          img.Size(),
		FormattedSize: processor.FormatBytes(int64(img.Size())),
		URL:           url,
	}
}

// StoredImage holds the public URLs of an uploaded normalized image.
type StoredImage struct {
	MainURL      string `json:"main_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// DropInlineData clears the data URLs of payloads that were uploaded, so
// stored job results only carry links.
func (r *NormalizeResponse) DropInlineData() {
	if r.Main.URL != "" {
		r.Main.DataURL = ""
	}
	if r.Thumbnail != nil && r.Thumbnail.URL != "" {
		r.Thumbnail.DataURL = ""
	}
}
