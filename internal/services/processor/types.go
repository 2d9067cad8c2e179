package processor

import (
	"encoding/base64"
	"io"

	"github.com/phambaophuc/image-normalizer/pkg/utils"
)

const (
	MaxFileSize        = 10 << 20 // 10MB
	ThumbnailWidth     = 400
	ThumbnailQuality   = 0.7
	PlaceholderWidth   = 10
	PlaceholderQuality = 0.1
)

// AcceptedMediaTypes lists the media types the validator lets through.
var AcceptedMediaTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
}

// SourceImage is a raw image handed in by a caller. Size is the declared
// byte size; Reader yields the bytes themselves.
type SourceImage struct {
	Filename  string
	MediaType string
	Size      int64
	Reader    io.Reader
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (d Dimensions) aspect() float64 {
	return float64(d.Width) / float64(d.Height)
}

// EncodedImage holds encoded bytes together with the media type they were
// encoded as.
type EncodedImage struct {
	Data       []byte
	MediaType  string
	Dimensions Dimensions
}

func (e *EncodedImage) Base64() string {
	return base64.StdEncoding.EncodeToString(e.Data)
}

// DataURL renders the image as a data: URL, the form downstream consumers
// store and serve back as an image source.
func (e *EncodedImage) DataURL() string {
	return utils.FormatDataURL(e.MediaType, e.Data)
}

func (e *EncodedImage) Size() int {
	return len(e.Data)
}

type NormalizedImage struct {
	Main         EncodedImage
	Thumbnail    *EncodedImage
	Dimensions   Dimensions
	OriginalSize int64
}

// Stats reports how much the main image shrank compared to the source.
func (n *NormalizedImage) Stats() CompressionStats {
	return CompressionRatio(n.OriginalSize, n.Main.Base64())
}

type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}
