package processor

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

type ImageProcessor struct {
	filter imaging.ResampleFilter
}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{filter: imaging.Lanczos}
}

// Normalize bounds src to the configured resolution, re-encodes it and,
// when asked, derives a thumbnail. All buffers are local to the call.
func (p *ImageProcessor) Normalize(src *SourceImage, opts Options) (*NormalizedImage, error) {
	const op = "normalize"
	opts = opts.normalized()

	if err := checkSource(op, src); err != nil {
		return nil, err
	}

	data, err := p.readSource(op, src)
	if err != nil {
		return nil, err
	}

	img, err := p.decode(op, data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	original := Dimensions{Width: bounds.Dx(), Height: bounds.Dy()}
	target := TargetDimensions(original, opts.MaxWidth, opts.MaxHeight)

	main, err := p.render(img, target, opts.OutputFormat, opts.Quality)
	if err != nil {
		return nil, err
	}

	var thumbnail *EncodedImage
	if opts.CreateThumbnail {
		thumb := ThumbnailDimensions(target, original.aspect())
		thumbnail, err = p.render(img, thumb, opts.OutputFormat, ThumbnailQuality)
		if err != nil {
			return nil, err
		}
	}

	originalSize := src.Size
	if originalSize <= 0 {
		originalSize = int64(len(data))
	}

	return &NormalizedImage{
		Main:         *main,
		Thumbnail:    thumbnail,
		Dimensions:   target,
		OriginalSize: originalSize,
	}, nil
}

// GetImageInfo decodes src and reports its intrinsic size and format.
func (p *ImageProcessor) GetImageInfo(src *SourceImage) (Dimensions, string, error) {
	const op = "image info"
	if src == nil || src.Reader == nil {
		return Dimensions{}, "", newError(KindInvalidInput, op, ErrNoFile)
	}

	data, err := p.readSource(op, src)
	if err != nil {
		return Dimensions{}, "", err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, "", newError(KindDecodeFailed, op, err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, format, nil
}

func (p *ImageProcessor) render(img image.Image, size Dimensions, format string, quality float64) (*EncodedImage, error) {
	return p.encodeImage(p.stepDown(img, size), format, quality)
}

func checkSource(op string, src *SourceImage) error {
	if src == nil || src.Reader == nil {
		return newError(KindInvalidInput, op, ErrNoFile)
	}
	if !strings.HasPrefix(strings.ToLower(src.MediaType), "image/") {
		return newError(KindInvalidInput, op, fmt.Errorf("%w: got %q", ErrNotAnImage, src.MediaType))
	}
	if src.Size > MaxFileSize {
		return newError(KindInvalidInput, op, ErrTooLarge)
	}
	return nil
}

// readSource loads the raw bytes, refusing to read past MaxFileSize.
func (p *ImageProcessor) readSource(op string, src *SourceImage) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src.Reader, MaxFileSize+1))
	if err != nil {
		return nil, newError(KindReadFailed, op, fmt.Errorf("failed to read file: %w", err))
	}
	if len(data) > MaxFileSize {
		return nil, newError(KindInvalidInput, op, ErrTooLarge)
	}
	return data, nil
}

func (p *ImageProcessor) decode(op string, data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, newError(KindDecodeFailed, op, fmt.Errorf("failed to decode image: %w", err))
	}
	if img.Bounds().Empty() {
		return nil, newError(KindDecodeFailed, op, ErrEmptyImage)
	}
	return img, nil
}
