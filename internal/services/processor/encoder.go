package processor

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// encodeImage encodes img as mediaType. Types without an encoder fall back
// to PNG, and the returned image says so.
func (p *ImageProcessor) encodeImage(img image.Image, mediaType string, quality float64) (*EncodedImage, error) {
	buffer := &bytes.Buffer{}

	var err error
	switch mediaType {
	case "image/jpeg", "image/jpg":
		mediaType = "image/jpeg"
		err = imaging.Encode(buffer, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality(quality)))
	case "image/gif":
		err = imaging.Encode(buffer, img, imaging.GIF)
	default:
		mediaType = "image/png"
		err = imaging.Encode(buffer, img, imaging.PNG)
	}
	if err != nil {
		return nil, newError(KindEncodeFailed, "encode", err)
	}

	bounds := img.Bounds()
	return &EncodedImage{
		Data:       buffer.Bytes(),
		MediaType:  mediaType,
		Dimensions: Dimensions{Width: bounds.Dx(), Height: bounds.Dy()},
	}, nil
}

// jpegQuality maps a 0-1 quality onto the encoder's 1-100 scale.
func jpegQuality(quality float64) int {
	return min(100, max(1, roundHalfUp(quality*100)))
}
