package processor

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func gradient(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(1, width-1)),
				G: uint8(y * 255 / max(1, height-1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func pngSource(t *testing.T, width, height int) *SourceImage {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(width, height)))
	return &SourceImage{
		Filename:  "sample.png",
		MediaType: "image/png",
		Size:      int64(buf.Len()),
		Reader:    bytes.NewReader(buf.Bytes()),
	}
}

func jpegSource(t *testing.T, width, height int) *SourceImage {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(width, height), &jpeg.Options{Quality: 95}))
	return &SourceImage{
		Filename:  "sample.jpg",
		MediaType: "image/jpeg",
		Size:      int64(buf.Len()),
		Reader:    bytes.NewReader(buf.Bytes()),
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk unplugged")
}

func decodeEncoded(t *testing.T, enc *EncodedImage) image.Image {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(enc.Data))
	require.NoError(t, err)
	return img
}
