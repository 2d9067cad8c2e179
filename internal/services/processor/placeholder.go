package processor

import (
	"github.com/disintegration/imaging"
)

// BlurPlaceholder produces a tiny, heavily compressed JPEG meant to be
// stretched and blurred while the real image loads.
func (p *ImageProcessor) BlurPlaceholder(src *SourceImage) (*EncodedImage, error) {
	const op = "placeholder"
	if src == nil || src.Reader == nil {
		return nil, newError(KindInvalidInput, op, ErrNoFile)
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
	aspect := float64(bounds.Dx()) / float64(bounds.Dy())
	height := max(1, roundHalfUp(PlaceholderWidth/aspect))

	tiny := imaging.Resize(img, PlaceholderWidth, height, p.filter)
	return p.encodeImage(tiny, "image/jpeg", PlaceholderQuality)
}
