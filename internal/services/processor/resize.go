package processor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// stepDown renders img at exactly target. Large reductions go through
// intermediate buffers; each stage consumes the previous one.
func (p *ImageProcessor) stepDown(img image.Image, target Dimensions) image.Image {
	bounds := img.Bounds()
	src := Dimensions{Width: bounds.Dx(), Height: bounds.Dy()}

	var current image.Image = img
	for _, size := range stepSizes(src, target) {
		current = imaging.Resize(current, size.Width, size.Height, p.filter)
	}
	return current
}

// stepSizes lists the size of every stage used to go from src to target.
// The last entry is always target.
func stepSizes(src, target Dimensions) []Dimensions {
	if target.Width >= src.Width && target.Height >= src.Height {
		return []Dimensions{target}
	}

	scale := math.Max(
		float64(src.Width)/float64(target.Width),
		float64(src.Height)/float64(target.Height),
	)
	steps := int(math.Ceil(math.Log2(scale)))
	if steps < 1 {
		steps = 1
	}

	sizes := make([]Dimensions, 0, steps)
	for i := 0; i < steps; i++ {
		if i == steps-1 {
			sizes = append(sizes, target)
			break
		}
		ratio := math.Pow(0.5, float64(steps-i))
		sizes = append(sizes, Dimensions{
			Width:  max(target.Width, int(math.Floor(float64(src.Width)*ratio))),
			Height: max(target.Height, int(math.Floor(float64(src.Height)*ratio))),
		})
	}
	return sizes
}
