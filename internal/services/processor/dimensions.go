package processor

import "math"

// TargetDimensions bounds src to the maximums while keeping its aspect
// ratio. Only the dominant axis is compared with its maximum: a landscape
// (or square) image is clamped on width, a portrait image on height.
// Images already inside the bounds are never upscaled.
func TargetDimensions(src Dimensions, maxWidth, maxHeight int) Dimensions {
	aspect := src.aspect()
	width, height := src.Width, src.Height

	if src.Width >= src.Height {
		if src.Width > maxWidth {
			width = maxWidth
			height = roundHalfUp(float64(width) / aspect)
		}
	} else {
		if src.Height > maxHeight {
			height = maxHeight
			width = roundHalfUp(float64(height) * aspect)
		}
	}

	return Dimensions{Width: max(1, width), Height: max(1, height)}
}

// ThumbnailDimensions derives the thumbnail size from the main image size
// and the source aspect ratio.
func ThumbnailDimensions(target Dimensions, aspect float64) Dimensions {
	width := min(target.Width, ThumbnailWidth)
	return Dimensions{
		Width:  width,
		Height: max(1, roundHalfUp(float64(width)/aspect)),
	}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
