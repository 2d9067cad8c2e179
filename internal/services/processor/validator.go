package processor

import "slices"

// Validate checks the metadata of src against the accepted types and the
// size limit. Media types are compared exactly. It never reads pixel data.
func (p *ImageProcessor) Validate(src *SourceImage) ValidationResult {
	if src == nil {
		return ValidationResult{Error: "No file selected"}
	}

	if !slices.Contains(AcceptedMediaTypes, src.MediaType) {
		return ValidationResult{Error: "Only JPEG, PNG, GIF, and WebP images are allowed"}
	}

	if src.Size > MaxFileSize {
		return ValidationResult{Error: "Image must be less than 10MB"}
	}

	return ValidationResult{Valid: true}
}
