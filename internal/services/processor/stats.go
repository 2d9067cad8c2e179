package processor

import (
	"math"
	"strconv"
)

type CompressionStats struct {
	OriginalSize    int64 `json:"original_size"`
	CompressedSize  int64 `json:"compressed_size"`
	SavedPercentage int   `json:"saved_percentage"`
}

// CompressionRatio compares originalSize with the byte length represented
// by a base64 payload (four characters per three bytes).
func CompressionRatio(originalSize int64, encoded string) CompressionStats {
	compressed := int64(len(encoded)) * 3 / 4

	stats := CompressionStats{
		OriginalSize:   originalSize,
		CompressedSize: compressed,
	}
	if originalSize > 0 {
		ratio := float64(originalSize-compressed) / float64(originalSize) * 100
		stats.SavedPercentage = roundHalfUp(ratio)
	}
	return stats
}

var byteUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatBytes renders n with the largest base-1024 unit it reaches,
// rounded to two decimals.
func FormatBytes(n int64) string {
	if n == 0 {
		return "0 Bytes"
	}

	unit := 0
	threshold := int64(1024)
	for unit < len(byteUnits)-1 && n >= threshold {
		unit++
		threshold *= 1024
	}

	value := float64(n) / math.Pow(1024, float64(unit))
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + byteUnits[unit]
}
