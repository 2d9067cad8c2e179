package processor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{1, "1 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1234567, "1.18 MB"},
		{10 << 20, "10 MB"},
		{3 << 30, "3 GB"},
		{2048 << 30, "2048 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in), "FormatBytes(%d)", tt.in)
	}
}

func TestCompressionRatio(t *testing.T) {
	stats := CompressionRatio(1000, strings.Repeat("A", 800))
	assert.Equal(t, CompressionStats{OriginalSize: 1000, CompressedSize: 600, SavedPercentage: 40}, stats)
}

func TestCompressionRatioInflated(t *testing.T) {
	stats := CompressionRatio(300, strings.Repeat("A", 800))
	assert.Equal(t, int64(600), stats.CompressedSize)
	assert.Equal(t, -100, stats.SavedPercentage)
}

func TestCompressionRatioFloorsLength(t *testing.T) {
	stats := CompressionRatio(10, strings.Repeat("A", 7))
	assert.Equal(t, int64(5), stats.CompressedSize)
	assert.Equal(t, 50, stats.SavedPercentage)
}

func TestCompressionRatioZeroOriginal(t *testing.T) {
	stats := CompressionRatio(0, "AAAA")
	assert.Equal(t, 0, stats.SavedPercentage)
}
