package processor

const (
	DefaultMaxWidth     = 1920
	DefaultMaxHeight    = 1920
	DefaultQuality      = 0.92
	DefaultOutputFormat = "image/jpeg"
	DefaultWorkers      = 5
)

// Options controls a single Normalize call. Quality is in the 0-1 range.
type Options struct {
	MaxWidth        int     `json:"max_width"`
	MaxHeight       int     `json:"max_height"`
	Quality         float64 `json:"quality"`
	OutputFormat    string  `json:"output_format"`
	CreateThumbnail bool    `json:"create_thumbnail"`
}

var DefaultOptions = Options{
	MaxWidth:        DefaultMaxWidth,
	MaxHeight:       DefaultMaxHeight,
	Quality:         DefaultQuality,
	OutputFormat:    DefaultOutputFormat,
	CreateThumbnail: true,
}

// normalized fills unset bounds and format with defaults and clamps quality.
func (o Options) normalized() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	if o.OutputFormat == "" {
		o.OutputFormat = DefaultOutputFormat
	}
	o.Quality = min(1.0, max(0.0, o.Quality))
	return o
}
