package domain

import (
	"fmt"
	"strings"
	"time"
)

// SizePreset names a bounding box used when resizing images.
type SizePreset string

const (
	PresetThumbnail   SizePreset = "thumbnail"
	PresetSmall       SizePreset = "small"
	PresetMedium      SizePreset = "medium"
	PresetLarge       SizePreset = "large"
	PresetXLarge      SizePreset = "xlarge"
	PresetPlaceholder SizePreset = "placeholder"
	PresetBlur        SizePreset = "blur"
	PresetCustom      SizePreset = "custom"
)

// presetBounds maps each named preset to its (maxWidth, maxHeight) box.
var presetBounds = map[SizePreset][2]int{
	PresetThumbnail:   {150, 150},
	PresetSmall:       {320, 320},
	PresetMedium:      {800, 800},
	PresetLarge:       {1280, 1280},
	PresetXLarge:      {1920, 1920},
	PresetPlaceholder: {40, 40},
	PresetBlur:        {20, 20},
}

// TargetSize is a resolved resize target. For PresetCustom the explicit
// Width/Height carry the bounding box; for named presets they mirror the
// preset table.
type TargetSize struct {
	Preset SizePreset
	Width  int
	Height int
}

// ResolveSizePreset parses a preset name into a TargetSize.
// An empty name resolves to the medium preset.
func ResolveSizePreset(name string) (TargetSize, error) {
	if name == "" {
		name = string(PresetMedium)
	}
	preset := SizePreset(strings.ToLower(name))
	bounds, ok := presetBounds[preset]
	if !ok {
		return TargetSize{}, fmt.Errorf("unknown size preset: %s", name)
	}
	return TargetSize{Preset: preset, Width: bounds[0], Height: bounds[1]}, nil
}

// CustomSize builds a TargetSize from explicit pixel dimensions.
func CustomSize(width, height int) (TargetSize, error) {
	if width <= 0 || height <= 0 {
		return TargetSize{}, fmt.Errorf("custom size must be positive: %dx%d", width, height)
	}
	return TargetSize{Preset: PresetCustom, Width: width, Height: height}, nil
}

// Format is the requested output encoding.
type Format string

const (
	FormatWebP Format = "webp"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatAuto Format = "auto"
)

// ResolveFormat parses a format name. Empty resolves to auto.
func ResolveFormat(name string) (Format, error) {
	if name == "" {
		return FormatAuto, nil
	}
	switch f := Format(strings.ToLower(name)); f {
	case FormatWebP, FormatJPEG, FormatPNG, FormatAuto:
		return f, nil
	case "jpg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("unknown format: %s", name)
	}
}

// Effective resolves auto to the concrete format used for encoding.
// Auto always picks WebP, the highest-compression format supported.
func (f Format) Effective() Format {
	if f == FormatAuto {
		return FormatWebP
	}
	return f
}

// Default encoding qualities per format. WebP encoding is lossless so the
// quality knob only applies to JPEG; PNG maps quality onto compression
// level buckets.
const (
	DefaultJPEGQuality = 80
	DefaultPNGQuality  = 75
	DefaultWebPQuality = 80
)

// DefaultQuality returns the format's default quality setting.
func (f Format) DefaultQuality() int {
	switch f.Effective() {
	case FormatJPEG:
		return DefaultJPEGQuality
	case FormatPNG:
		return DefaultPNGQuality
	default:
		return DefaultWebPQuality
	}
}

// ContentType returns the MIME type produced by encoding in this format.
func (f Format) ContentType() string {
	switch f.Effective() {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	default:
		return "image/webp"
	}
}

// ImageVariant is a fully transcoded image ready to serve. Owned by the
// memory cache once stored; LastAccessedAt is touched on every cache hit.
type ImageVariant struct {
	Data             []byte
	ContentType      string
	Width            int
	Height           int
	SizeBytes        int
	CompressionRatio float64
	CreatedAt        time.Time
	LastAccessedAt   time.Time
}

// OriginImage is the raw, untransformed result of an origin fetch.
type OriginImage struct {
	URL         string
	ContentType string
	Data        []byte
	Size        int
	FetchedAt   time.Time
}

// CacheStats are process-wide running counters for the memory tier.
// Reset on restart or explicit cache clear.
type CacheStats struct {
	Hits          int64     `json:"hits"`
	Misses        int64     `json:"misses"`
	Evictions     int64     `json:"evictions"`
	LastCleanupAt time.Time `json:"last_cleanup_at"`
}

// HitRate returns hits / (hits + misses), or 0 with no traffic.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
