package image_proxy_gateway

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"media-proxy/domain"
	"media-proxy/utils/errors"
)

// ProcessingGateway implements ImageProcessingPort: decode, resize to fit
// the target bounding box, and re-encode in the requested format.
// Uses pure Go (no CGo) for compatibility with CGO_ENABLED=0 builds.
type ProcessingGateway struct {
	defaultJPEGQuality int
}

// NewProcessingGateway creates a new ProcessingGateway.
func NewProcessingGateway(jpegQuality int) *ProcessingGateway {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = domain.DefaultJPEGQuality
	}
	return &ProcessingGateway{defaultJPEGQuality: jpegQuality}
}

// Transcode decodes the input, scales it down to fit size (aspect
// preserved, never upscaled) with CatmullRom resampling, and encodes it in
// the effective format. quality 0 or out of range falls back to the
// format's default.
func (g *ProcessingGateway) Transcode(ctx context.Context, data []byte, size domain.TargetSize, format domain.Format, quality int) (*domain.ImageVariant, error) {
	if len(data) == 0 {
		return nil, errors.NewTranscodeContextError(
			"empty image data",
			"gateway", "ProcessingGateway", "decode",
			nil, nil,
		)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewTranscodeContextError(
			"decode image",
			"gateway", "ProcessingGateway", "decode",
			err, nil,
		)
	}

	resized, width, height := fitWithin(img, size.Width, size.Height)

	effective := format.Effective()
	if quality < 1 || quality > 100 {
		// The configured quality covers jpeg; png falls back to its own
		// compression default.
		if effective == domain.FormatJPEG {
			quality = g.defaultJPEGQuality
		} else {
			quality = effective.DefaultQuality()
		}
	}

	var buf bytes.Buffer
	switch effective {
	case domain.FormatJPEG:
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality})
	case domain.FormatPNG:
		encoder := png.Encoder{CompressionLevel: pngCompressionLevel(quality)}
		err = encoder.Encode(&buf, resized)
	default:
		// Lossless WebP; the quality knob does not apply.
		err = nativewebp.Encode(&buf, resized, nil)
	}
	if err != nil {
		return nil, errors.NewTranscodeContextError(
			"encode image",
			"gateway", "ProcessingGateway", "encode",
			err,
			map[string]interface{}{"format": string(effective)},
		)
	}

	encoded := buf.Bytes()

	return &domain.ImageVariant{
		Data:             encoded,
		ContentType:      effective.ContentType(),
		Width:            width,
		Height:           height,
		SizeBytes:        len(encoded),
		CompressionRatio: float64(len(encoded)) / float64(len(data)),
		CreatedAt:        time.Now(),
	}, nil
}

// fitWithin scales img down to fit the (maxWidth, maxHeight) box while
// preserving aspect ratio. Images already inside the box pass through
// untouched.
func fitWithin(img image.Image, maxWidth, maxHeight int) (image.Image, int, int) {
	bounds := img.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()

	if maxWidth <= 0 || maxHeight <= 0 {
		return img, origWidth, origHeight
	}
	if origWidth <= maxWidth && origHeight <= maxHeight {
		return img, origWidth, origHeight
	}

	scaleW := float64(maxWidth) / float64(origWidth)
	scaleH := float64(maxHeight) / float64(origHeight)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	newWidth := int(float64(origWidth) * scale)
	newHeight := int(float64(origHeight) * scale)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst, newWidth, newHeight
}

// pngCompressionLevel maps the 1-100 quality scale onto png's discrete
// compression levels. Lower quality asks for smaller output.
func pngCompressionLevel(quality int) png.CompressionLevel {
	switch {
	case quality <= 40:
		return png.BestCompression
	case quality <= 80:
		return png.DefaultCompression
	default:
		return png.BestSpeed
	}
}
