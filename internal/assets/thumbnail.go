package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
)

const (
	DefaultThumbnailWidth = 300
	maxThumbnailWidth     = 1200
	thumbnailJPEGQuality  = 85
	maxThumbnailPixels    = 100 * 1000 * 1000 // 100 megapixels
)

// Thumbnail scales a cover image to width pixels wide (never upscaling) and
// returns it as JPEG. Transparent areas are flattened onto white.
func Thumbnail(data []byte, width int) ([]byte, error) {
	if width <= 0 {
		width = DefaultThumbnailWidth
	}
	if width > maxThumbnailWidth {
		width = maxThumbnailWidth
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}
	if pixels := uint64(cfg.Width) * uint64(cfg.Height); pixels > maxThumbnailPixels {
		return nil, fmt.Errorf("image too large to decode: %dx%d (%d pixels)", cfg.Width, cfg.Height, pixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	processed := src
	if src.Bounds().Dx() > width {
		processed = imaging.Resize(src, width, 0, imaging.Lanczos)
	}

	b := processed.Bounds()
	flat := imaging.New(b.Dx(), b.Dy(), color.White)
	flat = imaging.Overlay(flat, processed, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(thumbnailJPEGQuality)); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	return buf.Bytes(), nil
}
