package enhancer

import (
	"fmt"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/StefanBrandt/FotoFix/internal/pkg/env"
)

const defaultPreviewWidth = 600

// PreviewWidth resolves the bounded preview width from the environment.
func PreviewWidth() int {
	if raw := env.GetEnv("PREVIEW_WIDTH", ""); raw != "" {
		if width, err := strconv.Atoi(raw); err == nil && width > 0 {
			return width
		}
	}
	return defaultPreviewWidth
}

// RenderPreview derives the format-preserving preview: fixed target width,
// proportional height, Lanczos resampling. Images narrower than the target
// are passed through at their native size.
func RenderPreview(data []byte, format Format, width int) ([]byte, error) {
	img, err := DecodeImage(data, format)
	if err != nil {
		return nil, fmt.Errorf("preview decode: %w", err)
	}

	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	out, err := EncodeImage(img, format, previewQuality)
	if err != nil {
		return nil, fmt.Errorf("preview encode: %w", err)
	}
	return out, nil
}
