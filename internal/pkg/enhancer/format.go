package enhancer

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// Format is the closed set of image formats the pipeline sells. Every decode
// and encode goes through an exhaustive switch on this type instead of
// branching on mime strings at the call sites.
type Format int

const (
	FormatJPEG Format = iota
	FormatPNG
	FormatWebP
)

// Encoding quality. The full-resolution artifact is kept near lossless, the
// preview is allowed to compress harder.
const (
	enhancedQuality = 95
	previewQuality  = 85
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// FormatFromMime maps a detected mime type onto the closed format set.
func FormatFromMime(mime string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return FormatJPEG, nil
	case "image/png":
		return FormatPNG, nil
	case "image/webp":
		return FormatWebP, nil
	default:
		return 0, ErrUnsupportedFormat
	}
}

// Mime returns the canonical mime type for a format.
func (f Format) Mime() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// Ext returns the canonical file extension for a format.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatWebP:
		return ".webp"
	default:
		return ".bin"
	}
}

// DecodeImage decodes raw bytes in the given format.
func DecodeImage(data []byte, format Format) (image.Image, error) {
	switch format {
	case FormatJPEG:
		return jpeg.Decode(bytes.NewReader(data))
	case FormatPNG:
		return png.Decode(bytes.NewReader(data))
	case FormatWebP:
		return webp.Decode(bytes.NewReader(data), &decoder.Options{})
	default:
		return nil, ErrUnsupportedFormat
	}
}

// EncodeImage encodes an image in the given format at the given quality.
func EncodeImage(img image.Image, format Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case FormatWebP:
		options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
		if err != nil {
			return nil, err
		}
		if err := webp.Encode(&buf, img, options); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnsupportedFormat
	}
	return buf.Bytes(), nil
}
