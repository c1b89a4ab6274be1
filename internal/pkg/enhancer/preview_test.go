package enhancer

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 90, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestRenderPreviewDownscalesWideImages(t *testing.T) {
	t.Parallel()

	source := encodeTestJPEG(t, 1200, 800)

	previewData, err := RenderPreview(source, FormatJPEG, 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	preview, err := jpeg.Decode(bytes.NewReader(previewData))
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if got := preview.Bounds().Dx(); got != 600 {
		t.Fatalf("expected preview width 600, got %d", got)
	}
}

func TestRenderPreviewKeepsSmallImages(t *testing.T) {
	t.Parallel()

	source := encodeTestJPEG(t, 400, 300)

	previewData, err := RenderPreview(source, FormatJPEG, 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	preview, err := jpeg.Decode(bytes.NewReader(previewData))
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if got := preview.Bounds().Dx(); got != 400 {
		t.Fatalf("images below the target width must not be upscaled, got %d", got)
	}
}

func TestRenderPreviewRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := RenderPreview([]byte("not an image"), FormatJPEG, 600); err == nil {
		t.Fatalf("expected decode error for garbage input")
	}
}

func TestApplyFallbackProducesDecodableImage(t *testing.T) {
	t.Parallel()

	source := encodeTestJPEG(t, 320, 240)

	enhanced, err := ApplyFallback(source, FormatJPEG)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(enhanced))
	if err != nil {
		t.Fatalf("fallback output must stay decodable: %v", err)
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 240 {
		t.Fatalf("fallback must not change dimensions, got %v", img.Bounds())
	}
}

func TestApplyFallbackRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := ApplyFallback([]byte("not an image"), FormatJPEG); err == nil {
		t.Fatalf("expected decode error for garbage input")
	}
}

func TestFormatFromMime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mime    string
		want    Format
		wantErr bool
	}{
		{mime: "image/jpeg", want: FormatJPEG},
		{mime: "image/png", want: FormatPNG},
		{mime: "image/webp", want: FormatWebP},
		{mime: "image/gif", wantErr: true},
		{mime: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := FormatFromMime(tt.mime)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("FormatFromMime(%q): expected error", tt.mime)
			}
			continue
		}
		if err != nil {
			t.Fatalf("FormatFromMime(%q): %v", tt.mime, err)
		}
		if got != tt.want {
			t.Fatalf("FormatFromMime(%q) = %v, want %v", tt.mime, got, tt.want)
		}
	}
}
