package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateImageBySniff(t *testing.T) {
	t.Parallel()

	jpegHead := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	pngHead := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}
	webpHead := append([]byte("RIFF\x24\x00\x00\x00WEBP"), []byte("VP8 ")...)

	tests := []struct {
		name     string
		filename string
		head     []byte
		wantMime string
		wantErr  error
	}{
		{
			name:     "jpeg with jpg extension",
			filename: "holiday.jpg",
			head:     jpegHead,
			wantMime: "image/jpeg",
		},
		{
			name:     "jpeg with jpeg extension",
			filename: "holiday.JPEG",
			head:     jpegHead,
			wantMime: "image/jpeg",
		},
		{
			name:     "png",
			filename: "screenshot.png",
			head:     pngHead,
			wantMime: "image/png",
		},
		{
			name:     "webp",
			filename: "portrait.webp",
			head:     webpHead,
			wantMime: "image/webp",
		},
		{
			name:     "disallowed extension",
			filename: "movie.gif",
			head:     []byte("GIF89a"),
			wantErr:  ErrUnsupportedType,
		},
		{
			name:     "extension and content disagree",
			filename: "payload.jpg",
			head:     []byte("<html><script>alert(1)</script></html>"),
			wantErr:  ErrUnsupportedType,
		},
		{
			name:     "svg renamed to png",
			filename: "vector.png",
			head:     []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`),
			wantErr:  ErrUnsupportedType,
		},
		{
			name:     "plain text renamed to jpeg",
			filename: "notes.jpeg",
			head:     []byte("just some text, definitely not an image"),
			wantErr:  ErrUnsupportedType,
		},
		{
			name:     "no extension",
			filename: "upload",
			head:     jpegHead,
			wantErr:  ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mime, err := ValidateImageBySniff(tt.filename, tt.head)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantMime, mime)
		})
	}
}

func TestValidateSize(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateSize(1024))
	assert.NoError(t, ValidateSize(MaxFileSize))
	assert.ErrorIs(t, ValidateSize(MaxFileSize+1), ErrFileTooLarge)
}
