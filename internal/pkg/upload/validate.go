package upload

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

// Upload limits for a single intake request.
const (
	MaxFileSize = 10 * 1024 * 1024 // 10 MiB
	MaxFiles    = 10
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var allowedMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var (
	ErrTooManyFiles    = errors.New("too many files uploaded")
	ErrFileTooLarge    = errors.New("file exceeds the maximum allowed size")
	ErrUnsupportedType = errors.New("only JPG, JPEG, PNG and WEBP images are supported")
)

// ValidateImageBySniff checks the provided filename (extension) and the first
// bytes (head) against the whitelist of sellable image types. Returns the
// detected mime or an error.
func ValidateImageBySniff(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedType
	}

	detected := http.DetectContentType(head)

	// Block scriptable types regardless of extension
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return "", ErrUnsupportedType
	}
	if strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") || detected == "image/svg+xml" {
		return "", ErrUnsupportedType
	}

	if allowedMime[detected] {
		return detected, nil
	}

	return "", ErrUnsupportedType
}

// ValidateSize checks the declared upload size against the limit.
func ValidateSize(size int64) error {
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}
