// Package imaging validates and decodes uploaded images.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"strings"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedType is returned for upload content types outside AllowedTypes.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrUnreadable is returned when the bytes cannot be opened as an image.
	ErrUnreadable = errors.New("unreadable image")
)

// AllowedTypes lists the accepted upload MIME types.
var AllowedTypes = []string{"image/jpeg", "image/png", "image/tiff", "image/webp"}

// CheckType validates an upload Content-Type header against AllowedTypes.
func CheckType(contentType string) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	for _, t := range AllowedTypes {
		if mediaType == t {
			return nil
		}
	}

	return fmt.Errorf("%w: %s (allowed: %s)", ErrUnsupportedType, mediaType, strings.Join(AllowedTypes, ", "))
}

// Probe reads only the image header and returns the detected format and dimensions.
func Probe(data []byte) (string, image.Config, error) {
	if len(data) == 0 {
		return "", image.Config{}, fmt.Errorf("%w: empty input", ErrUnreadable)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", image.Config{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", image.Config{}, fmt.Errorf("%w: empty dimensions %dx%d", ErrUnreadable, cfg.Width, cfg.Height)
	}

	return format, cfg, nil
}

// Decode fully decodes the image.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", ErrUnreadable)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	return img, format, nil
}
