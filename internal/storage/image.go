package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmptyProof   = errors.New("empty proof")
	ErrInvalidImage = errors.New("not a valid image")
)

// ValidateImage reports the decoded format if data is a well-formed image
// header in a registered format.
func ValidateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyProof
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return "", ErrInvalidImage
	}
	return format, nil
}

// Hash is the content fingerprint used for duplicate proof detection.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Extension maps a decoded image format to a file extension.
func Extension(format string) string {
	switch format {
	case "jpeg", "":
		return "jpg"
	default:
		return format
	}
}
