// Package media normalizes image attachments carried as data URLs: user
// photos and design brief references.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

var (
	ErrNotImage   = errors.New("not an image data URL")
	ErrTooLarge   = errors.New("image too large")
	ErrUnreadable = errors.New("image cannot be decoded")
)

const (
	// PhotoLimit is the upload cap for user photos.
	PhotoLimit = 1 << 20
	// MaxEdge is the widest side kept after normalization.
	MaxEdge = 1600

	jpegQuality = 85
)

// Decode splits a base64 image data URL into its media type and payload.
func Decode(dataURL string) (mediaType string, payload []byte, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrNotImage
	}
	meta, enc, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotImage
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 || !strings.HasPrefix(mediaType, "image/") {
		return "", nil, ErrNotImage
	}
	payload, err = base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return mediaType, payload, nil
}

// Encode builds a base64 data URL.
func Encode(mediaType string, payload []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

// Normalize checks the decoded payload against limit (0 disables the check),
// shrinks images wider or taller than MaxEdge and re-encodes them. PNG stays
// PNG so transparency survives; everything else becomes JPEG.
func Normalize(dataURL string, limit int) (string, error) {
	mediaType, payload, err := Decode(dataURL)
	if err != nil {
		return "", err
	}
	if limit > 0 && len(payload) > limit {
		return "", fmt.Errorf("%w: %d bytes, max %d", ErrTooLarge, len(payload), limit)
	}

	img, err := imaging.Decode(bytes.NewReader(payload), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	b := img.Bounds()
	if b.Dx() <= MaxEdge && b.Dy() <= MaxEdge && (mediaType == "image/png" || mediaType == "image/jpeg") {
		return dataURL, nil
	}
	if b.Dx() >= b.Dy() && b.Dx() > MaxEdge {
		img = imaging.Resize(img, MaxEdge, 0, imaging.Lanczos)
	} else if b.Dy() > MaxEdge {
		img = imaging.Resize(img, 0, MaxEdge, imaging.Lanczos)
	}

	format, outType := imaging.JPEG, "image/jpeg"
	if mediaType == "image/png" {
		format, outType = imaging.PNG, "image/png"
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return Encode(outType, buf.Bytes()), nil
}
