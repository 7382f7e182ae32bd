// Package texture decodes texture assets into images.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for data no registered codec understands.
var ErrUnsupportedFormat = errors.New("texture: unsupported image format")

// Decoder turns compressed texture bytes into an image.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// Codec decodes PNG, JPEG, GIF, BMP, TIFF and WebP by signature, and falls
// back to TGA, which has no signature.
type Codec struct{}

// NewCodec returns the default Decoder.
func NewCodec() *Codec {
	return &Codec{}
}

// Decode implements Decoder.
func (Codec) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrUnsupportedFormat)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	if !errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("decoding texture: %w", err)
	}
	return DecodeTGA(data)
}

// Format reports the detected format name, "tga" for signature-less data
// with a valid TGA header, or "" when unknown.
func Format(data []byte) string {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		return name
	}
	if _, err := parseTGAHeader(data); err == nil {
		return "tga"
	}
	return ""
}
