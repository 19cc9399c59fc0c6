// Package imaging normalises uploaded property photos.
package imaging

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
)

const (
	MaxWidth    = 1600
	ContentType = "image/webp"
)

// ToWebP decodes a JPEG, PNG or WebP image, scales it down to at most
// maxWidth pixels wide keeping the aspect ratio, and re-encodes it as
// lossy WebP.
func ToWebP(r io.Reader, maxWidth int, quality float32) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, httperr.Validation("invalid_image", "Photo must be a JPEG, PNG or WebP image.", nil)
	}

	img := Fit(src, maxWidth)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: quality}); err != nil {
		return nil, httperr.Internal("image_encode_failed", err)
	}
	return buf.Bytes(), nil
}

// Fit returns src unchanged when it is already narrow enough.
func Fit(src image.Image, maxWidth int) image.Image {
	b := src.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return src
	}

	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
