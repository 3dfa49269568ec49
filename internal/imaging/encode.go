package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	imglib "github.com/disintegration/imaging"
)

// EncodedImage is a PNG image returned to clients as base64.
type EncodedImage struct {
	// Width is the output image width in pixels.
	Width int `json:"width"`

	// Height is the output image height in pixels.
	Height int `json:"height"`

	// ImageBase64 contains the PNG-encoded image data.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG.
//
// Parameters:
//   - img: The image to encode.
//   - scale: Resize factor applied before encoding. Values <= 0 or 1.0 keep the size.
func EncodePNG(img image.Image, scale float64) (*EncodedImage, error) {
	if scale > 0 && scale != 1.0 {
		w := int(float64(img.Bounds().Dx()) * scale)
		h := int(float64(img.Bounds().Dy()) * scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %.3f produces an empty image", scale)
		}
		img = imglib.Resize(img, w, h, imglib.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// FitFrame returns img unchanged when it already has the requested size,
// otherwise a Lanczos resize to width x height. Zero dimensions mean no
// fixed frame size.
func FitFrame(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if width == 0 || height == 0 || (b.Dx() == width && b.Dy() == height) {
		return img
	}
	return imglib.Resize(img, width, height, imglib.Lanczos)
}

// ToNRGBA returns a copy of img as *image.NRGBA with origin (0,0).
func ToNRGBA(img image.Image) *image.NRGBA {
	return imglib.Clone(img)
}
