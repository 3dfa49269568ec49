package imaging

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"image/png"
	"testing"
)

func TestEncodePNG(t *testing.T) {
	img := createInMemoryImage(40, 20, color.RGBA{10, 20, 30, 255})

	tests := []struct {
		name          string
		scale         float64
		width, height int
		wantErr       bool
	}{
		{"original", 1.0, 40, 20, false},
		{"zero keeps size", 0, 40, 20, false},
		{"half", 0.5, 20, 10, false},
		{"too small", 0.01, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := EncodePNG(img, tt.scale)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if res.Width != tt.width || res.Height != tt.height {
				t.Errorf("dimensions: got %dx%d, want %dx%d", res.Width, res.Height, tt.width, tt.height)
			}
			if res.MimeType != "image/png" {
				t.Errorf("MimeType: got %s", res.MimeType)
			}
			data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
			if err != nil {
				t.Fatalf("invalid base64: %v", err)
			}
			if _, err := png.Decode(bytes.NewReader(data)); err != nil {
				t.Errorf("invalid PNG: %v", err)
			}
		})
	}
}

func TestFitFrame(t *testing.T) {
	img := createInMemoryImage(64, 48, color.White)

	if got := FitFrame(img, 0, 0); got != img {
		t.Error("zero size should return the input")
	}
	if got := FitFrame(img, 64, 48); got != img {
		t.Error("matching size should return the input")
	}
	got := FitFrame(img, 32, 24)
	if got.Bounds().Dx() != 32 || got.Bounds().Dy() != 24 {
		t.Errorf("resize: got %v", got.Bounds())
	}
}
