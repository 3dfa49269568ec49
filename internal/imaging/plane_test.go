package imaging

import (
	"image/color"
	"testing"
)

func TestGrayscale(t *testing.T) {
	tests := []struct {
		name  string
		color color.Color
		want  float64
	}{
		{"white", color.RGBA{255, 255, 255, 255}, 255},
		{"black", color.RGBA{0, 0, 0, 255}, 0},
		{"red", color.RGBA{255, 0, 0, 255}, 76},
		{"green", color.RGBA{0, 255, 0, 255}, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createInMemoryImage(4, 3, tt.color)
			p := Grayscale(img, 0)
			if p.Width != 4 || p.Height != 3 {
				t.Fatalf("dimensions: got %dx%d, want 4x3", p.Width, p.Height)
			}
			if got := p.At(2, 1); got != tt.want {
				t.Errorf("luminance: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGrayscale_BlurKeepsSize(t *testing.T) {
	img := createInMemoryImage(16, 10, color.RGBA{90, 90, 90, 255})
	p := Grayscale(img, 2)
	if p.Width != 16 || p.Height != 10 {
		t.Errorf("dimensions: got %dx%d, want 16x10", p.Width, p.Height)
	}
}

func TestPlane_Max(t *testing.T) {
	p := NewPlane(3, 1)
	if p.Max() != 0 {
		t.Errorf("Max of zero plane: got %v", p.Max())
	}
	p.Set(1, 0, 9)
	p.Set(2, 0, -20)
	if p.Max() != 9 {
		t.Errorf("Max: got %v, want 9", p.Max())
	}
}
