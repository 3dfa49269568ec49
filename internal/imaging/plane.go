package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// Point is a sub-pixel image coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Plane is a single-channel float image stored row-major.
type Plane struct {
	Width  int
	Height int
	Pix    []float64
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height int) *Plane {
	return &Plane{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// At returns the sample at (x, y).
func (p *Plane) At(x, y int) float64 {
	return p.Pix[y*p.Width+x]
}

// Set stores v at (x, y).
func (p *Plane) Set(x, y int, v float64) {
	p.Pix[y*p.Width+x] = v
}

// Max returns the largest sample, or 0 for an empty plane.
func (p *Plane) Max() float64 {
	if len(p.Pix) == 0 {
		return 0
	}
	m := p.Pix[0]
	for _, v := range p.Pix[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Grayscale converts an image to a luminance plane in the 0-255 range.
//
// Luminance uses ITU-R BT.601 weights (0.299*R + 0.587*G + 0.114*B). When
// blurRadius is positive, a Gaussian blur of that radius is applied to the
// color image first.
func Grayscale(img image.Image, blurRadius float64) *Plane {
	if blurRadius > 0 {
		img = blur.Gaussian(img, blurRadius)
	}
	gray := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	plane := NewPlane(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			plane.Pix[y*width+x] = float64(gray.Pix[gray.PixOffset(x+bounds.Min.X, y+bounds.Min.Y)])
		}
	}
	return plane
}

func checkSameSize(aw, ah, bw, bh int) error {
	if aw != bw || ah != bh {
		return fmt.Errorf("dimension mismatch: %dx%d vs %dx%d", aw, ah, bw, bh)
	}
	return nil
}
