package camera

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/ironsheep/lanefinder/internal/imaging"
)

// WarpMask resamples a binary mask in the given direction.
// The output has the input's size and uses nearest-neighbour sampling, so
// every value stays 0 or 1. Pixels that map outside the input are 0.
func (t *PerspectiveTransform) WarpMask(mask *imaging.BinaryMask, dir Direction) *imaging.BinaryMask {
	// Inverse mapping: walk the output grid and look up the source pixel.
	back := t.Matrix(opposite(dir))
	w, h := mask.Width, mask.Height
	out := imaging.NewBinaryMask(w, h)

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				sx, sy, ok := back.Apply(float64(x), float64(y))
				if !ok {
					continue
				}
				out.Pix[y*w+x] = mask.At(int(math.Round(sx)), int(math.Round(sy)))
			}
		}
	})
	return out
}

// WarpImage resamples a color frame in the given direction using bilinear
// interpolation. The output has the input's size.
func (t *PerspectiveTransform) WarpImage(img image.Image, dir Direction) *image.NRGBA {
	back := t.Matrix(opposite(dir))
	src := imaging.ToNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				px := [4]uint8{0, 0, 0, 255}
				if sx, sy, ok := back.Apply(float64(x), float64(y)); ok {
					px = bilinear(src, sx, sy)
				}
				copy(out.Pix[y*out.Stride+x*4:], px[:])
			}
		}
	})
	return out
}

func opposite(dir Direction) Direction {
	if dir == ToCamera {
		return ToBirdsEye
	}
	return ToCamera
}
