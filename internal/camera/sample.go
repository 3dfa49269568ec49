package camera

import (
	"image"
	"math"
)

// bilinear samples an NRGBA image at a sub-pixel location. Samples that fall
// outside the image read as opaque black.
func bilinear(src *image.NRGBA, x, y float64) [4]uint8 {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if x < -1 || y < -1 || x > float64(w) || y > float64(h) || math.IsNaN(x) || math.IsNaN(y) {
		return [4]uint8{0, 0, 0, 255}
	}

	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	fx, fy := x-float64(x0), y-float64(y0)

	var acc [4]float64
	weights := [4]float64{(1 - fx) * (1 - fy), fx * (1 - fy), (1 - fx) * fy, fx * fy}
	offsets := [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for i, o := range offsets {
		if weights[i] == 0 {
			continue
		}
		px := pixelAt(src, x0+o[0], y0+o[1])
		for c := 0; c < 4; c++ {
			acc[c] += weights[i] * float64(px[c])
		}
	}

	var out [4]uint8
	for c := range acc {
		out[c] = uint8(math.Min(255, acc[c]+0.5))
	}
	return out
}

func pixelAt(src *image.NRGBA, x, y int) [4]uint8 {
	if x < 0 || y < 0 || x >= src.Rect.Dx() || y >= src.Rect.Dy() {
		return [4]uint8{0, 0, 0, 255}
	}
	i := y*src.Stride + x*4
	return [4]uint8{src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3]}
}
