package camera

import (
	"image"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/ironsheep/lanefinder/internal/imaging"
)

// Undistort removes lens distortion from a raw frame.
//
// Parameters:
//   - frame: The raw camera frame.
//   - calib: A validated calibration for frames of this size.
//
// Returns:
//   - *image.NRGBA: A new frame of the same size. The input is not modified.
//
// For each output pixel the ideal normalised coordinate is pushed through the
// forward distortion model and the raw frame is sampled bilinearly at the
// resulting location.
func Undistort(frame image.Image, calib *Calibration) *image.NRGBA {
	src := imaging.ToNRGBA(frame)
	if !calib.hasDistortion() {
		return src
	}

	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	k := calib.CameraMatrix
	fx, skew, cx := k[0][0], k[0][1], k[0][2]
	fy, cy := k[1][1], k[1][2]

	parallel.Line(h, func(start, end int) {
		for v := start; v < end; v++ {
			y := (float64(v) - cy) / fy
			for u := 0; u < w; u++ {
				x := (float64(u) - cx - skew*y) / fx
				xd, yd := calib.distort(x, y)
				px := bilinear(src, fx*xd+skew*yd+cx, fy*yd+cy)
				copy(out.Pix[v*out.Stride+u*4:], px[:])
			}
		}
	})
	return out
}

func (c *Calibration) coefficients() (k1, k2, p1, p2, k3 float64) {
	d := c.DistCoeffs
	if len(d) >= 4 {
		k1, k2, p1, p2 = d[0], d[1], d[2], d[3]
	}
	if len(d) >= 5 {
		k3 = d[4]
	}
	return k1, k2, p1, p2, k3
}

func (c *Calibration) hasDistortion() bool {
	for _, v := range c.DistCoeffs {
		if v != 0 {
			return true
		}
	}
	return false
}

// distort applies the Brown-Conrady model to a normalised image coordinate.
func (c *Calibration) distort(x, y float64) (float64, float64) {
	k1, k2, p1, p2, k3 := c.coefficients()
	r2 := x*x + y*y
	radial := 1 + k1*r2 + k2*r2*r2 + k3*r2*r2*r2
	xd := x*radial + 2*p1*x*y + p2*(r2+2*x*x)
	yd := y*radial + p1*(r2+2*y*y) + 2*p2*x*y
	return xd, yd
}
