package camera

import (
	"fmt"
	"math"

	"github.com/ironsheep/lanefinder/internal/imaging"
	"gonum.org/v1/gonum/mat"
)

// Direction selects which homography a warp applies.
type Direction int

const (
	// ToBirdsEye maps camera-view coordinates to the rectified top-down view.
	ToBirdsEye Direction = iota
	// ToCamera maps bird's-eye coordinates back to the camera view.
	ToCamera
)

func (d Direction) String() string {
	switch d {
	case ToBirdsEye:
		return "to_birds_eye"
	case ToCamera:
		return "to_camera"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Homography is a row-major 3x3 projective matrix.
type Homography [3][3]float64

// Apply maps (x, y) through the homography.
// ok is false when the point maps to infinity.
func (h Homography) Apply(x, y float64) (px, py float64, ok bool) {
	w := h[2][0]*x + h[2][1]*y + h[2][2]
	if math.Abs(w) < 1e-12 {
		return 0, 0, false
	}
	px = (h[0][0]*x + h[0][1]*y + h[0][2]) / w
	py = (h[1][0]*x + h[1][1]*y + h[1][2]) / w
	return px, py, true
}

// PerspectiveTransform holds the camera-to-bird's-eye homography and its inverse.
type PerspectiveTransform struct {
	forward Homography
	inverse Homography
}

// NewPerspectiveTransform solves the homography mapping src[i] to dst[i].
//
// The eight unknowns h00..h21 (h22 = 1) come from the 8x8 linear system of
// the four correspondences. Coordinates are scaled to unit range before the
// solve to keep the system well conditioned. The inverse is the matrix
// inverse of the forward homography.
func NewPerspectiveTransform(src, dst [4]imaging.Point) (*PerspectiveTransform, error) {
	scale := 0.0
	for i := range src {
		scale = math.Max(scale, math.Max(math.Abs(src[i].X), math.Abs(src[i].Y)))
		scale = math.Max(scale, math.Max(math.Abs(dst[i].X), math.Abs(dst[i].Y)))
	}
	if scale == 0 {
		return nil, fmt.Errorf("%w: empty perspective correspondence", ErrCalibrationUnavailable)
	}

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		X, Y := src[i].X/scale, src[i].Y/scale
		x, y := dst[i].X/scale, dst[i].Y/scale
		r := 2 * i
		a.SetRow(r, []float64{X, Y, 1, 0, 0, 0, -X * x, -Y * x})
		b.SetVec(r, x)
		a.SetRow(r+1, []float64{0, 0, 0, X, Y, 1, -X * y, -Y * y})
		b.SetVec(r+1, y)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("%w: degenerate perspective correspondence: %w", ErrCalibrationUnavailable, err)
	}

	// Undo the normalisation: H = S^-1 * Hn * S with S = diag(1/s, 1/s, 1).
	hn := mat.NewDense(3, 3, []float64{
		h.AtVec(0), h.AtVec(1), h.AtVec(2) * scale,
		h.AtVec(3), h.AtVec(4), h.AtVec(5) * scale,
		h.AtVec(6) / scale, h.AtVec(7) / scale, 1,
	})

	var inv mat.Dense
	if err := inv.Inverse(hn); err != nil {
		return nil, fmt.Errorf("%w: perspective matrix is singular: %w", ErrCalibrationUnavailable, err)
	}

	return &PerspectiveTransform{
		forward: toHomography(hn),
		inverse: toHomography(&inv),
	}, nil
}

func toHomography(m mat.Matrix) Homography {
	var h Homography
	norm := m.At(2, 2)
	if norm == 0 {
		norm = 1
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			h[r][c] = m.At(r, c) / norm
		}
	}
	return h
}

// Matrix returns the homography that maps coordinates in the given direction.
func (t *PerspectiveTransform) Matrix(dir Direction) Homography {
	if dir == ToCamera {
		return t.inverse
	}
	return t.forward
}

// ToBirdsEye maps camera-view points into the bird's-eye view.
func (t *PerspectiveTransform) ToBirdsEye(pts []imaging.Point) []imaging.Point {
	return mapPoints(t.forward, pts)
}

// ToCamera maps bird's-eye points back into the camera view.
func (t *PerspectiveTransform) ToCamera(pts []imaging.Point) []imaging.Point {
	return mapPoints(t.inverse, pts)
}

// mapPoints drops points that map to infinity.
func mapPoints(h Homography, pts []imaging.Point) []imaging.Point {
	out := make([]imaging.Point, 0, len(pts))
	for _, p := range pts {
		x, y, ok := h.Apply(p.X, p.Y)
		if ok {
			out = append(out, imaging.Point{X: x, Y: y})
		}
	}
	return out
}
