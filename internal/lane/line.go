package lane

import (
	"fmt"
	"math"

	"github.com/ironsheep/lanefinder/internal/imaging"
	"gonum.org/v1/gonum/mat"
)

// Coefficients of the lane polynomial x = A·y² + B·y + C.
type Coefficients struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
}

// X evaluates the polynomial at row y.
func (c Coefficients) X(y float64) float64 {
	return c.A*y*y + c.B*y + c.C
}

// Sample evaluates the polynomial at every row in [0, height).
func (c Coefficients) Sample(height int) []imaging.Point {
	pts := make([]imaging.Point, height)
	for y := 0; y < height; y++ {
		pts[y] = imaging.Point{X: c.X(float64(y)), Y: float64(y)}
	}
	return pts
}

// Line is one tracked lane boundary.
type Line struct {
	Coefficients
	// Xs and Ys are the pixels that supported the most recent accepted fit.
	Xs         []int   `json:"-"`
	Ys         []int   `json:"-"`
	PixelCount int     `json:"pixel_count"`
	Confidence float64 `json:"confidence"`
	Valid      bool    `json:"valid"`
}

// FitPolynomial fits x = A·y² + B·y + C to the points by least squares.
//
// The rows are scaled to unit range before the QR solve so that the normal
// equations of a tall frame stay well conditioned. Fewer than three points,
// or points on fewer than three distinct rows, return ErrInsufficientPixels.
func FitPolynomial(xs, ys []float64) (Coefficients, error) {
	n := len(xs)
	if n != len(ys) {
		return Coefficients{}, fmt.Errorf("fit: %d x values for %d y values", n, len(ys))
	}
	if n < 3 {
		return Coefficients{}, fmt.Errorf("fit %d points: %w", n, ErrInsufficientPixels)
	}

	if distinctRows(ys) < 3 {
		return Coefficients{}, fmt.Errorf("fit needs 3 distinct rows: %w", ErrInsufficientPixels)
	}

	scale := 0.0
	for _, y := range ys {
		scale = math.Max(scale, math.Abs(y))
	}
	if scale == 0 {
		scale = 1
	}

	design := mat.NewDense(n, 3, nil)
	rhs := mat.NewVecDense(n, xs)
	for i, y := range ys {
		t := y / scale
		design.Set(i, 0, t*t)
		design.Set(i, 1, t)
		design.Set(i, 2, 1)
	}

	var qr mat.QR
	qr.Factorize(design)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, rhs); err != nil {
		return Coefficients{}, fmt.Errorf("fit is rank deficient (%v): %w", err, ErrInsufficientPixels)
	}

	return Coefficients{
		A: sol.AtVec(0) / (scale * scale),
		B: sol.AtVec(1) / scale,
		C: sol.AtVec(2),
	}, nil
}

// distinctRows counts distinct values of ys, stopping at 3.
func distinctRows(ys []float64) int {
	seen := make(map[float64]struct{}, 3)
	for _, y := range ys {
		seen[y] = struct{}{}
		if len(seen) >= 3 {
			break
		}
	}
	return len(seen)
}

// fitPixels fits integer pixel coordinates.
func fitPixels(xs, ys []int) (Coefficients, error) {
	fx := make([]float64, len(xs))
	fy := make([]float64, len(ys))
	for i := range xs {
		fx[i] = float64(xs[i])
	}
	for i := range ys {
		fy[i] = float64(ys[i])
	}
	return FitPolynomial(fx, fy)
}
