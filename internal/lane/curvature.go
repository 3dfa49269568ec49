package lane

import (
	"fmt"
	"math"

	"github.com/ironsheep/lanefinder/internal/config"
)

// Curvature returns the radius of curvature in meters of a pixel-space lane
// polynomial, evaluated at row yBottomPx.
//
// The polynomial is sampled at every row from 0 to yBottomPx, the samples are
// converted to meters with the scale, and a new polynomial is fitted in meter
// space. The radius is R = (1 + (2Ay + B)²)^1.5 / |2A| at the bottom row,
// capped at scale.MaxRadiusM for straight lanes.
func Curvature(c Coefficients, yBottomPx float64, scale config.ScaleConfig) (float64, error) {
	rows := int(yBottomPx) + 1
	if rows < 3 {
		return 0, fmt.Errorf("curvature needs at least 3 rows, got %d", rows)
	}
	mx, my := scale.MetersPerPixel.X, scale.MetersPerPixel.Y

	xs := make([]float64, rows)
	ys := make([]float64, rows)
	for i := 0; i < rows; i++ {
		y := float64(i)
		xs[i] = c.X(y) * mx
		ys[i] = y * my
	}
	m, err := FitPolynomial(xs, ys)
	if err != nil {
		return 0, err
	}
	return radius(m, yBottomPx*my, scale.MaxRadiusM), nil
}

func radius(c Coefficients, y, maxRadius float64) float64 {
	if c.A == 0 {
		return maxRadius
	}
	slope := 2*c.A*y + c.B
	r := math.Pow(1+slope*slope, 1.5) / math.Abs(2*c.A)
	if r > maxRadius || math.IsNaN(r) {
		return maxRadius
	}
	return r
}

// Offset returns the vehicle's lateral offset from the lane center in meters.
//
// The lane center is the midpoint of both lines at yBottomPx. The vehicle is
// assumed to sit at the horizontal center of the frame. Negative values mean
// the vehicle is left of the lane center.
func Offset(left, right Coefficients, yBottomPx float64, frameWidth int, scale config.ScaleConfig) float64 {
	center := (left.X(yBottomPx) + right.X(yBottomPx)) / 2
	return (float64(frameWidth)/2 - center) * scale.MetersPerPixel.X
}
