package imaging

import (
	"fmt"

	"github.com/anthonynsimon/bild/parallel"
)

// Sobel computes the horizontal and vertical derivatives of a plane.
//
// Parameters:
//   - src: The input plane, usually a grayscale frame.
//   - ksize: Odd aperture size, at least 3.
//
// Returns:
//   - gx: Derivative along x, smoothed along y.
//   - gy: Derivative along y, smoothed along x.
//   - error: Non-nil if ksize is even or smaller than 3.
//
// Borders are reflected without repeating the edge sample, so a plane of
// constant value yields all-zero derivatives.
func Sobel(src *Plane, ksize int) (gx, gy *Plane, err error) {
	smooth, deriv, err := SobelKernels(ksize)
	if err != nil {
		return nil, nil, err
	}
	gx = convolveSeparable(src, deriv, smooth)
	gy = convolveSeparable(src, smooth, deriv)
	return gx, gy, nil
}

// SobelKernels returns the 1-D smoothing and derivative kernels of an odd aperture.
// The smoothing kernel is the binomial row of length ksize. The derivative kernel
// is [-1, 0, 1] convolved with the binomial row of length ksize-2.
func SobelKernels(ksize int) (smooth, deriv []float64, err error) {
	if ksize < 3 || ksize%2 == 0 {
		return nil, nil, fmt.Errorf("sobel aperture must be odd and >= 3, got %d", ksize)
	}
	smooth = binomial(ksize - 1)
	deriv = convolve1D([]float64{-1, 0, 1}, binomial(ksize-3))
	return smooth, deriv, nil
}

func binomial(n int) []float64 {
	row := []float64{1}
	for i := 0; i < n; i++ {
		row = convolve1D(row, []float64{1, 1})
	}
	return row
}

func convolve1D(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}

// reflect101 maps i into [0, n) mirroring about the edge samples (dcb|abcd|cba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// convolveSeparable correlates src with kx along rows then ky along columns.
func convolveSeparable(src *Plane, kx, ky []float64) *Plane {
	w, h := src.Width, src.Height
	tmp := NewPlane(w, h)
	out := NewPlane(w, h)
	rx, ry := len(kx)/2, len(ky)/2

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := src.Pix[y*w : (y+1)*w]
			for x := 0; x < w; x++ {
				var sum float64
				for i, k := range kx {
					sum += k * row[reflect101(x+i-rx, w)]
				}
				tmp.Pix[y*w+x] = sum
			}
		}
	})

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				var sum float64
				for i, k := range ky {
					sum += k * tmp.Pix[reflect101(y+i-ry, h)*w+x]
				}
				out.Pix[y*w+x] = sum
			}
		}
	})
	return out
}
