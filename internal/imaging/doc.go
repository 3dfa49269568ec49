// Package imaging provides the image primitives shared by the lane pipeline.
//
// This package implements frame loading, single-channel float planes, binary
// masks, Sobel gradients, HLS channel extraction, frame normalisation, and the
// drawing helpers used by the overlay renderer. All operations work with
// standard Go image.Image types and use a coordinate system where (0,0) is at
// the top-left corner, X increases rightward, and Y increases downward.
//
// # Planes and Masks
//
// A Plane is a dense row-major grid of float64 samples, used for grayscale
// intensity, gradients and color channels. A BinaryMask is a dense row-major
// grid whose values are exactly 0 or 1; every mask constructor and setter
// normalises values so that invariant holds.
//
// # Gradients
//
// Sobel derivatives follow the usual separable construction: a binomial
// smoothing kernel of length k across the derivative axis and a first-order
// derivative kernel of length k along it, for any odd aperture k >= 3.
// Borders are reflected without repeating the edge sample.
//
// # Thread Safety
//
// The FrameCache type is safe for concurrent use. Plane and mask operations
// never mutate their inputs and can be called concurrently on different data.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Even or too small Sobel apertures
//   - Masks or planes of mismatched dimensions
//   - File I/O errors during frame loading
//   - Encoding errors during image output
package imaging
