// Package threshold turns a camera frame into a binary mask of lane-candidate
// pixels.
//
// Four primitives each produce a BinaryMask from a single-channel derivation
// of the frame:
//
//   - Gradient: absolute Sobel derivative along x or y, rescaled to 0-255.
//   - Magnitude: sqrt(gx² + gy²), rescaled to 0-255.
//   - Direction: atan2(|gy|, |gx|) in radians, not rescaled.
//   - Channel: an HLS lightness or saturation channel on 0-255.
//
// Rescaling divides by the observed maximum and multiplies by 255, truncating
// to an integer. When the maximum is zero the mask is all zero; this is the
// degenerate-gradient case and is never an error.
//
// Combine joins the primitives as (gradX AND gradY) OR (magnitude AND
// direction), optionally OR-ing further masks such as a color threshold.
// Thresholder runs the whole combination from a config.ThresholdConfig and
// keeps the intermediate masks for inspection.
package threshold
