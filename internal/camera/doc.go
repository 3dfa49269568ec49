// Package camera models the fixed camera geometry of a lane-finding run.
//
// A Calibration bundles the intrinsic matrix, the lens distortion
// coefficients and the four-point road correspondence that defines the
// bird's-eye view. It is loaded once, validated, and then shared read-only by
// every frame and every concurrently processed sequence.
//
// # Distortion Model
//
// Distortion coefficients use the conventional ordering k1, k2, p1, p2 and an
// optional k3 (Brown-Conrady radial plus tangential terms). Undistort maps each
// output pixel through the forward model and samples the raw frame
// bilinearly, so the result has the same size as the input and pixels that
// fall outside the raw frame are black.
//
// # Perspective
//
// A PerspectiveTransform holds the camera-to-bird's-eye homography and its
// matrix inverse. Both are derived from the same correspondence, so mapping a
// point forward and back returns the original point up to rounding. Masks are
// warped with nearest-neighbour sampling to keep their values in {0, 1};
// color frames are warped bilinearly.
//
// # Errors
//
// Every calibration problem (missing file, malformed JSON, invalid matrix,
// degenerate correspondence) is reported wrapping ErrCalibrationUnavailable.
package camera
