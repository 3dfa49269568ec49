// Package lane finds and tracks the left and right lane lines in a
// bird's-eye binary mask.
//
// # Model
//
// Each lane line is the second-order polynomial x = A·y² + B·y + C in pixel
// units of the rectified view, with y growing downward so the vehicle sits at
// the bottom row. A Line carries its coefficients, the pixels that supported
// the fit, a confidence score in [0, 1] and a validity flag. Coefficients of a
// Line with Valid == false carry no meaning.
//
// # Tracking
//
// A State holds, per side, the reported line, a bounded history of accepted
// fits, a consecutive-failure counter and the search mode (NoPriorFit or
// HasPriorFit). Tracker.Update advances the state by one frame:
//
//  1. With a confident prior fit, search within a margin of the previous
//     curve; too few pixels falls back to step 2.
//  2. Otherwise run the sliding-window search seeded by the column histogram
//     of the bottom half of the mask.
//  3. Fit the polynomial by least squares and validate it against the pixel
//     count, the previous line and the optional lane-width range.
//  4. Accepted fits enter the history and reset the failure counter.
//     Rejected fits increment it; once it exceeds the configured limit the
//     side drops back to NoPriorFit and its history is cleared.
//  5. The reported line is the (weighted) average of the history.
//
// A State belongs to one sequence and must only be updated by one goroutine
// at a time, with frames in order.
//
// # Measurements
//
// Curvature refits the reported line in meter space and evaluates the radius
// of curvature at the bottom row. Offset converts the distance between the
// frame center and the lane center into meters; negative values mean the
// vehicle is left of the lane center.
package lane
