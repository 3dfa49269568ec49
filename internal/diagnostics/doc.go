// Package diagnostics writes plots that help tune the lane tracker: the
// bird's-eye mask with the searched windows and fitted curves, the base
// histogram, and per-sequence curvature and offset series.
//
// Plots are written with gonum/plot; the output format follows the file
// extension (.png, .svg, .pdf).
package diagnostics
