package lane

import "errors"

var (
	// ErrInsufficientPixels reports a search that found too few lane pixels to fit.
	ErrInsufficientPixels = errors.New("insufficient lane pixels")

	// ErrFitDivergence reports a fit that is implausible compared to the previous line.
	ErrFitDivergence = errors.New("lane fit diverges from previous fit")
)
