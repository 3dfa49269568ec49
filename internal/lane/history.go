package lane

import "github.com/ironsheep/lanefinder/internal/config"

// History is a fixed-capacity ring of accepted fits. Pushing onto a full
// history evicts the oldest fit.
type History struct {
	fits  []Coefficients
	start int
	n     int
}

// NewHistory creates an empty history holding at most capacity fits.
// A capacity below 1 is treated as 1.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{fits: make([]Coefficients, capacity)}
}

// Push appends a fit, evicting the oldest one when full.
func (h *History) Push(c Coefficients) {
	if h.n < len(h.fits) {
		h.fits[(h.start+h.n)%len(h.fits)] = c
		h.n++
		return
	}
	h.fits[h.start] = c
	h.start = (h.start + 1) % len(h.fits)
}

// Len returns the number of stored fits.
func (h *History) Len() int { return h.n }

// Cap returns the capacity.
func (h *History) Cap() int { return len(h.fits) }

// Clear drops every stored fit.
func (h *History) Clear() {
	h.start, h.n = 0, 0
}

// Fits returns the stored fits from oldest to newest.
func (h *History) Fits() []Coefficients {
	out := make([]Coefficients, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.fits[(h.start+i)%len(h.fits)]
	}
	return out
}

// Smoothed averages the stored fits. In weighted mode the i-th oldest fit has
// weight i+1, so the newest fit weighs the most; mean mode weighs all equally.
// An empty history returns zero coefficients.
func (h *History) Smoothed(mode string) Coefficients {
	var sum Coefficients
	var total float64
	for i, c := range h.Fits() {
		w := 1.0
		if mode != config.SmoothingMean {
			w = float64(i + 1)
		}
		sum.A += w * c.A
		sum.B += w * c.B
		sum.C += w * c.C
		total += w
	}
	if total == 0 {
		return Coefficients{}
	}
	return Coefficients{A: sum.A / total, B: sum.B / total, C: sum.C / total}
}
