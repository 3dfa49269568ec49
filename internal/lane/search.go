package lane

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/lanefinder/internal/config"
	"github.com/ironsheep/lanefinder/internal/imaging"
)

// SearchKind names the search that produced a fit.
type SearchKind int

const (
	SearchNone SearchKind = iota
	SearchPrior
	SearchSlidingWindow
)

func (k SearchKind) String() string {
	switch k {
	case SearchNone:
		return "none"
	case SearchPrior:
		return "prior"
	case SearchSlidingWindow:
		return "sliding_window"
	}
	return fmt.Sprintf("SearchKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k SearchKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Window is one band of a sliding-window search.
type Window struct {
	Band   int             `json:"band"`
	Rect   image.Rectangle `json:"rect"`
	Pixels int             `json:"pixels"`
}

// SearchResult holds the pixels collected by one search.
type SearchResult struct {
	Kind    SearchKind
	Xs, Ys  []int
	Windows []Window
}

// Count returns the number of collected pixels.
func (r SearchResult) Count() int { return len(r.Xs) }

// Histogram sums each mask column over rows [fromRow, height).
func Histogram(mask *imaging.BinaryMask, fromRow int) []int {
	hist := make([]int, mask.Width)
	for y := max(fromRow, 0); y < mask.Height; y++ {
		row := mask.Pix[y*mask.Width : (y+1)*mask.Width]
		for x, v := range row {
			hist[x] += int(v)
		}
	}
	return hist
}

// BasePeaks returns the histogram peak of the bottom half of the mask in the
// left and right halves of the frame. Ties resolve to the lowest column.
func BasePeaks(mask *imaging.BinaryMask) (left, right int) {
	hist := Histogram(mask, mask.Height/2)
	mid := mask.Width / 2
	return argmax(hist, 0, mid), argmax(hist, mid, mask.Width)
}

func argmax(v []int, from, to int) int {
	best := from
	for i := from; i < to; i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// SlidingWindow collects lane pixels band by band from the bottom of the mask
// upward, starting with a window centered on base.
//
// Each band is height/bandCount rows tall; the top band absorbs the remainder.
// The window spans [center-margin, center+margin). When a band holds more than
// MinPixelsToRecenter pixels the next window is centered on their mean x;
// otherwise the center is kept.
func SlidingWindow(mask *imaging.BinaryMask, base int, cfg config.SlidingWindowConfig) SearchResult {
	res := SearchResult{Kind: SearchSlidingWindow}
	bands := cfg.BandCount
	if bands > mask.Height {
		bands = mask.Height
	}
	if bands < 1 {
		return res
	}
	bandHeight := mask.Height / bands
	center := base

	for band := 0; band < bands; band++ {
		yHigh := mask.Height - band*bandHeight
		yLow := yHigh - bandHeight
		if band == bands-1 {
			yLow = 0
		}
		xLow := max(center-cfg.MarginPx, 0)
		xHigh := min(center+cfg.MarginPx, mask.Width)

		count, sumX := 0, 0
		for y := yLow; y < yHigh; y++ {
			row := mask.Pix[y*mask.Width : (y+1)*mask.Width]
			for x := xLow; x < xHigh; x++ {
				if row[x] != 0 {
					res.Xs = append(res.Xs, x)
					res.Ys = append(res.Ys, y)
					count++
					sumX += x
				}
			}
		}
		res.Windows = append(res.Windows, Window{
			Band:   band,
			Rect:   image.Rect(xLow, yLow, xHigh, yHigh),
			Pixels: count,
		})
		if count > cfg.MinPixelsToRecenter {
			center = sumX / count
		}
	}
	return res
}

// PriorSearch collects mask pixels lying strictly within margin of the prior
// curve, evaluated at every row.
func PriorSearch(mask *imaging.BinaryMask, prior Coefficients, margin int) SearchResult {
	res := SearchResult{Kind: SearchPrior}
	m := float64(margin)
	for y := 0; y < mask.Height; y++ {
		cx := prior.X(float64(y))
		xLow := max(int(math.Ceil(cx-m)), 0)
		xHigh := min(int(math.Floor(cx+m)), mask.Width-1)
		row := mask.Pix[y*mask.Width : (y+1)*mask.Width]
		for x := xLow; x <= xHigh; x++ {
			if row[x] != 0 && math.Abs(float64(x)-cx) < m {
				res.Xs = append(res.Xs, x)
				res.Ys = append(res.Ys, y)
			}
		}
	}
	return res
}

// bandCoverage returns the fraction of bandCount equal row bands that hold at
// least one of the pixels.
func bandCoverage(ys []int, height, bandCount int) float64 {
	if bandCount < 1 || height < 1 {
		return 0
	}
	if bandCount > height {
		bandCount = height
	}
	bandHeight := height / bandCount
	hit := make([]bool, bandCount)
	for _, y := range ys {
		// band 0 is the bottom band; the top band absorbs the remainder
		band := (height - 1 - y) / bandHeight
		if band >= bandCount {
			band = bandCount - 1
		}
		hit[band] = true
	}
	n := 0
	for _, h := range hit {
		if h {
			n++
		}
	}
	return float64(n) / float64(bandCount)
}
