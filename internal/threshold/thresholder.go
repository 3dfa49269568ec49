package threshold

import (
	"fmt"
	"image"

	"github.com/ironsheep/lanefinder/internal/config"
	"github.com/ironsheep/lanefinder/internal/imaging"
	"github.com/ironsheep/lanefinder/internal/logging"
)

// Stats summarises one thresholding pass.
type Stats struct {
	// Degenerate is set when a rescaled gradient had a zero maximum and
	// produced an all-zero mask.
	Degenerate   bool    `json:"degenerate"`
	MaxGradX     float64 `json:"max_grad_x"`
	MaxGradY     float64 `json:"max_grad_y"`
	MaxMagnitude float64 `json:"max_magnitude"`
	// CandidatePixels is the number of set pixels in the combined mask.
	CandidatePixels int `json:"candidate_pixels"`
}

// Result holds the combined mask and every intermediate mask.
// Color is nil when the color threshold is disabled.
type Result struct {
	GradX     *imaging.BinaryMask
	GradY     *imaging.BinaryMask
	Magnitude *imaging.BinaryMask
	Direction *imaging.BinaryMask
	Color     *imaging.BinaryMask
	Combined  *imaging.BinaryMask
	Stats     Stats
}

// Thresholder applies the configured threshold combination to frames.
// It holds no per-frame state and is safe for concurrent use.
type Thresholder struct {
	cfg config.ThresholdConfig
}

// New creates a Thresholder.
func New(cfg config.ThresholdConfig) *Thresholder {
	return &Thresholder{cfg: cfg}
}

// Apply thresholds a frame. The frame is not modified.
func (t *Thresholder) Apply(frame image.Image) (*Result, error) {
	if frame == nil {
		return nil, fmt.Errorf("threshold: nil frame")
	}
	gray := imaging.Grayscale(frame, t.cfg.BlurRadius)

	gx, gy, err := imaging.Sobel(gray, t.cfg.KernelSize)
	if err != nil {
		return nil, fmt.Errorf("threshold: %w", err)
	}

	var res Result
	absX, absY, mag := absPlane(gx), absPlane(gy), magnitudePlane(gx, gy)
	res.Stats.MaxGradX, res.Stats.MaxGradY, res.Stats.MaxMagnitude = absX.Max(), absY.Max(), mag.Max()

	var degX, degY, degM bool
	res.GradX, degX = rescaleThreshold(absX, t.cfg.GradientX)
	res.GradY, degY = rescaleThreshold(absY, t.cfg.GradientY)
	res.Magnitude, degM = rescaleThreshold(mag, t.cfg.Magnitude)
	res.Stats.Degenerate = degX || degY || degM
	if res.Stats.Degenerate {
		logging.Debugf("threshold: degenerate gradient (max x=%.1f y=%.1f mag=%.1f)",
			res.Stats.MaxGradX, res.Stats.MaxGradY, res.Stats.MaxMagnitude)
	}

	if k := t.cfg.DirectionKernel(); k == t.cfg.KernelSize {
		res.Direction = rangeMask(directionPlane(gx, gy), t.cfg.Direction)
	} else {
		dgx, dgy, err := imaging.Sobel(gray, k)
		if err != nil {
			return nil, fmt.Errorf("threshold: %w", err)
		}
		res.Direction = rangeMask(directionPlane(dgx, dgy), t.cfg.Direction)
	}

	var extra []*imaging.BinaryMask
	if t.cfg.Color.Enabled {
		res.Color, err = Channel(frame, t.cfg.Color.Channel, t.cfg.Color.Range)
		if err != nil {
			return nil, fmt.Errorf("threshold: %w", err)
		}
		extra = append(extra, res.Color)
	}

	res.Combined, err = Combine(res.GradX, res.GradY, res.Magnitude, res.Direction, extra...)
	if err != nil {
		return nil, fmt.Errorf("threshold: %w", err)
	}
	res.Stats.CandidatePixels = res.Combined.Count()
	return &res, nil
}
