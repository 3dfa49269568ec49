package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ironsheep/lanefinder/internal/pipeline"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SeriesSample is the per-frame record of a sequence.
type SeriesSample struct {
	Frame        int
	LeftRadiusM  float64
	RightRadiusM float64
	OffsetM      float64
	LaneFound    bool
}

// SeriesPlotter records curvature and offset over a sequence and plots them
// after the run.
type SeriesPlotter struct {
	mu      sync.Mutex
	samples []SeriesSample
}

// NewSeriesPlotter creates an empty plotter.
func NewSeriesPlotter() *SeriesPlotter {
	return &SeriesPlotter{}
}

// Add records one frame result.
func (sp *SeriesPlotter) Add(res *pipeline.FrameResult) {
	if res == nil {
		return
	}
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.samples = append(sp.samples, SeriesSample{
		Frame:        res.Frame,
		LeftRadiusM:  res.Left.RadiusM,
		RightRadiusM: res.Right.RadiusM,
		OffsetM:      res.OffsetM,
		LaneFound:    res.LaneFound,
	})
}

// Len returns the number of recorded frames.
func (sp *SeriesPlotter) Len() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return len(sp.samples)
}

// Samples returns a copy of the recorded frames.
func (sp *SeriesPlotter) Samples() []SeriesSample {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return append([]SeriesSample(nil), sp.samples...)
}

// Save writes curvature.png and offset.png to dir and returns the number of
// files written. Nothing is written when no frames were recorded.
func (sp *SeriesPlotter) Save(dir string) (int, error) {
	samples := sp.Samples()
	if len(samples) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create plot directory: %w", err)
	}

	var left, right, offset plotter.XYs
	for i, s := range samples {
		x := float64(s.Frame)
		if x == 0 {
			x = float64(i + 1)
		}
		if s.LeftRadiusM > 0 {
			left = append(left, plotter.XY{X: x, Y: s.LeftRadiusM})
		}
		if s.RightRadiusM > 0 {
			right = append(right, plotter.XY{X: x, Y: s.RightRadiusM})
		}
		if s.LaneFound {
			offset = append(offset, plotter.XY{X: x, Y: s.OffsetM})
		}
	}

	written := 0
	colors := sideColors()

	pc := plot.New()
	pc.Title.Text = "Radius of curvature"
	pc.X.Label.Text = "Frame"
	pc.Y.Label.Text = "Radius (m)"
	for i, pts := range []plotter.XYs{left, right} {
		if len(pts) == 0 {
			continue
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return written, err
		}
		l.Color = colors[i]
		l.Width = vg.Points(1)
		pc.Add(l)
		pc.Legend.Add([]string{"left", "right"}[i], l)
	}
	pc.Legend.Top = true
	if err := pc.Save(14*vg.Inch, 6*vg.Inch, filepath.Join(dir, "curvature.png")); err != nil {
		return written, fmt.Errorf("failed to save curvature plot: %w", err)
	}
	written++

	po := plot.New()
	po.Title.Text = "Vehicle offset from lane center"
	po.X.Label.Text = "Frame"
	po.Y.Label.Text = "Offset (m, negative = left)"
	if len(offset) > 0 {
		l, err := plotter.NewLine(offset)
		if err != nil {
			return written, err
		}
		l.Width = vg.Points(1)
		po.Add(l)
	}
	po.Add(plotter.NewGrid())
	if err := po.Save(14*vg.Inch, 6*vg.Inch, filepath.Join(dir, "offset.png")); err != nil {
		return written, fmt.Errorf("failed to save offset plot: %w", err)
	}
	written++

	return written, nil
}
