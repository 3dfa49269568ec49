package diagnostics

import (
	"fmt"
	"image/color"

	"github.com/ironsheep/lanefinder/internal/imaging"
	"github.com/ironsheep/lanefinder/internal/lane"
	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// maxMaskPoints bounds the number of mask pixels drawn as background.
const maxMaskPoints = 20000

// sideColors returns a distinct color per lane side.
func sideColors() [2]color.Color {
	return [2]color.Color{
		colorful.Hsl(210, 0.8, 0.45),
		colorful.Hsl(10, 0.8, 0.5),
	}
}

// PlotLaneFit plots a bird's-eye mask with each side's search windows,
// supporting pixels and reported curve. Rows grow downward as in the image.
func PlotLaneFit(mask *imaging.BinaryMask, res lane.Result, filename string) error {
	if mask == nil {
		return fmt.Errorf("diagnostics: nil mask")
	}

	p := plot.New()
	p.Title.Text = "Lane fit (bird's-eye)"
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"
	p.X.Min, p.X.Max = 0, float64(mask.Width)
	p.Y.Min, p.Y.Max = 0, float64(mask.Height)
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	xs, ys := mask.Nonzero()
	if len(xs) > 0 {
		pts := samplePoints(xs, ys, maxMaskPoints)
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = color.Gray{Y: 170}
		sc.GlyphStyle.Radius = vg.Points(0.5)
		p.Add(sc)
	}

	colors := sideColors()
	for _, side := range []lane.Side{lane.Left, lane.Right} {
		sr := res.Side(side)
		c := colors[side]

		for _, w := range sr.Windows {
			box, err := plotter.NewLine(rectPoints(w.Rect.Min.X, w.Rect.Min.Y, w.Rect.Max.X, w.Rect.Max.Y))
			if err != nil {
				return err
			}
			box.Color = c
			box.Width = vg.Points(0.5)
			box.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
			p.Add(box)
		}

		if !sr.Line.Valid {
			continue
		}
		if len(sr.Line.Xs) > 0 {
			sc, err := plotter.NewScatter(samplePoints(sr.Line.Xs, sr.Line.Ys, maxMaskPoints))
			if err != nil {
				return err
			}
			sc.GlyphStyle.Color = c
			sc.GlyphStyle.Radius = vg.Points(0.5)
			p.Add(sc)
		}

		curve := make(plotter.XYs, 0, mask.Height)
		for _, pt := range sr.Line.Sample(mask.Height) {
			curve = append(curve, plotter.XY{X: pt.X, Y: pt.Y})
		}
		l, err := plotter.NewLine(curve)
		if err != nil {
			return err
		}
		l.Color = c
		l.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("%s (%s)", side, sr.Status), l)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(8*vg.Inch, 8*vg.Inch*vg.Length(mask.Height)/vg.Length(mask.Width), filename); err != nil {
		return fmt.Errorf("failed to save lane fit plot: %w", err)
	}
	return nil
}

// PlotHistogram plots the column histogram of the bottom half of a mask,
// the signal the sliding-window search is seeded from.
func PlotHistogram(mask *imaging.BinaryMask, filename string) error {
	if mask == nil {
		return fmt.Errorf("diagnostics: nil mask")
	}
	hist := lane.Histogram(mask, mask.Height/2)

	pts := make(plotter.XYs, len(hist))
	for x, n := range hist {
		pts[x] = plotter.XY{X: float64(x), Y: float64(n)}
	}

	p := plot.New()
	p.Title.Text = "Bottom-half column histogram"
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "Pixels"

	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	l.Width = vg.Points(1)
	p.Add(l)

	left, right := lane.BasePeaks(mask)
	colors := sideColors()
	for i, base := range []int{left, right} {
		marker, err := plotter.NewLine(plotter.XYs{{X: float64(base), Y: 0}, {X: float64(base), Y: float64(hist[base])}})
		if err != nil {
			return err
		}
		marker.Color = colors[i]
		marker.Width = vg.Points(1.5)
		p.Add(marker)
		p.Legend.Add(fmt.Sprintf("%s base x=%d", lane.Side(i), base), marker)
	}

	if err := p.Save(10*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("failed to save histogram plot: %w", err)
	}
	return nil
}

// samplePoints converts pixel coordinates to plot points, keeping at most
// limit of them by regular striding.
func samplePoints(xs, ys []int, limit int) plotter.XYs {
	step := 1
	if len(xs) > limit {
		step = (len(xs) + limit - 1) / limit
	}
	pts := make(plotter.XYs, 0, len(xs)/step+1)
	for i := 0; i < len(xs); i += step {
		pts = append(pts, plotter.XY{X: float64(xs[i]), Y: float64(ys[i])})
	}
	return pts
}

func rectPoints(x0, y0, x1, y1 int) plotter.XYs {
	return plotter.XYs{
		{X: float64(x0), Y: float64(y0)},
		{X: float64(x1), Y: float64(y0)},
		{X: float64(x1), Y: float64(y1)},
		{X: float64(x0), Y: float64(y1)},
		{X: float64(x0), Y: float64(y0)},
	}
}
