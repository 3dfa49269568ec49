// Package overlay draws the detected lane and its measurements onto a camera
// frame.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	imglib "github.com/disintegration/imaging"
	"github.com/ironsheep/lanefinder/internal/config"
	"github.com/ironsheep/lanefinder/internal/imaging"
)

// Annotation is the numeric information printed on the frame.
type Annotation struct {
	// RadiusM is the lane curvature radius in meters; zero when unknown.
	RadiusM float64
	// OffsetM is the signed vehicle offset; negative is left of center.
	OffsetM   float64
	LaneFound bool
	Frame     int
}

// Lines formats the annotation as text rows.
func (a Annotation) Lines() []string {
	if !a.LaneFound {
		return []string{"Lane not found"}
	}
	side := "right"
	if a.OffsetM < 0 {
		side = "left"
	}
	lines := []string{
		fmt.Sprintf("Radius of curvature: %.0f m", a.RadiusM),
		fmt.Sprintf("Vehicle is %.2f m %s of center", math.Abs(a.OffsetM), side),
	}
	if a.Frame > 0 {
		lines = append(lines, fmt.Sprintf("Frame %d", a.Frame))
	}
	return lines
}

// Render returns a copy of frame with the lane polygon blended in and the
// annotation printed in the top-left corner.
//
// Parameters:
//   - frame: The undistorted camera frame. It is not modified.
//   - polygon: The lane area in camera coordinates; fewer than three points draws no lane.
//   - ann: Text to print when cfg.ShowText is set.
//   - cfg: Lane color and opacity.
func Render(frame image.Image, polygon []imaging.Point, ann Annotation, cfg config.OverlayConfig) (*image.NRGBA, error) {
	if frame == nil {
		return nil, fmt.Errorf("overlay: nil frame")
	}
	laneColor, err := imaging.ParseHexColor(cfg.LaneColor)
	if err != nil {
		return nil, fmt.Errorf("overlay: lane color: %w", err)
	}

	out := imaging.ToNRGBA(frame)
	if len(polygon) >= 3 {
		layer := image.NewNRGBA(out.Bounds())
		imaging.FillPolygon(layer, polygon, laneColor)
		out = imglib.Overlay(out, layer, image.Point{}, cfg.Opacity)

		outline := append(append([]imaging.Point(nil), polygon...), polygon[0])
		imaging.DrawPolyline(out, outline, 2, laneColor)
	}

	if cfg.ShowText {
		fg := color.RGBA{255, 255, 255, 255}
		bg := color.RGBA{0, 0, 0, 160}
		for i, line := range ann.Lines() {
			imaging.DrawLabel(out, 10, 10+i*20, line, fg, bg)
		}
	}
	return out, nil
}
