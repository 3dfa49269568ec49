package pipeline

import (
	"image"

	"github.com/ironsheep/lanefinder/internal/imaging"
	"github.com/ironsheep/lanefinder/internal/lane"
	"github.com/ironsheep/lanefinder/internal/overlay"
	"github.com/ironsheep/lanefinder/internal/threshold"
)

// SideReport is the per-side part of a FrameResult.
type SideReport struct {
	lane.SideResult
	// RadiusM is the curvature radius in meters, zero when the side has no line.
	RadiusM float64 `json:"radius_m"`
}

func newSideReport(sr lane.SideResult) SideReport {
	return SideReport{SideResult: sr}
}

// FrameResult is the outcome of processing one frame.
type FrameResult struct {
	// Frame is the 1-based index of the frame in its sequence, 0 when tracking is off.
	Frame int `json:"frame"`
	// Tracked is false when the tracking stage is off; Left and Right are then empty.
	Tracked bool       `json:"tracked"`
	Left    SideReport `json:"left"`
	Right   SideReport `json:"right"`
	// LaneFound is set when both sides report a line.
	LaneFound bool `json:"lane_found"`
	// OffsetM is the vehicle offset from lane center; negative is left.
	OffsetM float64 `json:"offset_m"`
	// Polygon is the lane area in camera coordinates: the left line top to
	// bottom followed by the right line bottom to top.
	Polygon   []imaging.Point `json:"polygon,omitempty"`
	Threshold threshold.Stats `json:"threshold"`

	Overlay *image.NRGBA  `json:"-"`
	Stages  *StageOutputs `json:"-"`
}

// RadiusM returns the mean curvature radius of the sides that have a line.
func (r *FrameResult) RadiusM() float64 {
	var sum float64
	var n int
	for _, sr := range []SideReport{r.Left, r.Right} {
		if sr.RadiusM > 0 {
			sum += sr.RadiusM
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Annotation returns the text shown on the overlay.
func (r *FrameResult) Annotation() overlay.Annotation {
	return overlay.Annotation{
		RadiusM:   r.RadiusM(),
		OffsetM:   r.OffsetM,
		LaneFound: r.LaneFound,
		Frame:     r.Frame,
	}
}

// Lanes returns the tracker view of both sides.
func (r *FrameResult) Lanes() lane.Result {
	return lane.Result{Left: r.Left.SideResult, Right: r.Right.SideResult}
}
