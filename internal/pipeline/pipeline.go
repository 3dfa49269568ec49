package pipeline

import (
	"fmt"
	"image"

	"github.com/ironsheep/lanefinder/internal/camera"
	"github.com/ironsheep/lanefinder/internal/config"
	"github.com/ironsheep/lanefinder/internal/imaging"
	"github.com/ironsheep/lanefinder/internal/lane"
	"github.com/ironsheep/lanefinder/internal/logging"
	"github.com/ironsheep/lanefinder/internal/overlay"
	"github.com/ironsheep/lanefinder/internal/threshold"
)

// Pipeline processes frames of one camera. It is safe for concurrent use;
// per-sequence state lives in lane.State.
type Pipeline struct {
	cfg         *config.Config
	calib       *camera.Calibration
	transform   *camera.PerspectiveTransform
	thresholder *threshold.Thresholder
	tracker     *lane.Tracker
}

// New builds a pipeline. A nil cfg uses config.Default().
//
// A missing or invalid calibration returns an error wrapping
// camera.ErrCalibrationUnavailable. When cfg.Frame fixes a frame size that
// differs from the calibration's, the calibration is scaled to it.
func New(cfg *config.Config, calib *camera.Calibration) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if calib == nil {
		return nil, fmt.Errorf("pipeline: %w: no calibration", camera.ErrCalibrationUnavailable)
	}

	c := *calib
	c.DistCoeffs = append([]float64(nil), calib.DistCoeffs...)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if w, h := cfg.Frame.Width, cfg.Frame.Height; w > 0 && (w != c.ImageWidth || h != c.ImageHeight) {
		logging.Logf("pipeline: scaling calibration from %dx%d to %dx%d", c.ImageWidth, c.ImageHeight, w, h)
		c = *c.Scaled(w, h)
	}

	t, err := c.Transform()
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	return &Pipeline{
		cfg:         cfg,
		calib:       &c,
		transform:   t,
		thresholder: threshold.New(cfg.Threshold),
		tracker:     lane.NewTracker(cfg.Lane),
	}, nil
}

// Config returns the configuration. Callers must not modify it.
func (p *Pipeline) Config() *config.Config { return p.cfg }

// Calibration returns the calibration in use, after any scaling.
func (p *Pipeline) Calibration() *camera.Calibration { return p.calib }

// Transform returns the perspective transform.
func (p *Pipeline) Transform() *camera.PerspectiveTransform { return p.transform }

// FrameSize returns the size every frame is processed at.
func (p *Pipeline) FrameSize() (width, height int) {
	return p.calib.ImageWidth, p.calib.ImageHeight
}

// NewState returns a fresh tracking state sized for this pipeline.
func (p *Pipeline) NewState() *lane.State {
	return lane.NewState(p.cfg.Lane.HistoryLength)
}

// StageOutputs holds the intermediate products of one frame.
type StageOutputs struct {
	Undistorted *image.NRGBA
	// Threshold is nil when the threshold stage is off.
	Threshold *threshold.Result
	// Mask is the combined camera-space mask.
	Mask     *imaging.BinaryMask
	BirdsEye *imaging.BinaryMask
}

// Stages runs every stage up to the bird's-eye mask.
func (p *Pipeline) Stages(frame image.Image) (*StageOutputs, error) {
	img, err := p.prepare(frame)
	if err != nil {
		return nil, err
	}

	var out StageOutputs
	if p.cfg.Stages.Undistort {
		out.Undistorted = camera.Undistort(img, p.calib)
	} else {
		out.Undistorted = imaging.ToNRGBA(img)
	}

	if p.cfg.Stages.Threshold {
		out.Threshold, err = p.thresholder.Apply(out.Undistorted)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		out.Mask = out.Threshold.Combined
	} else {
		out.Mask = imaging.MaskFromImage(out.Undistorted)
	}

	if p.cfg.Stages.Warp {
		out.BirdsEye = p.transform.WarpMask(out.Mask, camera.ToBirdsEye)
	} else {
		out.BirdsEye = out.Mask
	}
	return &out, nil
}

// prepare checks a frame and brings it to the pipeline frame size.
func (p *Pipeline) prepare(frame image.Image) (image.Image, error) {
	if frame == nil {
		return nil, fmt.Errorf("pipeline: nil frame")
	}
	w, h := p.FrameSize()
	if p.cfg.Frame.Width > 0 {
		return imaging.FitFrame(frame, w, h), nil
	}
	b := frame.Bounds()
	if b.Dx() != w || b.Dy() != h {
		return nil, fmt.Errorf("pipeline: frame is %dx%d, calibration is %dx%d", b.Dx(), b.Dy(), w, h)
	}
	return frame, nil
}

// Process runs one frame through the pipeline and advances state.
//
// A nil or wrongly sized frame returns an error and leaves state untouched.
// Lane detection problems never return an error; they are reported through
// the per-side status of the result.
func (p *Pipeline) Process(state *lane.State, frame image.Image) (*FrameResult, error) {
	if state == nil {
		return nil, fmt.Errorf("pipeline: nil state")
	}
	st, err := p.Stages(frame)
	if err != nil {
		return nil, err
	}

	res := &FrameResult{Stages: st}
	if st.Threshold != nil {
		res.Threshold = st.Threshold.Stats
	}

	if p.cfg.Stages.Track {
		tr, err := p.tracker.Update(state, st.BirdsEye)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		res.Tracked = true
		res.Left = newSideReport(tr.Left)
		res.Right = newSideReport(tr.Right)
		res.Frame = state.Frames
		p.measure(res, st.BirdsEye.Width, st.BirdsEye.Height)
	}

	if p.cfg.Stages.Render {
		res.Overlay, err = overlay.Render(st.Undistorted, res.Polygon, res.Annotation(), p.cfg.Overlay)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	}
	return res, nil
}

// measure fills in curvature, offset and the camera-space polygon.
func (p *Pipeline) measure(res *FrameResult, width, height int) {
	yBottom := float64(height - 1)
	for _, sr := range []*SideReport{&res.Left, &res.Right} {
		if !sr.Line.Valid {
			continue
		}
		r, err := lane.Curvature(sr.Line.Coefficients, yBottom, p.cfg.Scale)
		if err != nil {
			logging.Debugf("pipeline: %s curvature: %v", sr.Side, err)
			continue
		}
		sr.RadiusM = r
	}

	if !res.Left.Line.Valid || !res.Right.Line.Valid {
		return
	}
	res.LaneFound = true
	res.OffsetM = lane.Offset(res.Left.Line.Coefficients, res.Right.Line.Coefficients, yBottom, width, p.cfg.Scale)

	left := res.Left.Line.Sample(height)
	right := res.Right.Line.Sample(height)
	poly := make([]imaging.Point, 0, len(left)+len(right))
	poly = append(poly, left...)
	for i := len(right) - 1; i >= 0; i-- {
		poly = append(poly, right[i])
	}
	if p.cfg.Stages.Warp {
		poly = p.transform.ToCamera(poly)
	}
	res.Polygon = poly
}
