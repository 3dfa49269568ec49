package lane

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/lanefinder/internal/config"
	"github.com/ironsheep/lanefinder/internal/imaging"
	"github.com/ironsheep/lanefinder/internal/logging"
)

// Status is the per-frame outcome for one side.
type Status int

const (
	// StatusOK means a fresh fit was accepted.
	StatusOK Status = iota
	// StatusHeld means the search found too little support; the last good line is reported.
	StatusHeld
	// StatusRejected means the fit diverged from the previous line; the last good line is reported.
	StatusRejected
	// StatusLost means no line is reported this frame.
	StatusLost
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusHeld:
		return "held"
	case StatusRejected:
		return "rejected"
	case StatusLost:
		return "lost"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SideResult reports what happened to one side during an update.
type SideResult struct {
	Side Side `json:"side"`
	// Line is the reported, smoothed line. Line.Valid is false when Status is StatusLost.
	Line     Line       `json:"line"`
	Status   Status     `json:"status"`
	Search   SearchKind `json:"search"`
	Fallback bool       `json:"fallback"`
	Mode     Mode       `json:"mode"`
	Failures int        `json:"failures"`
	// Err is the reason the fresh fit was not accepted, nil on StatusOK.
	Err     error    `json:"-"`
	Windows []Window `json:"windows,omitempty"`
}

// Result is the outcome of one Tracker.Update.
type Result struct {
	Left  SideResult `json:"left"`
	Right SideResult `json:"right"`
}

// Side returns the result of one side.
func (r *Result) Side(side Side) *SideResult {
	if side == Right {
		return &r.Right
	}
	return &r.Left
}

// Tracker runs the per-frame lane state machine. It holds only configuration
// and can be shared by any number of sequences, each with its own State.
type Tracker struct {
	cfg config.LaneConfig
}

// NewTracker creates a Tracker.
func NewTracker(cfg config.LaneConfig) *Tracker {
	return &Tracker{cfg: cfg}
}

// candidate is a fresh fit that has not yet been validated.
type candidate struct {
	line     Line
	search   SearchResult
	fallback bool
	err      error
}

// Update advances state by one bird's-eye mask and returns the reported lines.
//
// A nil mask, or a mask whose size differs from the masks seen earlier in the
// sequence, is an error and leaves state untouched. Every other outcome,
// including a lost lane, is reported through the Result.
func (t *Tracker) Update(state *State, mask *imaging.BinaryMask) (Result, error) {
	if state == nil {
		return Result{}, fmt.Errorf("lane: nil state")
	}
	if mask == nil || mask.Width < 2 || mask.Height < 1 {
		return Result{}, fmt.Errorf("lane: empty mask")
	}
	if state.Frames > 0 && (mask.Width != state.width || mask.Height != state.height) {
		return Result{}, fmt.Errorf("lane: mask is %dx%d, sequence is %dx%d",
			mask.Width, mask.Height, state.width, state.height)
	}
	state.width, state.height = mask.Width, mask.Height
	state.Frames++

	leftBase, rightBase := BasePeaks(mask)
	bases := [2]int{leftBase, rightBase}

	var cands [2]candidate
	for _, side := range []Side{Left, Right} {
		cands[side] = t.search(state.Side(side), side, mask, bases[side])
	}
	t.checkLaneWidth(&cands, mask.Height)

	var res Result
	for _, side := range []Side{Left, Right} {
		*res.Side(side) = t.apply(state.Side(side), side, cands[side])
	}
	return res, nil
}

// search finds and fits one side, validating against that side's own history.
func (t *Tracker) search(ss *SideState, side Side, mask *imaging.BinaryMask, base int) candidate {
	var c candidate
	if ss.Mode == HasPriorFit && ss.Current.Valid && ss.Current.Confidence >= t.cfg.MinConfidence {
		c.search = PriorSearch(mask, ss.Current.Coefficients, t.cfg.PriorSearch.MarginPx)
		if c.search.Count() < t.cfg.PriorSearch.MinPixelsToAccept {
			logging.Debugf("lane %s: prior search found %d pixels, falling back to sliding window",
				side, c.search.Count())
			c.fallback = true
		}
	}
	if c.search.Kind == SearchNone || c.fallback {
		c.search = SlidingWindow(mask, base, t.cfg.SlidingWindow)
	}

	n := c.search.Count()
	if n < t.cfg.MinFitPixels {
		c.err = fmt.Errorf("%s lane: %d pixels, need %d: %w", side, n, t.cfg.MinFitPixels, ErrInsufficientPixels)
		return c
	}
	coeffs, err := fitPixels(c.search.Xs, c.search.Ys)
	if err != nil {
		c.err = fmt.Errorf("%s lane: %w", side, err)
		return c
	}
	c.line = Line{
		Coefficients: coeffs,
		Xs:           c.search.Xs,
		Ys:           c.search.Ys,
		PixelCount:   n,
		Confidence:   bandCoverage(c.search.Ys, mask.Height, t.cfg.SlidingWindow.BandCount),
		Valid:        true,
	}

	if ss.Mode == HasPriorFit && ss.Current.Valid {
		c.err = t.checkDivergence(side, ss.Current.Coefficients, coeffs, float64(mask.Height-1))
	}
	return c
}

func (t *Tracker) checkDivergence(side Side, prev, next Coefficients, yBottom float64) error {
	if t.cfg.MaxCurvatureDelta > 0 {
		if d := math.Abs(next.A - prev.A); d > t.cfg.MaxCurvatureDelta {
			return fmt.Errorf("%s lane: curvature term changed by %.2e (max %.2e): %w",
				side, d, t.cfg.MaxCurvatureDelta, ErrFitDivergence)
		}
	}
	if t.cfg.MaxBaseShiftPx > 0 {
		if d := math.Abs(next.X(yBottom) - prev.X(yBottom)); d > t.cfg.MaxBaseShiftPx {
			return fmt.Errorf("%s lane: base moved %.1f px (max %.1f): %w",
				side, d, t.cfg.MaxBaseShiftPx, ErrFitDivergence)
		}
	}
	return nil
}

// checkLaneWidth rejects the less confident side when both fits are valid but
// the bottom-row lane width is outside the configured range. Equal confidence
// rejects both.
func (t *Tracker) checkLaneWidth(cands *[2]candidate, height int) {
	r := t.cfg.LaneWidthPx
	if r.High() <= 0 {
		return
	}
	l, rt := &cands[Left], &cands[Right]
	if l.err != nil || rt.err != nil {
		return
	}
	y := float64(height - 1)
	width := rt.line.X(y) - l.line.X(y)
	if r.Contains(width) {
		return
	}
	err := fmt.Errorf("lane width %.1f px outside [%.0f, %.0f]: %w", width, r.Low(), r.High(), ErrFitDivergence)
	switch {
	case l.line.Confidence < rt.line.Confidence:
		l.err = err
	case rt.line.Confidence < l.line.Confidence:
		rt.err = err
	default:
		l.err, rt.err = err, err
	}
}

// apply commits a candidate to the side state.
func (t *Tracker) apply(ss *SideState, side Side, c candidate) SideResult {
	res := SideResult{
		Side:     side,
		Search:   c.search.Kind,
		Fallback: c.fallback,
		Windows:  c.search.Windows,
	}

	if c.err == nil {
		ss.History.Push(c.line.Coefficients)
		ss.Failures = 0
		ss.Mode = HasPriorFit
		ss.fitConfidence = c.line.Confidence
		ss.Current = c.line
		ss.Current.Coefficients = ss.History.Smoothed(t.cfg.Smoothing)
		res.Status = StatusOK
	} else {
		ss.Failures++
		res.Err = c.err
		switch {
		case ss.Failures > t.cfg.MaxConsecutiveFailures:
			if ss.Mode == HasPriorFit {
				logging.Debugf("lane %s: tracking lost after %d failures: %v", side, ss.Failures, c.err)
			}
			ss.Mode = NoPriorFit
			ss.History.Clear()
			ss.Current = Line{}
			res.Status = StatusLost
		case ss.Current.Valid:
			decay := 1 - float64(ss.Failures)/float64(t.cfg.MaxConsecutiveFailures+1)
			ss.Current.Confidence = ss.fitConfidence * decay
			res.Status = StatusHeld
			if errors.Is(c.err, ErrFitDivergence) {
				res.Status = StatusRejected
			}
			logging.Debugf("lane %s: holding last good line (%d failures): %v", side, ss.Failures, c.err)
		default:
			res.Status = StatusLost
		}
	}

	res.Line = ss.Current
	res.Mode = ss.Mode
	res.Failures = ss.Failures
	return res
}
