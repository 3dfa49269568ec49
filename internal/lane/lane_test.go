package lane

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/ironsheep/lanefinder/internal/config"
	"github.com/ironsheep/lanefinder/internal/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drawCurve rasterises x = c.X(y) with the given half width, rows [y0, y1).
func drawCurve(mask *imaging.BinaryMask, c Coefficients, halfWidth, y0, y1 int) {
	for y := y0; y < y1; y++ {
		xc := int(math.Round(c.X(float64(y))))
		for x := xc - halfWidth; x <= xc+halfWidth; x++ {
			mask.Set(x, y, true)
		}
	}
}

// twoLaneMask draws vertical lines at leftX and rightX over the full height.
func twoLaneMask(width, height, leftX, rightX int) *imaging.BinaryMask {
	m := imaging.NewBinaryMask(width, height)
	drawCurve(m, Coefficients{C: float64(leftX)}, 3, 0, height)
	drawCurve(m, Coefficients{C: float64(rightX)}, 3, 0, height)
	return m
}

func TestFitPolynomial_RecoversParabola(t *testing.T) {
	want := Coefficients{A: 2e-4, B: -0.25, C: 300}
	var xs, ys []float64
	for y := 0; y < 720; y += 3 {
		xs = append(xs, want.X(float64(y)))
		ys = append(ys, float64(y))
	}

	got, err := FitPolynomial(xs, ys)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-8)); diff != "" {
		t.Errorf("coefficients mismatch (-want +got):\n%s", diff)
	}
}

func TestFitPolynomial_Insufficient(t *testing.T) {
	_, err := FitPolynomial([]float64{1, 2}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrInsufficientPixels)

	// Many points on only two rows cannot determine three coefficients.
	_, err = FitPolynomial([]float64{1, 2, 3, 4}, []float64{5, 5, 9, 9})
	assert.ErrorIs(t, err, ErrInsufficientPixels)

	_, err = FitPolynomial([]float64{1, 2, 3}, []float64{1, 2})
	assert.Error(t, err)
}

func TestHistory_Bounded(t *testing.T) {
	h := NewHistory(5)
	for i := 0; i < 100; i++ {
		h.Push(Coefficients{C: float64(i)})
		require.LessOrEqual(t, h.Len(), 5)
	}
	assert.Equal(t, 5, h.Len())
	assert.Equal(t, 5, h.Cap())

	var cs []float64
	for _, c := range h.Fits() {
		cs = append(cs, c.C)
	}
	assert.Equal(t, []float64{95, 96, 97, 98, 99}, cs)

	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, Coefficients{}, h.Smoothed(config.SmoothingWeighted))
}

func TestHistory_Smoothed(t *testing.T) {
	h := NewHistory(5)
	for _, a := range []float64{1, 2, 3} {
		h.Push(Coefficients{A: a, C: 10 * a})
	}
	weighted := h.Smoothed(config.SmoothingWeighted)
	assert.InDelta(t, 14.0/6, weighted.A, 1e-12)
	assert.InDelta(t, 140.0/6, weighted.C, 1e-12)

	mean := h.Smoothed(config.SmoothingMean)
	assert.InDelta(t, 2.0, mean.A, 1e-12)
}

func TestBasePeaks(t *testing.T) {
	m := twoLaneMask(500, 300, 100, 400)
	left, right := BasePeaks(m)
	assert.Equal(t, 97, left, "ties resolve to the lowest column")
	assert.Equal(t, 397, right)

	hist := Histogram(m, 150)
	assert.Equal(t, 150, hist[100])
	assert.Equal(t, 0, hist[250])
}

func TestSlidingWindow_Recentering(t *testing.T) {
	// A slanted line drifting 40 px to the right over the frame height.
	m := imaging.NewBinaryMask(400, 270)
	drawCurve(m, Coefficients{B: -40.0 / 270, C: 140}, 3, 0, 270)

	cfg := config.SlidingWindowConfig{BandCount: 9, MarginPx: 30, MinPixelsToRecenter: 10}
	res := SlidingWindow(m, 100, cfg)
	require.Len(t, res.Windows, 9)
	first, last := res.Windows[0].Rect, res.Windows[8].Rect
	assert.Equal(t, 270, first.Max.Y)
	assert.Equal(t, 0, last.Min.Y)
	assert.Greater(t, (last.Min.X+last.Max.X)/2, (first.Min.X+first.Max.X)/2, "window should follow the line")

	cfg.MinPixelsToRecenter = 1000
	sparse := SlidingWindow(m, 100, cfg)
	for _, w := range sparse.Windows {
		assert.Equal(t, 70, w.Rect.Min.X, "sparse bands must not move the window")
	}
}

func TestPriorSearch_StrictMargin(t *testing.T) {
	m := imaging.NewBinaryMask(100, 3)
	m.Set(40, 1, true) // exactly margin away
	m.Set(41, 1, true)
	m.Set(59, 1, true)
	m.Set(60, 1, true) // exactly margin away

	res := PriorSearch(m, Coefficients{C: 50}, 10)
	assert.Equal(t, SearchPrior, res.Kind)
	assert.Equal(t, []int{41, 59}, res.Xs)
}

func TestBandCoverage(t *testing.T) {
	assert.Equal(t, 0.0, bandCoverage(nil, 90, 9))
	assert.InDelta(t, 1.0/9, bandCoverage([]int{89, 80}, 90, 9), 1e-12)
	assert.InDelta(t, 2.0/9, bandCoverage([]int{89, 0}, 90, 9), 1e-12)
}

func TestTracker_TwoVerticalLines(t *testing.T) {
	tr := NewTracker(config.Default().Lane)
	state := NewState(5)

	res, err := tr.Update(state, twoLaneMask(500, 300, 100, 400))
	require.NoError(t, err)

	require.Equal(t, StatusOK, res.Left.Status)
	require.Equal(t, StatusOK, res.Right.Status)
	assert.Equal(t, SearchSlidingWindow, res.Left.Search)
	assert.InDelta(t, 300, res.Right.Line.C-res.Left.Line.C, 1)
	assert.InDelta(t, 0, res.Left.Line.A, 1e-9)
	assert.InDelta(t, 1.0, res.Left.Line.Confidence, 1e-12)
	assert.Equal(t, HasPriorFit, state.Left.Mode)
}

func TestTracker_RecoversInjectedParabola(t *testing.T) {
	want := Coefficients{A: 2e-4, B: -0.25, C: 300}
	m := imaging.NewBinaryMask(1280, 720)
	drawCurve(m, want, 2, 0, 720)

	res, err := NewTracker(config.Default().Lane).Update(NewState(5), m)
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Left.Status)

	got := res.Left.Line
	assert.InDelta(t, want.A, got.A, 1e-6)
	assert.InDelta(t, want.B, got.B, 1e-3)
	assert.InDelta(t, want.C, got.C, 1)
	assert.Equal(t, StatusLost, res.Right.Status, "no right lane pixels")
}

func TestTracker_OcclusionScenario(t *testing.T) {
	tr := NewTracker(config.Default().Lane)
	state := NewState(5)
	lanes := twoLaneMask(500, 300, 100, 400)

	res, err := tr.Update(state, lanes)
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Left.Status)
	good := res.Left.Line

	// Frame 2: occluded.
	res, err = tr.Update(state, imaging.NewBinaryMask(500, 300))
	require.NoError(t, err)
	for _, sr := range []SideResult{res.Left, res.Right} {
		assert.Equal(t, StatusHeld, sr.Status, sr.Side.String())
		assert.Equal(t, 1, sr.Failures)
		assert.Equal(t, HasPriorFit, sr.Mode)
		assert.True(t, sr.Fallback, "prior search should fall back")
		assert.ErrorIs(t, sr.Err, ErrInsufficientPixels)
		assert.True(t, sr.Line.Valid)
	}
	assert.Equal(t, good.Coefficients, res.Left.Line.Coefficients)
	assert.Less(t, res.Left.Line.Confidence, good.Confidence)

	// Frame 3: lanes are back.
	res, err = tr.Update(state, lanes)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Left.Status)
	assert.Equal(t, SearchPrior, res.Left.Search)
	assert.Equal(t, 0, res.Left.Failures)
	assert.Equal(t, 0, state.Right.Failures)
}

func TestTracker_TrackingLostThenFullSearch(t *testing.T) {
	cfg := config.Default().Lane
	tr := NewTracker(cfg)
	state := NewState(cfg.HistoryLength)
	lanes := twoLaneMask(500, 300, 100, 400)
	empty := imaging.NewBinaryMask(500, 300)

	_, err := tr.Update(state, lanes)
	require.NoError(t, err)

	var res Result
	for i := 0; i < cfg.MaxConsecutiveFailures+1; i++ {
		res, err = tr.Update(state, empty)
		require.NoError(t, err)
	}
	assert.Equal(t, StatusLost, res.Left.Status)
	assert.Equal(t, NoPriorFit, state.Left.Mode)
	assert.False(t, res.Left.Line.Valid)
	assert.Equal(t, 0, state.Left.History.Len())

	res, err = tr.Update(state, lanes)
	require.NoError(t, err)
	assert.Equal(t, SearchSlidingWindow, res.Left.Search)
	assert.False(t, res.Left.Fallback, "lost side should go straight to the full search")
	assert.Equal(t, StatusOK, res.Left.Status)
	assert.Equal(t, HasPriorFit, state.Left.Mode)
}

func TestTracker_RejectsDivergentFit(t *testing.T) {
	tr := NewTracker(config.Default().Lane)
	state := NewState(5)

	_, err := tr.Update(state, twoLaneMask(500, 300, 60, 400))
	require.NoError(t, err)

	res, err := tr.Update(state, twoLaneMask(500, 300, 200, 400))
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, res.Left.Status)
	assert.ErrorIs(t, res.Left.Err, ErrFitDivergence)
	assert.InDelta(t, 60, res.Left.Line.C, 1, "previous line is held")
	assert.Equal(t, StatusOK, res.Right.Status)
}

func TestTracker_LaneWidthRejectsLessConfidentSide(t *testing.T) {
	cfg := config.Default().Lane
	cfg.LaneWidthPx = config.Range{250, 350}
	tr := NewTracker(cfg)

	m := imaging.NewBinaryMask(500, 300)
	drawCurve(m, Coefficients{C: 50}, 3, 0, 300)
	drawCurve(m, Coefficients{C: 450}, 3, 150, 300)

	res, err := tr.Update(NewState(5), m)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Left.Status)
	assert.Equal(t, StatusLost, res.Right.Status)
	assert.ErrorIs(t, res.Right.Err, ErrFitDivergence)
}

func TestTracker_SmoothsHistory(t *testing.T) {
	tr := NewTracker(config.Default().Lane)
	state := NewState(5)

	_, err := tr.Update(state, twoLaneMask(500, 300, 100, 400))
	require.NoError(t, err)
	res, err := tr.Update(state, twoLaneMask(500, 300, 110, 400))
	require.NoError(t, err)

	require.Equal(t, StatusOK, res.Left.Status)
	assert.InDelta(t, (100.0+2*110.0)/3, res.Left.Line.C, 0.5)
	assert.Equal(t, 2, state.Left.History.Len())
}

func TestTracker_HistoryStaysBounded(t *testing.T) {
	cfg := config.Default().Lane
	cfg.HistoryLength = 3
	tr := NewTracker(cfg)
	state := NewState(cfg.HistoryLength)
	lanes := twoLaneMask(500, 300, 100, 400)

	for i := 0; i < 20; i++ {
		_, err := tr.Update(state, lanes)
		require.NoError(t, err)
		require.LessOrEqual(t, state.Left.History.Len(), 3)
	}
	assert.Equal(t, 20, state.Frames)
}

func TestTracker_InvalidInputLeavesStateUntouched(t *testing.T) {
	tr := NewTracker(config.Default().Lane)
	state := NewState(5)

	_, err := tr.Update(state, twoLaneMask(500, 300, 100, 400))
	require.NoError(t, err)
	before := *state.Left

	_, err = tr.Update(state, nil)
	assert.Error(t, err)
	_, err = tr.Update(state, imaging.NewBinaryMask(640, 300))
	assert.Error(t, err)
	_, err = tr.Update(nil, imaging.NewBinaryMask(500, 300))
	assert.Error(t, err)

	assert.Equal(t, 1, state.Frames)
	assert.Equal(t, before.Failures, state.Left.Failures)
	assert.Equal(t, before.Current.Coefficients, state.Left.Current.Coefficients)
}

func TestStateReset(t *testing.T) {
	tr := NewTracker(config.Default().Lane)
	state := NewState(5)
	_, err := tr.Update(state, twoLaneMask(500, 300, 100, 400))
	require.NoError(t, err)

	state.Reset()
	assert.Equal(t, NoPriorFit, state.Left.Mode)
	assert.Equal(t, 0, state.Right.History.Len())
	assert.Equal(t, 5, state.Right.History.Cap())
	assert.Equal(t, 0, state.Frames)

	// A reset state accepts a new frame size.
	_, err = tr.Update(state, twoLaneMask(640, 300, 150, 500))
	assert.NoError(t, err)
}

func TestCurvature_CircleArc(t *testing.T) {
	scale := config.Default().Scale
	const radiusM = 500.0
	const height = 720
	yb := float64(height-1) * scale.MetersPerPixel.Y

	// Circle tangent to the vertical at the bottom row.
	var xs, ys []float64
	for y := 0; y < height; y++ {
		ym := float64(y) * scale.MetersPerPixel.Y
		xm := 2 + radiusM - math.Sqrt(radiusM*radiusM-(ym-yb)*(ym-yb))
		xs = append(xs, xm/scale.MetersPerPixel.X)
		ys = append(ys, float64(y))
	}
	c, err := FitPolynomial(xs, ys)
	require.NoError(t, err)

	r, err := Curvature(c, height-1, scale)
	require.NoError(t, err)
	assert.InEpsilon(t, radiusM, r, 0.03)
}

func TestCurvature_StraightLaneIsCapped(t *testing.T) {
	scale := config.Default().Scale
	r, err := Curvature(Coefficients{C: 300}, 719, scale)
	require.NoError(t, err)
	assert.Equal(t, scale.MaxRadiusM, r)

	_, err = Curvature(Coefficients{C: 300}, 1, scale)
	assert.Error(t, err)
}

func TestOffset(t *testing.T) {
	scale := config.Default().Scale
	tests := []struct {
		name        string
		left, right float64
		want        float64
	}{
		{"centered", 340, 940, 0},
		{"vehicle left of center", 300, 1000, -10 * scale.MetersPerPixel.X},
		{"vehicle right of center", 280, 960, 20 * scale.MetersPerPixel.X},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Offset(Coefficients{C: tt.left}, Coefficients{C: tt.right}, 719, 1280, scale)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "left", Left.String())
	assert.Equal(t, "right", Right.String())
	assert.Equal(t, "has_prior_fit", HasPriorFit.String())
	assert.Equal(t, "held", StatusHeld.String())
	assert.Equal(t, "sliding_window", SearchSlidingWindow.String())

	text, err := StatusLost.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "lost", string(text))
}
