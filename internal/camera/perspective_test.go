package camera

import (
	"testing"

	"github.com/ironsheep/lanefinder/internal/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerspectiveTransform_MapsCorrespondence(t *testing.T) {
	corr := DefaultCorrespondence(1280, 720)
	tr, err := NewPerspectiveTransform(corr.Src, corr.Dst)
	require.NoError(t, err)

	got := tr.ToBirdsEye(corr.Src[:])
	require.Len(t, got, 4)
	for i := range got {
		assert.InDelta(t, corr.Dst[i].X, got[i].X, 1e-6, "point %d x", i)
		assert.InDelta(t, corr.Dst[i].Y, got[i].Y, 1e-6, "point %d y", i)
	}

	back := tr.ToCamera(corr.Dst[:])
	for i := range back {
		assert.InDelta(t, corr.Src[i].X, back[i].X, 1e-6, "point %d x", i)
		assert.InDelta(t, corr.Src[i].Y, back[i].Y, 1e-6, "point %d y", i)
	}
}

func TestPerspectiveTransform_MatricesAreInverses(t *testing.T) {
	corr := DefaultCorrespondence(640, 360)
	tr, err := NewPerspectiveTransform(corr.Src, corr.Dst)
	require.NoError(t, err)

	f, inv := tr.Matrix(ToBirdsEye), tr.Matrix(ToCamera)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += f[r][k] * inv[k][c]
			}
			// Both matrices are normalised with h22 = 1, so the product is a scaled identity.
			if r != c {
				assert.InDelta(t, 0, sum, 1e-9, "element (%d,%d)", r, c)
			}
		}
	}
	assert.Equal(t, 1.0, f[2][2])
	assert.Equal(t, 1.0, inv[2][2])
}

func TestPerspectiveTransform_Identity(t *testing.T) {
	square := [4]imaging.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	tr, err := NewPerspectiveTransform(square, square)
	require.NoError(t, err)

	p := tr.ToBirdsEye([]imaging.Point{{X: 37, Y: 81}})
	require.Len(t, p, 1)
	assert.InDelta(t, 37, p[0].X, 1e-9)
	assert.InDelta(t, 81, p[0].Y, 1e-9)
}

func TestPerspectiveTransform_Degenerate(t *testing.T) {
	line := [4]imaging.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	square := [4]imaging.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	_, err := NewPerspectiveTransform(line, square)
	assert.ErrorIs(t, err, ErrCalibrationUnavailable)

	_, err = NewPerspectiveTransform([4]imaging.Point{}, [4]imaging.Point{})
	assert.ErrorIs(t, err, ErrCalibrationUnavailable)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "to_birds_eye", ToBirdsEye.String())
	assert.Equal(t, "to_camera", ToCamera.String())
}
