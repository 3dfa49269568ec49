package camera

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominalIsValid(t *testing.T) {
	calib := Nominal(1280, 720)
	require.NoError(t, calib.Validate())

	tr, err := calib.Transform()
	require.NoError(t, err)
	assert.NotNil(t, tr)
}

func TestCalibrationValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Calibration)
	}{
		{"zero size", func(c *Calibration) { c.ImageWidth = 0 }},
		{"zero focal", func(c *Calibration) { c.CameraMatrix[0][0] = 0 }},
		{"bad bottom row", func(c *Calibration) { c.CameraMatrix[2][2] = 2 }},
		{"three coefficients", func(c *Calibration) { c.DistCoeffs = []float64{0.1, 0.2, 0.3} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calib := Nominal(640, 360)
			tt.mutate(calib)
			err := calib.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCalibrationUnavailable))
		})
	}
}

func TestCalibrationValidate_FillsDefaultCorrespondence(t *testing.T) {
	calib := Nominal(640, 360)
	calib.Perspective = Correspondence{}
	require.NoError(t, calib.Validate())
	assert.Equal(t, DefaultCorrespondence(640, 360), calib.Perspective)
}

func TestCalibrationFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calib", "camera.json")
	calib := Nominal(1280, 720)
	calib.DistCoeffs = []float64{-0.24, -0.05, -0.001, 0.0002, 0.02}

	require.NoError(t, SaveCalibrationFile(path, calib))
	loaded, err := LoadCalibrationFile(path)
	require.NoError(t, err)

	if diff := cmp.Diff(calib, loaded, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("calibration mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCalibrationFile_Errors(t *testing.T) {
	dir := t.TempDir()
	malformed := filepath.Join(dir, "malformed.json")
	require.NoError(t, os.WriteFile(malformed, []byte("{not json"), 0644))

	degenerate := filepath.Join(dir, "degenerate.json")
	calib := Nominal(100, 100)
	for i := range calib.Perspective.Src {
		calib.Perspective.Src[i].X = 10
		calib.Perspective.Src[i].Y = 10
	}
	require.NoError(t, SaveCalibrationFile(degenerate, calib))

	for _, path := range []string{filepath.Join(dir, "missing.json"), malformed, degenerate} {
		_, err := LoadCalibrationFile(path)
		require.Error(t, err, path)
		assert.ErrorIs(t, err, ErrCalibrationUnavailable, path)
	}
}

func TestCalibrationScaled(t *testing.T) {
	calib := Nominal(1280, 720)
	half := calib.Scaled(640, 360)

	assert.Equal(t, 640, half.ImageWidth)
	assert.InDelta(t, 640.0, half.CameraMatrix[0][0], 1e-9)
	assert.InDelta(t, 320.0, half.CameraMatrix[0][2], 1e-9)
	assert.InDelta(t, 180.0, half.CameraMatrix[1][2], 1e-9)
	assert.InDelta(t, calib.Perspective.Src[1].X/2, half.Perspective.Src[1].X, 1e-9)
	assert.Equal(t, 1280, calib.ImageWidth, "Scaled must not modify the receiver")
}
