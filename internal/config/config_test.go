package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefaultMatchesTunedSourceValues(t *testing.T) {
	c := Default()
	assert.Equal(t, 3, c.Threshold.KernelSize)
	assert.Equal(t, 15, c.Threshold.DirectionKernel())
	assert.Equal(t, Range{20, 100}, c.Threshold.GradientX)
	assert.Equal(t, Range{30, 100}, c.Threshold.Magnitude)
	assert.Equal(t, Range{0.7, 1.3}, c.Threshold.Direction)
}

func TestDirectionKernelFallsBackToKernelSize(t *testing.T) {
	tc := ThresholdConfig{KernelSize: 5}
	assert.Equal(t, 5, tc.DirectionKernel())
}

func TestRangeContains(t *testing.T) {
	r := Range{20, 100}
	assert.True(t, r.Contains(20))
	assert.True(t, r.Contains(100))
	assert.False(t, r.Contains(19.9))
	assert.False(t, r.Contains(101))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"even kernel", func(c *Config) { c.Threshold.KernelSize = 4 }},
		{"kernel too small", func(c *Config) { c.Threshold.KernelSize = 1 }},
		{"inverted range", func(c *Config) { c.Threshold.GradientX = Range{100, 20} }},
		{"range above 255", func(c *Config) { c.Threshold.Magnitude = Range{0, 300} }},
		{"direction beyond pi/2", func(c *Config) { c.Threshold.Direction = Range{0, 2} }},
		{"unknown channel", func(c *Config) { c.Threshold.Color.Channel = "hue" }},
		{"zero bands", func(c *Config) { c.Lane.SlidingWindow.BandCount = 0 }},
		{"zero history", func(c *Config) { c.Lane.HistoryLength = 0 }},
		{"zero failures", func(c *Config) { c.Lane.MaxConsecutiveFailures = 0 }},
		{"unknown smoothing", func(c *Config) { c.Lane.Smoothing = "median" }},
		{"zero scale", func(c *Config) { c.Scale.MetersPerPixel.X = 0 }},
		{"half frame size", func(c *Config) { c.Frame.Width = 640 }},
		{"opacity above one", func(c *Config) { c.Overlay.Opacity = 1.5 }},
		{"named lane color", func(c *Config) { c.Overlay.LaneColor = "green" }},
		{"empty lane color", func(c *Config) { c.Overlay.LaneColor = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadFromFilePartialOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lane.json")
	partial := `{"lane": {"history_length": 8}, "threshold": {"kernel_size": 5}}`
	require.NoError(t, os.WriteFile(path, []byte(partial), 0644))

	got, err := LoadFromFile(path)
	require.NoError(t, err)

	want := Default()
	want.Lane.HistoryLength = 8
	want.Threshold.KernelSize = 5
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadFromFile mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lane.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"threshold": {"kernel_size": 2}}`), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFileRejectsExtension(t *testing.T) {
	_, err := LoadFromFile("config.yaml")
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "lane.json")

	c := Default()
	c.Threshold.Color.Enabled = true
	c.Lane.Smoothing = SmoothingMean
	require.NoError(t, c.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	if diff := cmp.Diff(c, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
