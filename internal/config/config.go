// Package config holds the tunable parameters of the lane finding pipeline.
//
// A configuration is a single JSON document. Fields omitted from a file keep
// their Default() values, so partial files are safe.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/ironsheep/lanefinder/internal/imaging"
)

// Range is an inclusive [low, high] interval.
type Range [2]float64

// Low returns the lower bound.
func (r Range) Low() float64 { return r[0] }

// High returns the upper bound.
func (r Range) High() float64 { return r[1] }

// Contains reports whether low <= v <= high.
func (r Range) Contains(v float64) bool {
	return v >= r[0] && v <= r[1]
}

// Channel names accepted by ColorConfig.
const (
	ChannelSaturation = "saturation"
	ChannelLightness  = "lightness"
)

// Smoothing modes accepted by LaneConfig.
const (
	SmoothingWeighted = "weighted"
	SmoothingMean     = "mean"
)

// Config holds the pipeline configuration
type Config struct {
	Stages    StageConfig     `json:"stages"`
	Threshold ThresholdConfig `json:"threshold"`
	Lane      LaneConfig      `json:"lane"`
	Scale     ScaleConfig     `json:"scale"`
	Frame     FrameConfig     `json:"frame"`
	Overlay   OverlayConfig   `json:"overlay"`
}

// StageConfig switches individual pipeline stages on or off.
type StageConfig struct {
	Undistort bool `json:"undistort"`
	Threshold bool `json:"threshold"`
	Warp      bool `json:"warp"`
	Track     bool `json:"track"`
	Render    bool `json:"render"`
}

// ThresholdConfig holds the gradient and color threshold parameters.
type ThresholdConfig struct {
	// KernelSize is the odd Sobel aperture used by the x/y and magnitude thresholds.
	KernelSize int `json:"kernel_size"`
	// DirectionKernelSize is the Sobel aperture of the direction threshold.
	// Zero means KernelSize.
	DirectionKernelSize int         `json:"direction_kernel_size"`
	GradientX           Range       `json:"gradient_x"`
	GradientY           Range       `json:"gradient_y"`
	Magnitude           Range       `json:"magnitude"`
	Direction           Range       `json:"direction"` // radians
	Color               ColorConfig `json:"color"`
	// BlurRadius applies a Gaussian pre-smoothing to the grayscale frame. 0 disables it.
	BlurRadius float64 `json:"blur_radius"`
}

// ColorConfig describes the optional HLS channel threshold.
type ColorConfig struct {
	Enabled bool   `json:"enabled"`
	Channel string `json:"channel"`
	Range   Range  `json:"range"` // 0-255
}

// DirectionKernel returns the aperture to use for the direction threshold.
func (t ThresholdConfig) DirectionKernel() int {
	if t.DirectionKernelSize == 0 {
		return t.KernelSize
	}
	return t.DirectionKernelSize
}

// SlidingWindowConfig controls the full sliding-window search.
type SlidingWindowConfig struct {
	BandCount           int `json:"band_count"`
	MarginPx            int `json:"margin_px"`
	MinPixelsToRecenter int `json:"min_pixels_to_recenter"`
}

// PriorSearchConfig controls the search around the previous fit.
type PriorSearchConfig struct {
	MarginPx          int `json:"margin_px"`
	MinPixelsToAccept int `json:"min_pixels_to_accept"`
}

// LaneConfig holds the tracker parameters.
type LaneConfig struct {
	SlidingWindow          SlidingWindowConfig `json:"sliding_window"`
	PriorSearch            PriorSearchConfig   `json:"prior_search"`
	HistoryLength          int                 `json:"history_length"`
	MaxConsecutiveFailures int                 `json:"max_consecutive_failures"`
	// MinFitPixels is the absolute pixel support below which a fit is rejected.
	MinFitPixels int `json:"min_fit_pixels"`
	// MinConfidence gates the prior-informed search.
	MinConfidence float64 `json:"min_confidence"`
	// MaxCurvatureDelta bounds |A - A_prev|. 0 disables the check.
	MaxCurvatureDelta float64 `json:"max_curvature_delta"`
	// MaxBaseShiftPx bounds the change of x at the bottom row. 0 disables the check.
	MaxBaseShiftPx float64 `json:"max_base_shift_px"`
	// LaneWidthPx is the plausible [min,max] bottom-row lane width. [0,0] disables it.
	LaneWidthPx Range  `json:"lane_width_px"`
	Smoothing   string `json:"smoothing"`
}

// ScaleConfig converts pixel distances in the bird's-eye view to meters.
type ScaleConfig struct {
	MetersPerPixel struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"meters_per_pixel"`
	// MaxRadiusM caps the reported curvature radius of a straight lane.
	MaxRadiusM float64 `json:"max_radius_m"`
}

// FrameConfig optionally fixes the frame size of a run.
type FrameConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// OverlayConfig controls the annotated output frame.
type OverlayConfig struct {
	LaneColor string  `json:"lane_color"`
	Opacity   float64 `json:"opacity"`
	ShowText  bool    `json:"show_text"`
}

// Default returns a configuration with default values
func Default() *Config {
	c := &Config{
		Stages: StageConfig{
			Undistort: true,
			Threshold: true,
			Warp:      true,
			Track:     true,
			Render:    true,
		},
		Threshold: ThresholdConfig{
			KernelSize:          3,
			DirectionKernelSize: 15,
			GradientX:           Range{20, 100},
			GradientY:           Range{20, 100},
			Magnitude:           Range{30, 100},
			Direction:           Range{0.7, 1.3},
			Color: ColorConfig{
				Enabled: false,
				Channel: ChannelSaturation,
				Range:   Range{170, 255},
			},
		},
		Lane: LaneConfig{
			SlidingWindow: SlidingWindowConfig{
				BandCount:           9,
				MarginPx:            100,
				MinPixelsToRecenter: 50,
			},
			PriorSearch: PriorSearchConfig{
				MarginPx:          100,
				MinPixelsToAccept: 200,
			},
			HistoryLength:          5,
			MaxConsecutiveFailures: 5,
			MinFitPixels:           100,
			MinConfidence:          0.5,
			MaxCurvatureDelta:      0.001,
			MaxBaseShiftPx:         100,
			Smoothing:              SmoothingWeighted,
		},
		Overlay: OverlayConfig{
			LaneColor: "#00FF00",
			Opacity:   0.3,
			ShowText:  true,
		},
	}
	c.Scale.MetersPerPixel.X = 3.7 / 700
	c.Scale.MetersPerPixel.Y = 30.0 / 720
	c.Scale.MaxRadiusM = 10000
	return c
}

// LoadFromFile loads configuration from a JSON file on top of Default().
func LoadFromFile(filename string) (*Config, error) {
	cleanPath := filepath.Clean(filename)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cleanPath, err)
	}
	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	t := c.Threshold
	if err := validateKernel("threshold.kernel_size", t.KernelSize); err != nil {
		return err
	}
	if err := validateKernel("threshold.direction_kernel_size", t.DirectionKernel()); err != nil {
		return err
	}
	for name, r := range map[string]Range{
		"threshold.gradient_x":  t.GradientX,
		"threshold.gradient_y":  t.GradientY,
		"threshold.magnitude":   t.Magnitude,
		"threshold.color.range": t.Color.Range,
	} {
		if r.Low() > r.High() || r.Low() < 0 || r.High() > 255 {
			return fmt.Errorf("%s must satisfy 0 <= low <= high <= 255, got %v", name, r)
		}
	}
	if t.Direction.Low() > t.Direction.High() || t.Direction.Low() < 0 || t.Direction.High() > math.Pi/2 {
		return fmt.Errorf("threshold.direction must lie within [0, pi/2], got %v", t.Direction)
	}
	switch t.Color.Channel {
	case ChannelSaturation, ChannelLightness:
	default:
		return fmt.Errorf("threshold.color.channel must be %q or %q, got %q",
			ChannelSaturation, ChannelLightness, t.Color.Channel)
	}
	if t.BlurRadius < 0 {
		return fmt.Errorf("threshold.blur_radius must not be negative")
	}

	l := c.Lane
	if l.SlidingWindow.BandCount < 1 {
		return fmt.Errorf("lane.sliding_window.band_count must be >= 1")
	}
	if l.SlidingWindow.MarginPx < 1 || l.PriorSearch.MarginPx < 1 {
		return fmt.Errorf("lane search margins must be positive")
	}
	if l.SlidingWindow.MinPixelsToRecenter < 0 || l.PriorSearch.MinPixelsToAccept < 0 {
		return fmt.Errorf("lane pixel thresholds must not be negative")
	}
	if l.HistoryLength < 1 {
		return fmt.Errorf("lane.history_length must be >= 1")
	}
	if l.MaxConsecutiveFailures < 1 {
		return fmt.Errorf("lane.max_consecutive_failures must be >= 1")
	}
	if l.MinFitPixels < 3 {
		return fmt.Errorf("lane.min_fit_pixels must be >= 3")
	}
	if l.MinConfidence < 0 || l.MinConfidence > 1 {
		return fmt.Errorf("lane.min_confidence must be between 0 and 1")
	}
	if l.MaxCurvatureDelta < 0 || l.MaxBaseShiftPx < 0 {
		return fmt.Errorf("lane divergence bounds must not be negative")
	}
	if l.LaneWidthPx.Low() > l.LaneWidthPx.High() || l.LaneWidthPx.Low() < 0 {
		return fmt.Errorf("lane.lane_width_px must satisfy 0 <= min <= max")
	}
	switch l.Smoothing {
	case SmoothingWeighted, SmoothingMean:
	default:
		return fmt.Errorf("lane.smoothing must be %q or %q, got %q", SmoothingWeighted, SmoothingMean, l.Smoothing)
	}

	if c.Scale.MetersPerPixel.X <= 0 || c.Scale.MetersPerPixel.Y <= 0 {
		return fmt.Errorf("scale.meters_per_pixel must be positive")
	}
	if c.Scale.MaxRadiusM <= 0 {
		return fmt.Errorf("scale.max_radius_m must be positive")
	}

	if c.Frame.Width < 0 || c.Frame.Height < 0 || (c.Frame.Width == 0) != (c.Frame.Height == 0) {
		return fmt.Errorf("frame.width and frame.height must both be set or both be zero")
	}

	if c.Overlay.Opacity < 0 || c.Overlay.Opacity > 1 {
		return fmt.Errorf("overlay.opacity must be between 0 and 1")
	}
	if _, err := imaging.ParseHexColor(c.Overlay.LaneColor); err != nil {
		return fmt.Errorf("overlay.lane_color: %w", err)
	}

	return nil
}

func validateKernel(name string, k int) error {
	if k < 3 || k > 31 || k%2 == 0 {
		return fmt.Errorf("%s must be an odd integer between 3 and 31, got %d", name, k)
	}
	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./lanefinder.json"
	}
	return filepath.Join(home, ".config", "lanefinder", "config.json")
}
