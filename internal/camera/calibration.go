package camera

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/lanefinder/internal/imaging"
)

// ErrCalibrationUnavailable reports missing or unusable calibration data.
var ErrCalibrationUnavailable = errors.New("calibration unavailable")

// Correspondence is the four-point mapping from a flat road region in the
// camera view (Src) to a rectangle in the bird's-eye view (Dst).
type Correspondence struct {
	Src [4]imaging.Point `json:"src"`
	Dst [4]imaging.Point `json:"dst"`
}

// IsZero reports whether no points were supplied.
func (c Correspondence) IsZero() bool {
	return c == Correspondence{}
}

// Calibration holds the camera intrinsics, the lens distortion and the
// perspective correspondence. Treat it as immutable once validated.
type Calibration struct {
	CameraMatrix [3][3]float64 `json:"camera_matrix"`
	// DistCoeffs are k1, k2, p1, p2 and optionally k3.
	DistCoeffs  []float64      `json:"dist_coeffs"`
	ImageWidth  int            `json:"image_width"`
	ImageHeight int            `json:"image_height"`
	Perspective Correspondence `json:"perspective"`
}

// DefaultCorrespondence returns the conventional trapezoid-to-rectangle
// correspondence for a forward-facing camera whose horizon sits slightly
// above the middle of a width x height frame.
func DefaultCorrespondence(width, height int) Correspondence {
	w, h := float64(width), float64(height)
	return Correspondence{
		Src: [4]imaging.Point{
			{X: w*0.5 - w*0.043, Y: h * 0.639},
			{X: w * 0.159, Y: h},
			{X: w * 0.880, Y: h},
			{X: w*0.5 + w*0.043, Y: h * 0.639},
		},
		Dst: [4]imaging.Point{
			{X: w * 0.25, Y: 0},
			{X: w * 0.25, Y: h},
			{X: w * 0.75, Y: h},
			{X: w * 0.75, Y: 0},
		},
	}
}

// Nominal returns a distortion-free pinhole calibration for the given frame
// size with the default correspondence.
func Nominal(width, height int) *Calibration {
	f := float64(width)
	return &Calibration{
		CameraMatrix: [3][3]float64{
			{f, 0, float64(width) / 2},
			{0, f, float64(height) / 2},
			{0, 0, 1},
		},
		ImageWidth:  width,
		ImageHeight: height,
		Perspective: DefaultCorrespondence(width, height),
	}
}

// Validate checks the calibration and fills in the default correspondence
// when none was supplied.
func (c *Calibration) Validate() error {
	if c.ImageWidth <= 0 || c.ImageHeight <= 0 {
		return fmt.Errorf("%w: image size %dx%d", ErrCalibrationUnavailable, c.ImageWidth, c.ImageHeight)
	}
	k := c.CameraMatrix
	if k[0][0] <= 0 || k[1][1] <= 0 {
		return fmt.Errorf("%w: focal lengths must be positive", ErrCalibrationUnavailable)
	}
	if k[1][0] != 0 || k[2][0] != 0 || k[2][1] != 0 || k[2][2] != 1 {
		return fmt.Errorf("%w: camera matrix is not upper triangular with k22=1", ErrCalibrationUnavailable)
	}
	switch len(c.DistCoeffs) {
	case 0, 4, 5:
	default:
		return fmt.Errorf("%w: expected 0, 4 or 5 distortion coefficients, got %d",
			ErrCalibrationUnavailable, len(c.DistCoeffs))
	}
	if c.Perspective.IsZero() {
		c.Perspective = DefaultCorrespondence(c.ImageWidth, c.ImageHeight)
	}
	return nil
}

// Scaled returns a copy of the calibration for frames of a different size.
// Intrinsics and correspondence points scale with the frame; distortion
// coefficients are resolution independent.
func (c *Calibration) Scaled(width, height int) *Calibration {
	sx := float64(width) / float64(c.ImageWidth)
	sy := float64(height) / float64(c.ImageHeight)

	out := *c
	out.DistCoeffs = append([]float64(nil), c.DistCoeffs...)
	out.ImageWidth, out.ImageHeight = width, height
	out.CameraMatrix[0][0] *= sx
	out.CameraMatrix[0][1] *= sx
	out.CameraMatrix[0][2] *= sx
	out.CameraMatrix[1][1] *= sy
	out.CameraMatrix[1][2] *= sy
	for i := range out.Perspective.Src {
		out.Perspective.Src[i] = imaging.Point{X: c.Perspective.Src[i].X * sx, Y: c.Perspective.Src[i].Y * sy}
		out.Perspective.Dst[i] = imaging.Point{X: c.Perspective.Dst[i].X * sx, Y: c.Perspective.Dst[i].Y * sy}
	}
	return &out
}

// Transform builds the perspective transform of the calibration.
func (c *Calibration) Transform() (*PerspectiveTransform, error) {
	return NewPerspectiveTransform(c.Perspective.Src, c.Perspective.Dst)
}

// LoadCalibrationFile reads and validates a calibration JSON file.
func LoadCalibrationFile(filename string) (*Calibration, error) {
	data, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCalibrationUnavailable, err)
	}

	var calib Calibration
	if err := json.Unmarshal(data, &calib); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrCalibrationUnavailable, filename, err)
	}
	if err := calib.Validate(); err != nil {
		return nil, err
	}
	if _, err := calib.Transform(); err != nil {
		return nil, err
	}
	return &calib, nil
}

// SaveCalibrationFile writes the calibration as indented JSON.
func SaveCalibrationFile(filename string, calib *Calibration) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create calibration directory: %w", err)
	}

	data, err := json.MarshalIndent(calib, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal calibration: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write calibration file: %w", err)
	}
	return nil
}
