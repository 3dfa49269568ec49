package threshold

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/lanefinder/internal/config"
	"github.com/ironsheep/lanefinder/internal/imaging"
)

// Axis selects the derivative direction of Gradient.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// Gradient thresholds the absolute Sobel derivative along axis.
//
// Parameters:
//   - gray: Grayscale plane of the frame.
//   - axis: AxisX or AxisY.
//   - ksize: Odd Sobel aperture >= 3.
//   - r: Inclusive range on the rescaled 0-255 value.
//
// Returns:
//   - *imaging.BinaryMask: 1 where the rescaled derivative lies in r.
//   - error: Non-nil for an invalid aperture.
func Gradient(gray *imaging.Plane, axis Axis, ksize int, r config.Range) (*imaging.BinaryMask, error) {
	gx, gy, err := imaging.Sobel(gray, ksize)
	if err != nil {
		return nil, err
	}
	g := gx
	if axis == AxisY {
		g = gy
	}
	mask, _ := rescaleThreshold(absPlane(g), r)
	return mask, nil
}

// Magnitude thresholds the rescaled gradient magnitude.
func Magnitude(gray *imaging.Plane, ksize int, r config.Range) (*imaging.BinaryMask, error) {
	gx, gy, err := imaging.Sobel(gray, ksize)
	if err != nil {
		return nil, err
	}
	mask, _ := rescaleThreshold(magnitudePlane(gx, gy), r)
	return mask, nil
}

// Direction thresholds the gradient angle atan2(|gy|, |gx|), which lies in [0, pi/2].
func Direction(gray *imaging.Plane, ksize int, r config.Range) (*imaging.BinaryMask, error) {
	gx, gy, err := imaging.Sobel(gray, ksize)
	if err != nil {
		return nil, err
	}
	return rangeMask(directionPlane(gx, gy), r), nil
}

// Channel thresholds an HLS channel ("lightness" or "saturation") of a color frame.
func Channel(img image.Image, channel string, r config.Range) (*imaging.BinaryMask, error) {
	switch channel {
	case config.ChannelLightness, config.ChannelSaturation:
	default:
		return nil, fmt.Errorf("unsupported threshold channel %q", channel)
	}
	plane, err := imaging.HLSChannel(img, channel)
	if err != nil {
		return nil, err
	}
	return rangeMask(plane, r), nil
}

// Combine returns (gradX AND gradY) OR (mag AND dir), OR-ed with any extra masks.
func Combine(gradX, gradY, mag, dir *imaging.BinaryMask, extra ...*imaging.BinaryMask) (*imaging.BinaryMask, error) {
	xy, err := imaging.And(gradX, gradY)
	if err != nil {
		return nil, fmt.Errorf("combine gradients: %w", err)
	}
	md, err := imaging.And(mag, dir)
	if err != nil {
		return nil, fmt.Errorf("combine magnitude and direction: %w", err)
	}
	out, err := imaging.Or(xy, append([]*imaging.BinaryMask{md}, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("combine masks: %w", err)
	}
	return out, nil
}

func absPlane(p *imaging.Plane) *imaging.Plane {
	out := imaging.NewPlane(p.Width, p.Height)
	for i, v := range p.Pix {
		out.Pix[i] = math.Abs(v)
	}
	return out
}

func magnitudePlane(gx, gy *imaging.Plane) *imaging.Plane {
	out := imaging.NewPlane(gx.Width, gx.Height)
	for i := range out.Pix {
		out.Pix[i] = math.Hypot(gx.Pix[i], gy.Pix[i])
	}
	return out
}

func directionPlane(gx, gy *imaging.Plane) *imaging.Plane {
	out := imaging.NewPlane(gx.Width, gx.Height)
	for i := range out.Pix {
		out.Pix[i] = math.Atan2(math.Abs(gy.Pix[i]), math.Abs(gx.Pix[i]))
	}
	return out
}

// rescaleThreshold scales a non-negative plane to 0-255 by its maximum and
// thresholds it. degenerate is true when the maximum is zero.
func rescaleThreshold(p *imaging.Plane, r config.Range) (mask *imaging.BinaryMask, degenerate bool) {
	mask = imaging.NewBinaryMask(p.Width, p.Height)
	maxVal := p.Max()
	if maxVal <= 0 {
		return mask, true
	}
	for i, v := range p.Pix {
		scaled := math.Trunc(255 * v / maxVal)
		if r.Contains(scaled) {
			mask.Pix[i] = 1
		}
	}
	return mask, false
}

func rangeMask(p *imaging.Plane, r config.Range) *imaging.BinaryMask {
	mask := imaging.NewBinaryMask(p.Width, p.Height)
	for i, v := range p.Pix {
		if r.Contains(v) {
			mask.Pix[i] = 1
		}
	}
	return mask
}
