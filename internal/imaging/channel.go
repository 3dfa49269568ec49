package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/lucasb-eyer/go-colorful"
)

// HLS channel names.
const (
	ChannelHue        = "hue"
	ChannelLightness  = "lightness"
	ChannelSaturation = "saturation"
)

// HLSChannel extracts one channel of the HLS color space as a plane.
//
// Parameters:
//   - img: The source frame.
//   - channel: One of "hue", "lightness" or "saturation".
//
// Returns:
//   - *Plane: Lightness and saturation are scaled to 0-255; hue is in degrees [0, 360).
//   - error: Non-nil for an unknown channel name.
//
// Fully transparent pixels are treated as black.
func HLSChannel(img image.Image, channel string) (*Plane, error) {
	var pick func(h, s, l float64) float64
	switch channel {
	case ChannelHue:
		pick = func(h, _, _ float64) float64 { return h }
	case ChannelLightness:
		pick = func(_, _, l float64) float64 { return l * 255 }
	case ChannelSaturation:
		pick = func(_, s, _ float64) float64 { return s * 255 }
	default:
		return nil, fmt.Errorf("unknown HLS channel %q", channel)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	plane := NewPlane(w, h)
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				c, ok := colorful.MakeColor(img.At(bounds.Min.X+x, bounds.Min.Y+y))
				if !ok {
					continue
				}
				hue, sat, light := c.Hsl()
				plane.Pix[y*w+x] = pick(hue, sat, light)
			}
		}
	})
	return plane, nil
}
