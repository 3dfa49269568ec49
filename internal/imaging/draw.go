package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA" (the leading # is optional).
func ParseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color: %w", err)
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color: %w", err)
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// FillPolygon paints the interior of a closed polygon. Pixel (x, y) covers the
// square [x, x+1) x [y, y+1), and edge pixels receive partial coverage.
// Polygons with fewer than three vertices draw nothing.
func FillPolygon(dst draw.Image, poly []Point, c color.Color) {
	if len(poly) < 3 {
		return
	}
	bounds := dst.Bounds()
	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	origin := Point{X: float64(bounds.Min.X), Y: float64(bounds.Min.Y)}
	tracePath(z, poly, origin)
	z.Draw(dst, bounds, image.NewUniform(c), image.Point{})
}

// DrawPolyline strokes straight segments between consecutive points. Each
// segment is a rectangle thickness wide with square caps, so joints between
// segments are covered.
func DrawPolyline(dst draw.Image, pts []Point, thickness int, c color.Color) {
	if len(pts) == 0 {
		return
	}
	if thickness < 1 {
		thickness = 1
	}
	bounds := dst.Bounds()
	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	origin := Point{X: float64(bounds.Min.X), Y: float64(bounds.Min.Y)}
	half := float64(thickness) / 2

	if len(pts) == 1 {
		tracePath(z, segmentQuad(pts[0], pts[0], half), origin)
	}
	for i := 0; i+1 < len(pts); i++ {
		tracePath(z, segmentQuad(pts[i], pts[i+1], half), origin)
	}
	z.Draw(dst, bounds, image.NewUniform(c), image.Point{})
}

// tracePath adds poly, translated by -origin, to z as one closed path.
func tracePath(z *vector.Rasterizer, poly []Point, origin Point) {
	z.MoveTo(float32(poly[0].X-origin.X), float32(poly[0].Y-origin.Y))
	for _, p := range poly[1:] {
		z.LineTo(float32(p.X-origin.X), float32(p.Y-origin.Y))
	}
	z.ClosePath()
}

// segmentQuad returns the corners of the rectangle covering a to b, widened
// by half on every side. A zero-length segment becomes a square.
func segmentQuad(a, b Point, half float64) []Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	ux, uy := 1.0, 0.0
	if length > 0 {
		ux, uy = dx/length, dy/length
	}
	// Along the segment and across it.
	ax, ay := ux*half, uy*half
	nx, ny := -uy*half, ux*half
	return []Point{
		{X: a.X - ax + nx, Y: a.Y - ay + ny},
		{X: b.X + ax + nx, Y: b.Y + ay + ny},
		{X: b.X + ax - nx, Y: b.Y + ay - ny},
		{X: a.X - ax - nx, Y: a.Y - ay - ny},
	}
}

// DrawLabel writes text with its top-left corner at (x, y) on a filled background box.
func DrawLabel(dst draw.Image, x, y int, text string, fg, bg color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()

	box := image.Rect(x-2, y-2, x+width+2, y+height+2)
	draw.Draw(dst, box, image.NewUniform(bg), image.Point{}, draw.Over)

	d.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y) + metrics.Ascent}
	d.DrawString(text)
}
