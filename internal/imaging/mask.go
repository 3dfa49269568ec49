package imaging

import (
	"image"
	"image/color"
)

// BinaryMask is a row-major grid of lane-candidate flags. Every value is 0 or 1.
type BinaryMask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewBinaryMask allocates an all-zero mask.
func NewBinaryMask(width, height int) *BinaryMask {
	return &BinaryMask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// At returns the mask value at (x, y), or 0 outside the mask.
func (m *BinaryMask) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// Set stores 1 at (x, y) when on is true and 0 otherwise. Out of range writes are ignored.
func (m *BinaryMask) Set(x, y int, on bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	var v uint8
	if on {
		v = 1
	}
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of set pixels.
func (m *BinaryMask) Count() int {
	n := 0
	for _, v := range m.Pix {
		n += int(v)
	}
	return n
}

// Clone returns an independent copy of the mask.
func (m *BinaryMask) Clone() *BinaryMask {
	out := &BinaryMask{Width: m.Width, Height: m.Height, Pix: make([]uint8, len(m.Pix))}
	copy(out.Pix, m.Pix)
	return out
}

// Nonzero returns the coordinates of every set pixel in row-major order.
func (m *BinaryMask) Nonzero() (xs, ys []int) {
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			if v != 0 {
				xs = append(xs, x)
				ys = append(ys, y)
			}
		}
	}
	return xs, ys
}

// And returns the pixelwise conjunction of two masks of equal size.
func And(a, b *BinaryMask) (*BinaryMask, error) {
	if err := checkSameSize(a.Width, a.Height, b.Width, b.Height); err != nil {
		return nil, err
	}
	out := NewBinaryMask(a.Width, a.Height)
	for i := range out.Pix {
		out.Pix[i] = a.Pix[i] & b.Pix[i]
	}
	return out, nil
}

// Or returns the pixelwise disjunction of one or more masks of equal size.
func Or(first *BinaryMask, rest ...*BinaryMask) (*BinaryMask, error) {
	out := first.Clone()
	for _, m := range rest {
		if err := checkSameSize(out.Width, out.Height, m.Width, m.Height); err != nil {
			return nil, err
		}
		for i := range out.Pix {
			out.Pix[i] |= m.Pix[i]
		}
	}
	return out, nil
}

// ToImage renders the mask as a grayscale image with set pixels at 255.
func (m *BinaryMask) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		img.Pix[i] = v * 255
	}
	return img
}

// MaskFromImage builds a mask from an image, setting every pixel whose
// luminance is at or above half intensity.
func MaskFromImage(img image.Image) *BinaryMask {
	bounds := img.Bounds()
	m := NewBinaryMask(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if g.Y >= 128 {
				m.Pix[(y-bounds.Min.Y)*m.Width+(x-bounds.Min.X)] = 1
			}
		}
	}
	return m
}
