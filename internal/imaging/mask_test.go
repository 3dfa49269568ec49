package imaging

import (
	"image"
	"image/color"
	"testing"
)

// fillRect sets every pixel of r, clipped to the mask.
func fillRect(m *BinaryMask, r image.Rectangle) {
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y, true)
		}
	}
}

func TestBinaryMask_SetNormalises(t *testing.T) {
	m := NewBinaryMask(4, 3)
	m.Set(1, 1, true)
	m.Set(2, 2, true)
	m.Set(2, 2, false)
	m.Set(-1, 0, true)
	m.Set(4, 0, true)

	if m.At(1, 1) != 1 {
		t.Errorf("At(1,1): got %d, want 1", m.At(1, 1))
	}
	if m.At(2, 2) != 0 {
		t.Errorf("At(2,2): got %d, want 0", m.At(2, 2))
	}
	if m.At(-5, 7) != 0 {
		t.Error("At outside the mask should be 0")
	}
	if m.Count() != 1 {
		t.Errorf("Count: got %d, want 1", m.Count())
	}
}

func TestBinaryMask_Nonzero(t *testing.T) {
	m := NewBinaryMask(10, 10)
	fillRect(m, image.Rect(8, 8, 20, 20))

	if m.Count() != 4 {
		t.Fatalf("Count: got %d, want 4", m.Count())
	}
	xs, ys := m.Nonzero()
	wantX := []int{8, 9, 8, 9}
	wantY := []int{8, 8, 9, 9}
	for i := range wantX {
		if xs[i] != wantX[i] || ys[i] != wantY[i] {
			t.Errorf("pixel %d: got (%d,%d), want (%d,%d)", i, xs[i], ys[i], wantX[i], wantY[i])
		}
	}
}

func TestAndOr(t *testing.T) {
	a := NewBinaryMask(3, 1)
	b := NewBinaryMask(3, 1)
	a.Set(0, 0, true)
	a.Set(1, 0, true)
	b.Set(1, 0, true)
	b.Set(2, 0, true)

	and, err := And(a, b)
	if err != nil {
		t.Fatalf("And failed: %v", err)
	}
	or, err := Or(a, b)
	if err != nil {
		t.Fatalf("Or failed: %v", err)
	}

	tests := []struct {
		x       int
		and, or uint8
	}{
		{0, 0, 1},
		{1, 1, 1},
		{2, 0, 1},
	}
	for _, tt := range tests {
		if and.At(tt.x, 0) != tt.and {
			t.Errorf("And at %d: got %d, want %d", tt.x, and.At(tt.x, 0), tt.and)
		}
		if or.At(tt.x, 0) != tt.or {
			t.Errorf("Or at %d: got %d, want %d", tt.x, or.At(tt.x, 0), tt.or)
		}
	}

	if a.Count() != 2 {
		t.Error("Or must not modify its first argument")
	}
}

func TestAndOr_SizeMismatch(t *testing.T) {
	a := NewBinaryMask(3, 3)
	b := NewBinaryMask(4, 3)
	if _, err := And(a, b); err == nil {
		t.Error("And should fail for masks of different size")
	}
	if _, err := Or(a, b); err == nil {
		t.Error("Or should fail for masks of different size")
	}
}

func TestMaskImageRoundTrip(t *testing.T) {
	m := NewBinaryMask(6, 4)
	fillRect(m, image.Rect(1, 1, 4, 3))

	img := m.ToImage()
	if img.GrayAt(1, 1).Y != 255 || img.GrayAt(0, 0).Y != 0 {
		t.Errorf("ToImage: unexpected values %d, %d", img.GrayAt(1, 1).Y, img.GrayAt(0, 0).Y)
	}

	back := MaskFromImage(img)
	for i := range m.Pix {
		if m.Pix[i] != back.Pix[i] {
			t.Fatalf("round trip differs at pixel %d", i)
		}
	}
}

func TestMaskFromImage_Threshold(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{200, 200, 200, 255})
	img.Set(1, 0, color.RGBA{60, 60, 60, 255})

	m := MaskFromImage(img)
	if m.At(0, 0) != 1 || m.At(1, 0) != 0 {
		t.Errorf("got %v, want [1 0]", m.Pix)
	}
}
