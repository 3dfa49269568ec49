package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.RGBA
		wantErr bool
	}{
		{"#FF0000", color.RGBA{255, 0, 0, 255}, false},
		{"00FF00", color.RGBA{0, 255, 0, 255}, false},
		{"#0000FF80", color.RGBA{0, 0, 255, 128}, false},
		{"", color.RGBA{}, true},
		{"#FFF", color.RGBA{}, true},
		{"#GGGGGG", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHexColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFillPolygon_Rectangle(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	poly := []Point{{X: 5, Y: 5}, {X: 15, Y: 5}, {X: 15, Y: 10}, {X: 5, Y: 10}}
	FillPolygon(img, poly, color.RGBA{255, 0, 0, 255})

	filled := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if img.RGBAAt(x, y).R > 127 {
				filled++
			}
		}
	}
	if filled != 50 {
		t.Errorf("filled pixels: got %d, want 50", filled)
	}
	if img.RGBAAt(4, 7).R != 0 || img.RGBAAt(10, 7).R < 250 {
		t.Error("unexpected fill boundary")
	}
}

func TestFillPolygon_OffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 30, 30))
	poly := []Point{{X: 12, Y: 12}, {X: 20, Y: 12}, {X: 20, Y: 20}, {X: 12, Y: 20}}
	FillPolygon(img, poly, color.RGBA{0, 0, 255, 255})

	if img.RGBAAt(15, 15).B < 250 {
		t.Errorf("interior pixel: got %v", img.RGBAAt(15, 15))
	}
	if img.RGBAAt(11, 15).B != 0 || img.RGBAAt(25, 25).B != 0 {
		t.Error("fill leaked outside the polygon")
	}
}

func TestFillPolygon_AntialiasedEdge(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	poly := []Point{{X: 2, Y: 2}, {X: 5.5, Y: 2}, {X: 5.5, Y: 8}, {X: 2, Y: 8}}
	FillPolygon(img, poly, color.RGBA{255, 255, 255, 255})

	edge := img.RGBAAt(5, 4).R
	if edge < 100 || edge > 155 {
		t.Errorf("half-covered pixel: got %d, want about 128", edge)
	}
}

func TestFillPolygon_Degenerate(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 5))
	FillPolygon(img, []Point{{X: 0, Y: 0}, {X: 4, Y: 4}}, color.White)
	for _, v := range img.Pix {
		if v != 0 {
			t.Fatal("two-point polygon should draw nothing")
		}
	}
}

func TestDrawPolyline(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	// The centerline runs through the middle of row 2.
	DrawPolyline(img, []Point{{X: 0.5, Y: 2.5}, {X: 9.5, Y: 2.5}}, 1, color.White)
	for x := 0; x < 10; x++ {
		if img.RGBAAt(x, 2).R < 250 {
			t.Errorf("pixel (%d,2) not drawn: %d", x, img.RGBAAt(x, 2).R)
		}
	}
	if img.RGBAAt(3, 3).R != 0 || img.RGBAAt(3, 1).R != 0 {
		t.Error("thickness 1 line bled into neighbouring row")
	}
}

func TestDrawPolyline_Joint(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	pts := []Point{{X: 2.5, Y: 2.5}, {X: 12.5, Y: 2.5}, {X: 12.5, Y: 12.5}}
	DrawPolyline(img, pts, 3, color.White)

	for _, p := range []image.Point{{7, 2}, {12, 2}, {12, 7}, {13, 3}, {11, 1}} {
		if img.RGBAAt(p.X, p.Y).R < 250 {
			t.Errorf("pixel %v not covered: %d", p, img.RGBAAt(p.X, p.Y).R)
		}
	}
	if img.RGBAAt(5, 10).R != 0 {
		t.Error("stroke leaked away from the path")
	}
}

func TestDrawPolyline_SinglePoint(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 6, 6))
	DrawPolyline(img, []Point{{X: 3, Y: 3}}, 2, color.White)
	if img.RGBAAt(2, 2).R < 250 || img.RGBAAt(3, 3).R < 250 {
		t.Error("single point should draw a square")
	}
	if img.RGBAAt(0, 0).R != 0 {
		t.Error("square drawn too large")
	}
}

func TestDrawLabel(t *testing.T) {
	img := createInMemoryImage(120, 30, color.Black)
	DrawLabel(img, 5, 5, "R=512m", color.White, color.RGBA{0, 0, 0, 255})

	white := 0
	for _, v := range img.Pix {
		if v == 255 {
			white++
		}
	}
	// Alpha channel alone accounts for 120*30 values.
	if white <= 120*30 {
		t.Error("DrawLabel drew no glyph pixels")
	}
}
