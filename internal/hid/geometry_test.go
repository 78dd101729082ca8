package hid

import "testing"

func TestGeometryLetterboxWidthConstrained(t *testing.T) {
	var g Geometry
	g.SetSourceSize(Size{W: 1920, H: 1080})
	g.SetWidgetSize(Size{W: 1000, H: 600})

	// 1000 * 1080 / 1920 = 562.5, truncated to 562; centered vertically in a
	// 600px-tall widget leaves 38px of letterbox split above/below.
	want := Rect{X: 0, Y: 19, W: 1000, H: 562}
	if g.DisplayRect != want {
		t.Fatalf("DisplayRect = %+v, want %+v", g.DisplayRect, want)
	}
}

func TestGeometryLetterboxHeightConstrained(t *testing.T) {
	var g Geometry
	g.SetSourceSize(Size{W: 1080, H: 1920})
	g.SetWidgetSize(Size{W: 400, H: 400})

	// Source is taller (relative to its width) than the widget: height is
	// the limiting dimension, width is pillarboxed (400*1080/1920 = 225).
	if g.DisplayRect.H != 400 {
		t.Fatalf("H = %d, want 400", g.DisplayRect.H)
	}
	if g.DisplayRect.W >= 400 || g.DisplayRect.W <= 0 {
		t.Fatalf("W = %d, want in (0, 400)", g.DisplayRect.W)
	}
	if g.DisplayRect.Y != 0 {
		t.Fatalf("Y = %d, want 0 (height-constrained rect touches top/bottom)", g.DisplayRect.Y)
	}
}

func TestClampToHIDCenterAndCorners(t *testing.T) {
	var g Geometry
	g.SetSourceSize(Size{W: 1920, H: 1080})
	g.SetWidgetSize(Size{W: 1000, H: 600})

	cases := []struct {
		px, py int
		wantX  uint16
		wantY  uint16
	}{
		{0, 0, 0, 0},
		{px(g), py(g), 2047, 2047},
	}
	for _, c := range cases {
		x, y := g.ClampToHID(c.px, c.py)
		if x != c.wantX || y != c.wantY {
			t.Errorf("ClampToHID(%d,%d) = (%d,%d), want (%d,%d)", c.px, c.py, x, y, c.wantX, c.wantY)
		}
	}
}

// px/py return the DisplayRect's midpoint in widget space, used to assert
// that the rectangle's center always maps to the HID space midpoint.
func px(g Geometry) int { return g.DisplayRect.X + g.DisplayRect.W/2 }
func py(g Geometry) int { return g.DisplayRect.Y + g.DisplayRect.H/2 }

func TestClampToHIDOutsideDisplayRectClampsToEdge(t *testing.T) {
	var g Geometry
	g.SetSourceSize(Size{W: 1920, H: 1080})
	g.SetWidgetSize(Size{W: 1000, H: 600})

	// Below the letterboxed rect entirely: clamps to the bottom edge. x=999
	// lies inside the 1000px-wide rect, so it is scaled, not clamped.
	x, y := g.ClampToHID(999, 599)
	if x != 4090 {
		t.Errorf("x = %d, want 4090 (999*4095/1000, truncated)", x)
	}
	if y != 4095 {
		t.Errorf("y = %d, want 4095 (bottom edge clamp, point lies outside DisplayRect)", y)
	}
}

func TestClampToHIDZeroGeometryIsSafe(t *testing.T) {
	var g Geometry
	x, y := g.ClampToHID(50, 50)
	if x != 0 || y != 0 {
		t.Fatalf("ClampToHID on zero geometry = (%d,%d), want (0,0)", x, y)
	}
}
