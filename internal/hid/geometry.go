package hid

// Size is a width/height pair in pixels.
type Size struct {
	W, H int
}

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	X, Y, W, H int
}

// Geometry tracks the source video size, the widget (display surface) size,
// and the letterboxed sub-rectangle of the widget where source pixels are
// actually drawn. Recomputed whenever either size changes.
type Geometry struct {
	SourceSize  Size
	WidgetSize  Size
	DisplayRect Rect
}

// SetSourceSize updates the source resolution and recomputes DisplayRect.
func (g *Geometry) SetSourceSize(s Size) {
	g.SourceSize = s
	g.recompute()
}

// SetWidgetSize updates the display widget size and recomputes DisplayRect.
func (g *Geometry) SetWidgetSize(s Size) {
	g.WidgetSize = s
	g.recompute()
}

// recompute derives the largest centered sub-rectangle of WidgetSize whose
// aspect ratio equals SourceSize's (the "letterbox rectangle").
func (g *Geometry) recompute() {
	if g.SourceSize.W <= 0 || g.SourceSize.H <= 0 || g.WidgetSize.W <= 0 || g.WidgetSize.H <= 0 {
		g.DisplayRect = Rect{}
		return
	}

	// Candidate 1: full widget width, height scaled to preserve aspect ratio.
	w := g.WidgetSize.W
	h := w * g.SourceSize.H / g.SourceSize.W
	if h > g.WidgetSize.H {
		// Too tall: constrain by height instead.
		h = g.WidgetSize.H
		w = h * g.SourceSize.W / g.SourceSize.H
	}

	x := (g.WidgetSize.W - w) / 2
	y := (g.WidgetSize.H - h) / 2
	g.DisplayRect = Rect{X: x, Y: y, W: w, H: h}
}

// ClampToHID maps a widget-space point into the device's 0..4095 coordinate
// space, clamping points outside DisplayRect to its boundary.
func (g *Geometry) ClampToHID(px, py int) (x, y uint16) {
	r := g.DisplayRect
	if r.W <= 0 || r.H <= 0 {
		return 0, 0
	}

	relX := px - r.X
	relY := py - r.Y
	if relX < 0 {
		relX = 0
	}
	if relX > r.W {
		relX = r.W
	}
	if relY < 0 {
		relY = 0
	}
	if relY > r.H {
		relY = r.H
	}

	x = clampUint12(relX * 4095 / r.W)
	y = clampUint12(relY * 4095 / r.H)
	return x, y
}
