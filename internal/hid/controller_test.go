package hid

import "testing"

func TestAbsoluteModeEnqueuesClampedPosition(t *testing.T) {
	q := NewQueue()
	c := NewController(q, nil)
	c.SetSourceSize(Size{W: 1920, H: 1080})
	c.SetWidgetSize(Size{W: 1000, H: 600})
	c.SetMode(ModeAbsolute)

	c.PointerButton(px(c.geometry), py(c.geometry), ButtonLeft, true)

	cmds := q.DrainAll()
	if len(cmds) != 1 {
		t.Fatalf("len(cmds) = %d, want 1", len(cmds))
	}
	m, ok := cmds[0].(MouseAbs)
	if !ok {
		t.Fatalf("cmds[0] is %T, want MouseAbs", cmds[0])
	}
	if m.X != 2047 || m.Y != 2047 {
		t.Errorf("pos = (%d,%d), want (2047,2047)", m.X, m.Y)
	}
	if m.Buttons != ButtonLeft {
		t.Errorf("buttons = %#x, want ButtonLeft", m.Buttons)
	}
}

func TestAbsoluteModeMoveRateLimited(t *testing.T) {
	q := NewQueue()
	c := NewController(q, nil)
	c.SetSourceSize(Size{W: 1920, H: 1080})
	c.SetWidgetSize(Size{W: 1000, H: 600})
	c.SetMode(ModeAbsolute)

	c.PointerMove(10, 10, false)
	c.PointerMove(20, 20, false)
	c.PointerMove(30, 30, false)

	if got := q.Len(); got != 1 {
		t.Fatalf("len(queue) = %d, want 1 (rapid moves collapse to one)", got)
	}
}

func TestRelativeModeTapEmitsClickPair(t *testing.T) {
	q := NewQueue()
	c := NewController(q, nil)
	c.SetMode(ModeRelative)

	c.PointerButton(100, 100, ButtonLeft, true)
	c.PointerButton(101, 101, ButtonLeft, false)

	cmds := q.DrainAll()
	if len(cmds) != 2 {
		t.Fatalf("len(cmds) = %d, want 2 (press + release)", len(cmds))
	}
	down, ok := cmds[0].(MouseRel)
	if !ok || down.Buttons != ButtonLeft {
		t.Fatalf("cmds[0] = %+v, want MouseRel{Buttons: ButtonLeft}", cmds[0])
	}
	up, ok := cmds[1].(MouseRel)
	if !ok || up.Buttons != 0 {
		t.Fatalf("cmds[1] = %+v, want MouseRel{Buttons: 0}", cmds[1])
	}
}

func TestRelativeModeDragEmitsDeltas(t *testing.T) {
	q := NewQueue()
	c := NewController(q, nil)
	c.SetMode(ModeRelative)

	c.PointerButton(100, 100, ButtonLeft, true)
	c.PointerMove(120, 100, true) // motion exceeds tap threshold: a drag, not a tap
	c.PointerButton(120, 100, ButtonLeft, false)

	cmds := q.DrainAll()
	if len(cmds) != 1 {
		t.Fatalf("len(cmds) = %d, want 1 (drag delta, no click pair on release)", len(cmds))
	}
	rel, ok := cmds[0].(MouseRel)
	if !ok {
		t.Fatalf("cmds[0] is %T, want MouseRel", cmds[0])
	}
	if rel.DX != 20 || rel.DY != 0 {
		t.Errorf("delta = (%d,%d), want (20,0)", rel.DX, rel.DY)
	}
}

func TestWheelIgnoredInModeNone(t *testing.T) {
	q := NewQueue()
	c := NewController(q, nil)
	c.PointerWheel(1)
	if got := q.Len(); got != 0 {
		t.Fatalf("len(queue) = %d, want 0 (ModeNone discards input)", got)
	}
}

func TestKeyEventPressAndRelease(t *testing.T) {
	q := NewQueue()
	c := NewController(q, nil)

	c.KeyEvent(evA, ToolkitShift, true)
	c.KeyEvent(evA, ToolkitShift, false)

	cmds := q.DrainAll()
	if len(cmds) != 2 {
		t.Fatalf("len(cmds) = %d, want 2 (press + release)", len(cmds))
	}
	down, ok := cmds[0].(Keyboard)
	if !ok || down.Modifiers != ModLeftShift || down.Keycode != KeyA {
		t.Fatalf("cmds[0] = %+v, want Keyboard{ModLeftShift, KeyA}", cmds[0])
	}
	up, ok := cmds[1].(Keyboard)
	if !ok || up.Modifiers != ModLeftShift || up.Keycode != 0 {
		t.Fatalf("cmds[1] = %+v, want Keyboard{ModLeftShift, 0}", cmds[1])
	}
}

func TestKeyEventAutoRepeatDiscarded(t *testing.T) {
	q := NewQueue()
	c := NewController(q, nil)

	c.KeyEvent(evA, 0, true)
	c.KeyEvent(evA, 0, true) // repeat: no intervening release
	c.KeyEvent(evA, 0, true) // repeat again

	if got := q.Len(); got != 1 {
		t.Fatalf("len(queue) = %d, want 1 (repeats discarded)", got)
	}

	c.KeyEvent(evA, 0, false)
	c.KeyEvent(evA, 0, true) // press again after release: not a repeat

	if got := q.Len(); got != 3 {
		t.Fatalf("len(queue) = %d, want 3 (initial press, release, re-press)", got)
	}
}

func TestKeyEventModifierAloneHasNoKeycode(t *testing.T) {
	q := NewQueue()
	c := NewController(q, nil)

	c.KeyEvent(evLeftCtrl, ToolkitCtrl, true)

	cmds := q.DrainAll()
	if len(cmds) != 1 {
		t.Fatalf("len(cmds) = %d, want 1", len(cmds))
	}
	k, ok := cmds[0].(Keyboard)
	if !ok || k.Modifiers != ModLeftCtrl || k.Keycode != 0 {
		t.Fatalf("cmds[0] = %+v, want Keyboard{ModLeftCtrl, 0}", cmds[0])
	}
}
