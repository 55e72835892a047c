package viewport

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestAxisMapsTime(t *testing.T) {
	a := NewAxis(0, 60000, 120, 10, DefaultConfig())

	if got := a.XAt(30000); !scalar.EqualWithinAbs(got, 60, tol) {
		t.Errorf("XAt(30000) = %v, want 60", got)
	}
	if got := a.TimeAt(120); !scalar.EqualWithinAbs(got, 60000, tol) {
		t.Errorf("TimeAt(120) = %v, want 60000", got)
	}
	lo, hi := a.VisibleRange()
	if lo != 0 || !scalar.EqualWithinAbs(hi, 60000, tol) {
		t.Errorf("VisibleRange = [%v, %v], want [0, 60000]", lo, hi)
	}
}

func TestAxisZoomAtTime(t *testing.T) {
	a := NewAxis(0, 60000, 120, 10, DefaultConfig())
	x := a.XAt(15000)
	if !a.ZoomAtTime(3, 15000) {
		t.Fatal("zoom did not change level")
	}
	if got := a.XAt(15000); !scalar.EqualWithinAbs(got, x, 1e-6) {
		t.Errorf("time 15000 moved from column %v to %v", x, got)
	}
	lo, hi := a.VisibleRange()
	if hi-lo >= 60000 {
		t.Errorf("zooming in did not narrow the window: [%v, %v]", lo, hi)
	}
	if lo < 0 || hi > 60000+tol {
		t.Errorf("window [%v, %v] left the domain", lo, hi)
	}
}

func TestAxisEventUsesOffset(t *testing.T) {
	a := NewAxis(0, 1000, 100, 10, DefaultConfig())
	a.SetOffset(20, 3)

	p := a.Event(70, 5)
	if p.Device.X != 50 || p.Device.Y != 2 {
		t.Errorf("Device = %v, want {50 2}", p.Device)
	}
	if !scalar.EqualWithinAbs(p.Time, 500, tol) {
		t.Errorf("Time = %v, want 500", p.Time)
	}
}

func TestAxisResizeFollowsWidth(t *testing.T) {
	a := NewAxis(0, 1000, 100, 10, DefaultConfig())
	a.Resize(200, 10)
	if got := a.XAt(1000); !scalar.EqualWithinAbs(got, 200, tol) {
		t.Errorf("XAt(end) after resize = %v, want 200", got)
	}
}

func TestAxisSetDomainResetsZoom(t *testing.T) {
	a := NewAxis(0, 1000, 100, 10, DefaultConfig())
	a.ZoomAtTime(4, 500)
	a.SetDomain(1000, 3000)
	if a.Level() != 0 {
		t.Errorf("Level = %d after SetDomain, want 0", a.Level())
	}
	if got := a.TimeAt(0); !scalar.EqualWithinAbs(got, 1000, tol) {
		t.Errorf("TimeAt(0) = %v, want 1000", got)
	}
}
