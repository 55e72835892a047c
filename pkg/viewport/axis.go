package viewport

import "github.com/vanderheijden86/tracklane/pkg/scale"

// Axis binds a time domain [start, end] onto the X axis of a Transform. The
// time scale maps the domain onto original X in [0, W]; the transform then
// maps original X onto the screen.
type Axis struct {
	*Transform
	time   *scale.Linear
	offset Point
}

// Pointer is a device event resolved into every coordinate space.
type Pointer struct {
	Device   Point
	Original Point
	Time     float64
}

// NewAxis returns an axis over [start, end] drawn w x h device units wide.
func NewAxis(start, end, w, h float64, cfg Config, opts ...scale.Option) *Axis {
	opts = append([]scale.Option{scale.WithName("time axis")}, opts...)
	return &Axis{
		Transform: New(w, h, cfg),
		time:      scale.NewLinear(start, end, 0, w, opts...),
	}
}

// TimeScale returns the underlying time scale.
func (a *Axis) TimeScale() *scale.Linear { return a.time }

// Domain returns the time domain.
func (a *Axis) Domain() (float64, float64) { return a.time.Domain() }

// SetDomain replaces the time domain and resets zoom.
func (a *Axis) SetDomain(start, end float64) {
	a.time.SetDomain(start, end)
	a.Reset()
}

// SetOffset records where the view starts on the terminal so that Event can
// translate client coordinates.
func (a *Axis) SetOffset(x, y float64) {
	a.offset = Point{X: x, Y: y}
}

// Resize changes the drawn size. The time scale follows the new width.
func (a *Axis) Resize(w, h float64) {
	a.time.SetRange(0, w)
	a.Transform.Resize(w, h)
}

// TimeAt returns the time under device column x.
func (a *Axis) TimeAt(x float64) float64 {
	return a.time.Inv(a.Invert(Point{X: x}).X)
}

// XAt returns the device column of time t.
func (a *Axis) XAt(t float64) float64 {
	return a.Apply(Point{X: a.time.Call(t)}).X
}

// VisibleRange returns the time window currently on screen.
func (a *Axis) VisibleRange() (float64, float64) {
	lo, hi := a.TimeAt(0), a.TimeAt(a.Original().W)
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// MsPerUnit returns how much time one device column covers.
func (a *Axis) MsPerUnit() float64 {
	lo, hi := a.VisibleRange()
	w := a.Original().W
	if w <= 0 {
		return 0
	}
	return (hi - lo) / w
}

// Event resolves a pointer at client coordinates (terminal cells) into
// device, original and time coordinates.
func (a *Axis) Event(clientX, clientY float64) Pointer {
	d := Point{X: clientX - a.offset.X, Y: clientY - a.offset.Y}
	o := a.Invert(d)
	return Pointer{Device: d, Original: o, Time: a.time.Inv(o.X)}
}

// ZoomAtTime zooms by delta keeping time t fixed on screen.
func (a *Axis) ZoomAtTime(delta int, t float64) bool {
	return a.Zoom(delta, Point{X: a.XAt(t)})
}

// CenterOn pans so that time t sits in the middle of the view.
func (a *Axis) CenterOn(t float64) {
	a.Pan(a.Original().W/2-a.XAt(t), 0)
}
