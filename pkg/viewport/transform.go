// Package viewport holds the zoom/pan state of a view and maps between
// device coordinates (cells on screen) and original coordinates (the
// unzoomed view, [0,W]x[0,H]).
//
// A point o in original space appears on screen at o*Scale + Translate.
// Zoom is an integer level; Scale is Coefficient^level per axis.
package viewport

import "math"

// Point is a 2D coordinate or per-axis pair.
type Point struct {
	X, Y float64
}

// Box is an axis-aligned rectangle.
type Box struct {
	X, Y, W, H float64
}

// Right returns X+W.
func (b Box) Right() float64 { return b.X + b.W }

// Bottom returns Y+H.
func (b Box) Bottom() float64 { return b.Y + b.H }

// Margins widen the area the visible window may move over, in original
// coordinates.
type Margins struct {
	Left, Right, Top, Bottom float64
}

// Config holds the zoom limits and bounds of a Transform.
type Config struct {
	// Coefficient is the per-axis scale factor of one zoom step. A
	// coefficient of 1 disables zoom on that axis.
	Coefficient Point
	ZoomMin     int
	ZoomMax     int
	Margins     Margins
}

// DefaultConfig zooms the time axis only, from the full view inwards.
func DefaultConfig() Config {
	return Config{
		Coefficient: Point{X: 1.25, Y: 1},
		ZoomMin:     0,
		ZoomMax:     40,
	}
}

// Transform is the scale/translate state of one view.
type Transform struct {
	cfg       Config
	original  Box
	scale     Point
	translate Point
	level     int
}

// New returns an identity transform over a W x H view.
func New(w, h float64, cfg Config) *Transform {
	if cfg.Coefficient.X <= 0 {
		cfg.Coefficient.X = 1
	}
	if cfg.Coefficient.Y <= 0 {
		cfg.Coefficient.Y = 1
	}
	if cfg.ZoomMax < cfg.ZoomMin {
		cfg.ZoomMin, cfg.ZoomMax = cfg.ZoomMax, cfg.ZoomMin
	}
	t := &Transform{cfg: cfg, original: Box{W: w, H: h}}
	t.Reset()
	return t
}

// Config returns the transform's configuration.
func (t *Transform) Config() Config { return t.cfg }

// Original returns the unzoomed view box.
func (t *Transform) Original() Box { return t.original }

// Scale returns the per-axis scale.
func (t *Transform) Scale() Point { return t.scale }

// Translate returns the per-axis translation in device units.
func (t *Transform) Translate() Point { return t.translate }

// Level returns the zoom level.
func (t *Transform) Level() int { return t.level }

// Reset returns to the level clamped from 0 with no translation.
func (t *Transform) Reset() {
	t.level = t.clampLevel(0)
	t.scale = t.scaleAt(t.level)
	t.translate = Point{}
	t.KeepInBounds()
}

// Resize changes the view size, keeping zoom, and re-clamps.
func (t *Transform) Resize(w, h float64) {
	t.original.W = w
	t.original.H = h
	t.KeepInBounds()
}

// Zoom moves the level by delta steps around the device point p. The
// original point under p stays under p unless clamping has to move the
// window. It reports whether the level changed.
func (t *Transform) Zoom(delta int, p Point) bool {
	return t.ZoomTo(t.level+delta, p)
}

// ZoomTo sets the level (clamped) around the device point p.
func (t *Transform) ZoomTo(level int, p Point) bool {
	level = t.clampLevel(level)
	if level == t.level {
		return false
	}
	next := t.scaleAt(level)
	t.translate.X = focal(p.X, t.translate.X, t.scale.X, next.X)
	t.translate.Y = focal(p.Y, t.translate.Y, t.scale.Y, next.Y)
	t.scale = next
	t.level = level
	t.KeepInBounds()
	return true
}

// focal solves (p - tOld)/zOld == (p - tNew)/zNew for tNew.
func focal(p, tOld, zOld, zNew float64) float64 {
	return p - (p-tOld)*(zNew/zOld)
}

// Pan shifts the view by (dx, dy) device units.
func (t *Transform) Pan(dx, dy float64) {
	t.translate.X += dx
	t.translate.Y += dy
	t.KeepInBounds()
}

// PanTo sets the translation directly, then clamps it.
func (t *Transform) PanTo(tx, ty float64) {
	t.translate = Point{X: tx, Y: ty}
	t.KeepInBounds()
}

// KeepInBounds clamps the translation per axis so that the visible window
// stays inside [0,W]x[0,H] widened by the margins. A window larger than
// that area is centred on it.
func (t *Transform) KeepInBounds() {
	m := t.cfg.Margins
	t.translate.X = clampAxis(t.translate.X, t.scale.X, t.original.W, m.Left, m.Right)
	t.translate.Y = clampAxis(t.translate.Y, t.scale.Y, t.original.H, m.Top, m.Bottom)
}

// clampAxis keeps the window [(0-tr)/s, (size-tr)/s] inside
// [-lead, size+trail].
func clampAxis(tr, s, size, lead, trail float64) float64 {
	upper := lead * s
	lower := size - (size+trail)*s
	if lower > upper {
		return (lower + upper) / 2
	}
	return math.Min(math.Max(tr, lower), upper)
}

// Apply maps an original point to device space.
func (t *Transform) Apply(o Point) Point {
	return Point{
		X: o.X*t.scale.X + t.translate.X,
		Y: o.Y*t.scale.Y + t.translate.Y,
	}
}

// Invert maps a device point to original space.
func (t *Transform) Invert(d Point) Point {
	return Point{
		X: (d.X - t.translate.X) / t.scale.X,
		Y: (d.Y - t.translate.Y) / t.scale.Y,
	}
}

// VisibleWindow returns the part of original space on screen.
func (t *Transform) VisibleWindow() Box {
	tl := t.Invert(Point{})
	br := t.Invert(Point{X: t.original.W, Y: t.original.H})
	return Box{X: tl.X, Y: tl.Y, W: br.X - tl.X, H: br.Y - tl.Y}
}

func (t *Transform) clampLevel(level int) int {
	return min(max(level, t.cfg.ZoomMin), t.cfg.ZoomMax)
}

func (t *Transform) scaleAt(level int) Point {
	return Point{
		X: math.Pow(t.cfg.Coefficient.X, float64(level)),
		Y: math.Pow(t.cfg.Coefficient.Y, float64(level)),
	}
}
