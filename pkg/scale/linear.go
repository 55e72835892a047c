// Package scale maps a continuous domain onto a continuous range.
package scale

import "github.com/vanderheijden86/tracklane/pkg/debug"

// Linear maps [D0,D1] onto [R0,R1]. Either interval may be descending. Inputs
// outside the domain (or range, for Inv) are extrapolated, never rejected.
type Linear struct {
	d0, d1 float64
	r0, r1 float64
	warn   bool
	name   string
}

// Option configures a Linear scale.
type Option func(*Linear)

// WithWarnings makes Call and Inv report out-of-domain inputs through
// debug.Warn.
func WithWarnings(on bool) Option {
	return func(s *Linear) {
		s.warn = on
	}
}

// WithName labels the scale in warnings.
func WithName(name string) Option {
	return func(s *Linear) {
		s.name = name
	}
}

// NewLinear returns a scale mapping domain [d0,d1] onto range [r0,r1].
func NewLinear(d0, d1, r0, r1 float64, opts ...Option) *Linear {
	s := &Linear{d0: d0, d1: d1, r0: r0, r1: r1, name: "scale"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Domain returns the domain endpoints.
func (s *Linear) Domain() (float64, float64) { return s.d0, s.d1 }

// Range returns the range endpoints.
func (s *Linear) Range() (float64, float64) { return s.r0, s.r1 }

// SetDomain replaces the domain.
func (s *Linear) SetDomain(d0, d1 float64) {
	s.d0, s.d1 = d0, d1
}

// SetRange replaces the range.
func (s *Linear) SetRange(r0, r1 float64) {
	s.r0, s.r1 = r0, r1
}

// Degenerate reports whether the domain has zero width.
func (s *Linear) Degenerate() bool {
	return s.d0 == s.d1
}

// Factor is the slope (r1-r0)/(d1-d0); 0 for a degenerate domain.
func (s *Linear) Factor() float64 {
	if s.Degenerate() {
		return 0
	}
	return (s.r1 - s.r0) / (s.d1 - s.d0)
}

// Call maps a domain value into the range. A degenerate domain maps every
// input to R0.
func (s *Linear) Call(x float64) float64 {
	if s.warn && !within(x, s.d0, s.d1) {
		debug.Warn("%s: %v outside domain [%v, %v]", s.name, x, s.d0, s.d1)
	}
	if s.Degenerate() {
		return s.r0
	}
	return (s.r1-s.r0)/(s.d1-s.d0)*(x-s.d0) + s.r0
}

// Inv maps a range value back into the domain. When the range has zero
// width the inverse is undefined and D0 is returned.
func (s *Linear) Inv(y float64) float64 {
	if s.warn && !within(y, s.r0, s.r1) {
		debug.Warn("%s: %v outside range [%v, %v]", s.name, y, s.r0, s.r1)
	}
	if s.Degenerate() || s.r0 == s.r1 {
		return s.d0
	}
	return (s.d1-s.d0)/(s.r1-s.r0)*(y-s.r0) + s.d0
}

// Clone returns an independent copy of s.
func (s *Linear) Clone() *Linear {
	c := *s
	return &c
}

func within(v, a, b float64) bool {
	if a > b {
		a, b = b, a
	}
	return v >= a && v <= b
}
