package scale

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/vanderheijden86/tracklane/pkg/debug"
	"gonum.org/v1/gonum/floats/scalar"
	"pgregory.net/rapid"
)

func TestLinearAscending(t *testing.T) {
	s := NewLinear(5, 10, 10, 20)
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"call(5)", s.Call(5), 10},
		{"call(10)", s.Call(10), 20},
		{"inv(10)", s.Inv(10), 5},
		{"inv(20)", s.Inv(20), 10},
		{"call(7.5)", s.Call(7.5), 15},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestLinearDescendingDomain(t *testing.T) {
	s := NewLinear(10, 5, 10, 20)
	if got := s.Call(10); got != 10 {
		t.Errorf("call(10) = %v, want 10", got)
	}
	if got := s.Call(5); got != 20 {
		t.Errorf("call(5) = %v, want 20", got)
	}
	if got := s.Inv(20); got != 5 {
		t.Errorf("inv(20) = %v, want 5", got)
	}
}

func TestLinearExtrapolates(t *testing.T) {
	s := NewLinear(0, 10, 0, 100)
	if got := s.Call(20); got != 200 {
		t.Errorf("call(20) = %v, want 200", got)
	}
	if got := s.Call(-1); got != -10 {
		t.Errorf("call(-1) = %v, want -10", got)
	}
}

func TestLinearDegenerate(t *testing.T) {
	s := NewLinear(3, 3, 7, 9)
	if got := s.Call(100); got != 7 {
		t.Errorf("degenerate call = %v, want 7", got)
	}
	if got := s.Inv(8); got != 3 {
		t.Errorf("degenerate inv = %v, want 3", got)
	}
	if s.Factor() != 0 {
		t.Errorf("degenerate factor = %v, want 0", s.Factor())
	}
}

func TestLinearWarnsOutOfDomain(t *testing.T) {
	var buf bytes.Buffer
	debug.SetOutput(&buf)
	debug.SetWarnings(true)
	defer debug.SetWarnings(false)

	s := NewLinear(0, 10, 0, 1, WithWarnings(true), WithName("time"))
	s.Call(5)
	if buf.Len() != 0 {
		t.Fatalf("in-domain call warned: %q", buf.String())
	}
	got := s.Call(11)
	if !scalar.EqualWithinAbs(got, 1.1, 1e-12) {
		t.Errorf("extrapolated call = %v, want 1.1", got)
	}
	if !strings.Contains(buf.String(), "time: 11 outside domain") {
		t.Errorf("expected warning, got %q", buf.String())
	}
}

func TestLinearInverseLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d0 := rapid.Float64Range(-1e6, 1e6).Draw(t, "d0")
		width := rapid.Float64Range(1e-3, 1e6).Draw(t, "width")
		d1 := d0 + width
		if rapid.Bool().Draw(t, "descending") {
			d0, d1 = d1, d0
		}
		r0 := rapid.Float64Range(-1e4, 1e4).Draw(t, "r0")
		r1 := r0 + rapid.Float64Range(1, 1e4).Draw(t, "rwidth")
		x := rapid.Float64Range(-2e6, 2e6).Draw(t, "x")

		s := NewLinear(d0, d1, r0, r1)
		back := s.Inv(s.Call(x))
		tol := 1e-9 * math.Max(1, math.Abs(x)+math.Abs(d0)+width)
		if !scalar.EqualWithinAbsOrRel(back, x, tol, 1e-9) {
			t.Fatalf("inv(call(%v)) = %v", x, back)
		}
	})
}
