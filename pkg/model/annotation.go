// Package model defines the document types shared by every tracklane package:
// channels, annotations, id sequences and the persisted State shape.
//
// All entity types are plain values. Anything that is stored for later
// (history records, event payloads, exports) must go through Clone so that a
// later edit of the live document can never leak into the stored copy.
package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AnnotationID identifies an annotation within one document.
type AnnotationID int

// NoAnnotation is the zero reference used for "nothing hovered/selected".
const NoAnnotation AnnotationID = -1

// Kind discriminates the annotation variants. The variants share every field;
// only the treatment of End differs.
type Kind string

const (
	KindInstant  Kind = "instant"
	KindInterval Kind = "interval"
	KindSequence Kind = "sequence"
)

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindInstant, KindInterval, KindSequence:
		return true
	}
	return false
}

// HasDuration reports whether annotations of this kind span End-Start.
func (k Kind) HasDuration() bool {
	return k == KindInterval || k == KindSequence
}

// ParseKind maps a wire type name onto a Kind. Unknown names fall back to
// interval, which is what the editor creates by default.
func ParseKind(s string) Kind {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindInstant, KindInterval, KindSequence:
		return k
	default:
		return KindInterval
	}
}

// Modifier is an ordered key/value attribute attached to an annotation.
type Modifier struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Annotation is a labelled instant or span on one channel. Times are in
// milliseconds.
type Annotation struct {
	ID         AnnotationID
	ChannelID  ChannelID
	Kind       Kind
	Value      string
	Start      float64
	End        float64
	StartFrame int
	EndFrame   int
	Modifiers  []Modifier
}

// Clone returns a deep copy of a.
func (a Annotation) Clone() Annotation {
	c := a
	if a.Modifiers != nil {
		c.Modifiers = make([]Modifier, len(a.Modifiers))
		copy(c.Modifiers, a.Modifiers)
	}
	return c
}

// Normalized returns a copy with the time fields made consistent with Kind:
// instants collapse to Start, spans are ordered so that End >= Start.
func (a Annotation) Normalized() Annotation {
	c := a.Clone()
	if !c.Kind.IsValid() {
		c.Kind = KindInterval
	}
	if !c.Kind.HasDuration() {
		c.End = c.Start
		c.EndFrame = c.StartFrame
		return c
	}
	if c.End < c.Start {
		c.Start, c.End = c.End, c.Start
		c.StartFrame, c.EndFrame = c.EndFrame, c.StartFrame
	}
	return c
}

// Duration returns End-Start for spans and 0 for instants.
func (a Annotation) Duration() float64 {
	if !a.Kind.HasDuration() {
		return 0
	}
	return a.End - a.Start
}

// Bounds returns the closed time interval the annotation occupies.
func (a Annotation) Bounds() (lo, hi float64) {
	if !a.Kind.HasDuration() {
		return a.Start, a.Start
	}
	if a.End < a.Start {
		return a.End, a.Start
	}
	return a.Start, a.End
}

// Finite reports whether both times are real numbers. NaN and infinities
// cannot be indexed or saved.
func (a Annotation) Finite() bool {
	return isFinite(a.Start) && isFinite(a.End)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// parseTime accepts finite numbers only; ParseFloat also takes "NaN" and "Inf".
func parseTime(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(v) {
		return 0, false
	}
	return v, true
}

// Equal reports whether a and b hold the same state, modifiers included.
func (a Annotation) Equal(b Annotation) bool {
	if a.ID != b.ID || a.ChannelID != b.ChannelID || a.Kind != b.Kind ||
		a.Value != b.Value || a.Start != b.Start || a.End != b.End ||
		a.StartFrame != b.StartFrame || a.EndFrame != b.EndFrame {
		return false
	}
	if len(a.Modifiers) != len(b.Modifiers) {
		return false
	}
	for i := range a.Modifiers {
		if a.Modifiers[i] != b.Modifiers[i] {
			return false
		}
	}
	return true
}

// ModifierValue returns the value of the first modifier with the given key.
func (a Annotation) ModifierValue(key string) (string, bool) {
	for _, m := range a.Modifiers {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// ApplyModifiers returns a copy where modifiers naming an annotation field
// overwrite that field. Unrecognised keys and unparsable numbers leave the
// base state alone. The modifier list itself is kept.
func (a Annotation) ApplyModifiers() Annotation {
	c := a.Clone()
	for _, m := range a.Modifiers {
		switch m.Key {
		case "value":
			c.Value = m.Value
		case "type", "kind":
			c.Kind = ParseKind(m.Value)
		case "startTime":
			if v, ok := parseTime(m.Value); ok {
				c.Start = v
			}
		case "endTime":
			if v, ok := parseTime(m.Value); ok {
				c.End = v
			}
		case "startFrame":
			if v, err := strconv.Atoi(m.Value); err == nil {
				c.StartFrame = v
			}
		case "endFrame":
			if v, err := strconv.Atoi(m.Value); err == nil {
				c.EndFrame = v
			}
		}
	}
	return c
}

func (a Annotation) String() string {
	if !a.Kind.HasDuration() {
		return fmt.Sprintf("#%d %q @%.0fms (ch %d)", a.ID, a.Value, a.Start, a.ChannelID)
	}
	return fmt.Sprintf("#%d %q %.0f-%.0fms (ch %d)", a.ID, a.Value, a.Start, a.End, a.ChannelID)
}
