// Package media describes the playback collaborator of the editor and
// provides a virtual clock that stands in for a real player.
package media

import (
	"math"
	"time"
)

// Player is what the editor needs from a media player. Positions are in
// milliseconds.
type Player interface {
	Position() float64
	Seek(ms float64)
	Duration() float64
	Playing() bool
	Toggle()
}

// Clock is a Player without decoding: it advances its position with wall
// time while playing. Advance is driven by UI ticks.
type Clock struct {
	pos      float64
	duration float64
	playing  bool
	rate     float64
	fps      float64
	last     time.Time
	now      func() time.Time
}

// ClockOption configures a Clock.
type ClockOption func(*Clock)

// WithRate sets the playback rate; 1 is real time.
func WithRate(r float64) ClockOption {
	return func(c *Clock) {
		if r > 0 {
			c.rate = r
		}
	}
}

// WithFrameRate sets the frames per second used by Frame.
func WithFrameRate(fps float64) ClockOption {
	return func(c *Clock) {
		if fps > 0 {
			c.fps = fps
		}
	}
}

// WithNow replaces the time source. Tests use it.
func WithNow(now func() time.Time) ClockOption {
	return func(c *Clock) {
		c.now = now
	}
}

// NewClock returns a paused clock over [0, duration].
func NewClock(duration float64, opts ...ClockOption) *Clock {
	c := &Clock{duration: math.Max(duration, 0), rate: 1, fps: 25, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Position returns the current position.
func (c *Clock) Position() float64 { return c.pos }

// Duration returns the clip length.
func (c *Clock) Duration() float64 { return c.duration }

// SetDuration changes the clip length and clamps the position.
func (c *Clock) SetDuration(ms float64) {
	c.duration = math.Max(ms, 0)
	c.Seek(c.pos)
}

// Playing reports whether the clock runs.
func (c *Clock) Playing() bool { return c.playing }

// Seek jumps to ms, clamped to the clip.
func (c *Clock) Seek(ms float64) {
	c.pos = math.Min(math.Max(ms, 0), c.duration)
	c.last = c.now()
}

// Toggle starts or pauses playback. Playing from the end restarts at 0.
func (c *Clock) Toggle() {
	if c.playing {
		c.Advance()
		c.playing = false
		return
	}
	if c.pos >= c.duration {
		c.pos = 0
	}
	c.playing = true
	c.last = c.now()
}

// Advance moves the position by the wall time since the previous call and
// stops at the end of the clip. It returns the new position.
func (c *Clock) Advance() float64 {
	now := c.now()
	if c.playing && !c.last.IsZero() {
		c.pos += float64(now.Sub(c.last).Milliseconds()) * c.rate
		if c.pos >= c.duration {
			c.pos = c.duration
			c.playing = false
		}
	}
	c.last = now
	return c.pos
}

// Frame returns the frame index at ms.
func (c *Clock) Frame(ms float64) int {
	return int(math.Floor(ms / 1000 * c.fps))
}

// FrameDuration returns the length of one frame in ms.
func (c *Clock) FrameDuration() float64 {
	return 1000 / c.fps
}

var _ Player = (*Clock)(nil)
