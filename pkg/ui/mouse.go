package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/tracklane/pkg/model"
)

// hitSlop widens the pointer so instants stay clickable at any zoom.
const hitSlop = 0.5

// inTrack reports whether terminal cell (x, y) lies on the time axis:
// the ruler or a lane row, right of the labels.
func (m *Model) inTrack(x, y int) bool {
	top := m.rulerRow()
	return x >= m.trackLeft() && y >= top && y <= top+m.timelineRows()
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.focused == focusPrompt || m.focused == focusHelp {
		return
	}
	axis := m.a.Axis()
	p := axis.Event(float64(msg.X), float64(msg.Y))

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if m.inTrack(msg.X, msg.Y) {
				axis.ZoomAtTime(1, p.Time)
			}
		case tea.MouseButtonWheelDown:
			if m.inTrack(msg.X, msg.Y) {
				axis.ZoomAtTime(-1, p.Time)
			}
		case tea.MouseButtonWheelLeft:
			axis.Pan(2, 0)
		case tea.MouseButtonWheelRight:
			axis.Pan(-2, 0)
		case tea.MouseButtonLeft:
			m.press(msg.X, msg.Y, p.Device.X, p.Time)
		}

	case tea.MouseActionMotion:
		if m.drag.mode == dragNone {
			m.hover(msg.X, msg.Y, p.Device.X)
			return
		}
		m.dragTo(msg.X, p.Time)

	case tea.MouseActionRelease:
		m.release()
	}
}

// press starts a click or drag at the given cell. devX is the column
// relative to the track, t the time under it.
func (m *Model) press(x, y int, devX, t float64) {
	if y == m.rulerRow() && x >= m.trackLeft() {
		m.focused = focusTimeline
		m.seekTo(t)
		m.drag = dragState{mode: dragScrub, lastX: x}
		return
	}
	idx := m.laneAt(y)
	if idx < 0 {
		return
	}
	m.focused = focusTimeline
	m.curLane = idx
	m.feeds.detailStale = true
	if x < m.trackLeft() {
		return
	}
	ch := m.lanes()[idx].Channel
	if ann, ok := m.a.HitTest(ch.ID, devX, hitSlop); ok {
		m.a.SelectOnly(ann.ID)
		m.drag = dragState{mode: dragMove, lastX: x, orig: ann, grab: t}
		return
	}
	m.a.DeselectAll()
	m.drag = dragState{mode: dragPan, lastX: x}
}

func (m *Model) dragTo(x int, t float64) {
	switch m.drag.mode {
	case dragPan:
		m.a.Axis().Pan(float64(x-m.drag.lastX), 0)
		m.drag.lastX = x
	case dragScrub:
		m.seekTo(t)
	case dragMove:
		if x == m.drag.lastX && !m.drag.moved {
			return
		}
		dt := t - m.drag.grab
		next := m.drag.orig.Clone()
		if dt != 0 {
			next.Start += dt
			next.End += dt
			next.StartFrame = m.frameAt(next.Start)
			next.EndFrame = m.frameAt(next.End)
		}
		if m.a.Bulk().Preview(next) {
			m.drag.moved = true
			m.drag.lastX = x
		}
	}
}

// release ends a drag; a moved annotation becomes one undo step unless it
// was dropped where it started.
func (m *Model) release() {
	d := m.drag
	m.drag = dragState{}
	if d.mode != dragMove || !d.moved {
		return
	}
	cur, ok := m.a.Annotation(d.orig.ID)
	if !ok || cur.Equal(d.orig) {
		return
	}
	if m.a.UpdateAnnotation(cur, d.orig) {
		m.setStatus("moved %s to %s", cur.Value, FormatClock(cur.Start))
	}
}

func (m *Model) hover(x, y int, devX float64) {
	idx := m.laneAt(y)
	if idx < 0 || x < m.trackLeft() {
		m.a.Hover(model.NoAnnotation)
		return
	}
	ch := m.lanes()[idx].Channel
	if ann, ok := m.a.HitTest(ch.ID, devX, hitSlop); ok {
		m.a.Hover(ann.ID)
		return
	}
	m.a.Hover(model.NoAnnotation)
}
