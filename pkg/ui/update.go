package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/tracklane/pkg/model"
)

// seekStep is how far the arrow keys move the playhead.
const seekStep = 1000

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	wasArmed := m.quitArmed
	m.quitArmed = false

	switch m.focused {
	case focusPrompt:
		return m.updatePrompt(msg)

	case focusHelp:
		if key.Matches(msg, m.keys.Help, m.keys.Deselect, m.keys.Quit) {
			m.focused = m.prevFocus
			return nil
		}
		var cmd tea.Cmd
		m.helpView, cmd = m.helpView.Update(msg)
		return cmd

	case focusList:
		if m.list.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return cmd
		}
		if msg.String() == "enter" {
			m.jumpToListItem()
			return nil
		}
		if !m.isGlobalKey(msg) {
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return cmd
		}

	case focusDetail:
		if !m.isGlobalKey(msg) {
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return cmd
		}
	}

	return m.handleCommandKey(msg, wasArmed)
}

// isGlobalKey reports whether msg works in every pane.
func (m *Model) isGlobalKey(msg tea.KeyMsg) bool {
	return key.Matches(msg,
		m.keys.Quit, m.keys.Help, m.keys.Focus, m.keys.Undo, m.keys.Redo,
		m.keys.Save, m.keys.Play, m.keys.Edit, m.keys.Delete, m.keys.Copy,
		m.keys.Deselect, m.keys.ToggleKind)
}

func (m *Model) handleCommandKey(msg tea.KeyMsg, quitArmed bool) tea.Cmd {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		if m.a.Dirty() && !quitArmed {
			m.quitArmed = true
			m.setError("unsaved changes: press q again to quit, w to save")
			return nil
		}
		return tea.Quit

	case key.Matches(msg, k.Help):
		m.prevFocus = m.focused
		m.focused = focusHelp
		m.helpView.SetContent(m.renderMarkdown(m.helpMarkdown()))
		m.helpView.GotoTop()

	case key.Matches(msg, k.Focus):
		switch m.focused {
		case focusTimeline:
			m.focused = focusList
		case focusList:
			m.focused = focusDetail
		default:
			m.focused = focusTimeline
		}

	case key.Matches(msg, k.Undo):
		label := m.a.History().UndoLabel()
		if m.a.Undo() {
			m.setStatus("undid %s", label)
		} else {
			m.setStatus("nothing to undo")
		}

	case key.Matches(msg, k.Redo):
		label := m.a.History().RedoLabel()
		if m.a.Redo() {
			m.setStatus("redid %s", label)
		} else {
			m.setStatus("nothing to redo")
		}

	case key.Matches(msg, k.Save):
		if err := m.save(); err != nil {
			m.setError("save failed: %v", err)
		} else {
			m.setStatus("saved %s", m.path)
		}

	case key.Matches(msg, k.Play):
		m.clock.Toggle()
		if m.clock.Playing() && !m.ticking {
			m.ticking = true
			return tickCmd()
		}

	case key.Matches(msg, k.Edit):
		ann, ok := m.focusAnnotation()
		if !ok {
			m.setError("no annotation selected")
			return nil
		}
		m.prompt.ann = ann.ID
		return m.openPrompt(promptValue, ann.Value)

	case key.Matches(msg, k.Delete):
		m.deleteSelection()

	case key.Matches(msg, k.Copy):
		n, err := m.copySelection()
		if err != nil {
			m.setError("clipboard: %v", err)
		} else {
			m.setStatus("copied %d annotation(s) as JSON", n)
		}

	case key.Matches(msg, k.Deselect):
		if m.hasMark {
			m.hasMark = false
			m.setStatus("mark cleared")
		} else {
			m.a.DeselectAll()
		}

	case key.Matches(msg, k.ToggleKind):
		m.cycleKind()

	default:
		if m.focused == focusTimeline {
			return m.handleTimelineKey(msg)
		}
	}
	return nil
}

func (m *Model) handleTimelineKey(msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	axis := m.a.Axis()
	switch {
	case key.Matches(msg, k.SeekBack):
		m.seekTo(m.playhead() - seekStep)
	case key.Matches(msg, k.SeekFwd):
		m.seekTo(m.playhead() + seekStep)
	case key.Matches(msg, k.FrameBack):
		m.seekTo(m.playhead() - m.clock.FrameDuration())
	case key.Matches(msg, k.FrameFwd):
		m.seekTo(m.playhead() + m.clock.FrameDuration())
	case key.Matches(msg, k.ToggleTrack):
		m.follow = !m.follow
		if m.follow {
			m.setStatus("following playhead")
		} else {
			m.setStatus("free scrolling")
		}

	case key.Matches(msg, k.LaneUp):
		if m.curLane > 0 {
			m.curLane--
			m.ensureLaneVisible()
			m.feeds.detailStale = true
		}
	case key.Matches(msg, k.LaneDown):
		if m.curLane < len(m.lanes())-1 {
			m.curLane++
			m.ensureLaneVisible()
			m.feeds.detailStale = true
		}

	case key.Matches(msg, k.ZoomIn):
		if !axis.ZoomAtTime(1, m.playhead()) {
			m.setStatus("zoom limit")
		}
	case key.Matches(msg, k.ZoomOut):
		if !axis.ZoomAtTime(-1, m.playhead()) {
			m.setStatus("zoom limit")
		}
	case key.Matches(msg, k.ZoomReset):
		axis.Reset()
	case key.Matches(msg, k.PanLeft):
		axis.Pan(float64(m.trackWidth())/4, 0)
	case key.Matches(msg, k.PanRight):
		axis.Pan(-float64(m.trackWidth())/4, 0)

	case key.Matches(msg, k.MarkIn):
		m.markIn = m.playhead()
		m.hasMark = true
		m.setStatus("mark in at %s", FormatClock(m.markIn))
	case key.Matches(msg, k.MarkOut):
		return m.markOut()
	case key.Matches(msg, k.Instant):
		return m.createInstant()
	case key.Matches(msg, k.NextAnn):
		m.stepAnnotation(1)
	case key.Matches(msg, k.PrevAnn):
		m.stepAnnotation(-1)

	case key.Matches(msg, k.NewChannel):
		parent := model.NoChannel
		if ch, ok := m.currentChannel(); ok {
			parent = ch.ID
		}
		m.prompt.channel = parent
		return m.openPrompt(promptNewChannel, "")
	case key.Matches(msg, k.NewRoot):
		m.prompt.channel = model.NoChannel
		return m.openPrompt(promptNewChannel, "")
	case key.Matches(msg, k.Rename):
		ch, ok := m.currentChannel()
		if !ok {
			return nil
		}
		m.prompt.channel = ch.ID
		return m.openPrompt(promptRename, ch.Name)
	case key.Matches(msg, k.Restrict):
		ch, ok := m.currentChannel()
		if !ok {
			return nil
		}
		m.prompt.channel = ch.ID
		value := strings.Join(ch.AllowedTypes, ", ")
		if ch.AllowedTypes != nil && len(ch.AllowedTypes) == 0 {
			value = "-"
		}
		return m.openPrompt(promptRestrict, value)
	case key.Matches(msg, k.DelChannel):
		ch, ok := m.currentChannel()
		if !ok {
			return nil
		}
		if m.a.DeleteChannel(ch.ID) {
			m.setStatus("deleted channel %q", ch.Name)
		}
	}
	return nil
}

// defaultValue picks the value for a new annotation on ch: the last value
// used if the channel accepts it, else the first allowed one.
func (m *Model) defaultValue(ch model.Channel) (string, bool) {
	if ch.AllowedTypes != nil {
		if len(ch.AllowedTypes) == 0 {
			return "", false
		}
		if m.lastValue != "" && ch.Allows(m.lastValue) {
			return m.lastValue, true
		}
		return ch.AllowedTypes[0], true
	}
	if m.lastValue != "" {
		return m.lastValue, true
	}
	return "mark", true
}

// markOut closes the span opened with mark in and asks for its value.
func (m *Model) markOut() tea.Cmd {
	if !m.hasMark {
		m.setError("set a mark in first (i)")
		return nil
	}
	lo, hi := m.markIn, m.playhead()
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi-lo < m.clock.FrameDuration() {
		m.setError("span is shorter than one frame")
		return nil
	}
	m.hasMark = false
	return m.createAt(model.KindInterval, lo, hi)
}

func (m *Model) createInstant() tea.Cmd {
	t := m.playhead()
	return m.createAt(model.KindInstant, t, t)
}

func (m *Model) createAt(kind model.Kind, lo, hi float64) tea.Cmd {
	ch, ok := m.currentChannel()
	if !ok {
		m.setError("no channel: press C to add one")
		return nil
	}
	value, ok := m.defaultValue(ch)
	if !ok {
		m.setError("channel %q accepts no values", ch.Name)
		return nil
	}
	created, ok := m.a.CreateAnnotation(model.Annotation{
		ChannelID:  ch.ID,
		Kind:       kind,
		Value:      value,
		Start:      lo,
		End:        hi,
		StartFrame: m.frameAt(lo),
		EndFrame:   m.frameAt(hi),
	})
	if !ok {
		m.setError("could not create annotation on %q", ch.Name)
		return nil
	}
	m.a.SelectOnly(created.ID)
	m.prompt.ann = created.ID
	return m.openPrompt(promptValue, value)
}

// stepAnnotation selects the next (dir > 0) or previous annotation on the
// current lane relative to the playhead and seeks to it.
func (m *Model) stepAnnotation(dir int) {
	ch, ok := m.currentChannel()
	if !ok {
		return
	}
	anns := m.a.AnnotationsIn(ch.ID)
	ph := m.playhead()
	const eps = 0.5
	var target *model.Annotation
	if dir > 0 {
		for i := range anns {
			if anns[i].Start > ph+eps {
				target = &anns[i]
				break
			}
		}
	} else {
		for i := len(anns) - 1; i >= 0; i-- {
			if anns[i].Start < ph-eps {
				target = &anns[i]
				break
			}
		}
	}
	if target == nil {
		m.setStatus("no more annotations on %q", ch.Name)
		return
	}
	m.a.SelectOnly(target.ID)
	m.seekTo(target.Start)
}

// deleteSelection removes every selected annotation as one undo step.
func (m *Model) deleteSelection() {
	ids := m.a.Selected()
	if len(ids) == 0 {
		if ann, ok := m.focusAnnotation(); ok {
			ids = []model.AnnotationID{ann.ID}
		}
	}
	if len(ids) == 0 {
		m.setError("nothing selected")
		return
	}
	h := m.a.History()
	h.Begin("delete annotations")
	n := 0
	for _, id := range ids {
		if m.a.DeleteAnnotation(id) {
			n++
		}
	}
	h.End()
	m.setStatus("deleted %d annotation(s)", n)
}

var kindCycle = map[model.Kind]model.Kind{
	model.KindInstant:  model.KindInterval,
	model.KindInterval: model.KindSequence,
	model.KindSequence: model.KindInstant,
}

// cycleKind turns the focused annotation into the next kind. A span made
// from an instant gets one second of length.
func (m *Model) cycleKind() {
	ann, ok := m.focusAnnotation()
	if !ok {
		m.setError("no annotation selected")
		return
	}
	next := ann.Clone()
	next.Kind = kindCycle[ann.Kind]
	if next.Kind.HasDuration() && next.End <= next.Start {
		next.End = next.Start + seekStep
		next.EndFrame = m.frameAt(next.End)
	}
	next = next.Normalized()
	if !m.a.EditAnnotation(next) {
		m.setError("could not change kind")
		return
	}
	m.setStatus("%s is now %s", ann.Value, next.Kind)
}

// jumpToListItem selects the list's current annotation on the timeline.
func (m *Model) jumpToListItem() {
	item, ok := m.list.SelectedItem().(AnnotationItem)
	if !ok {
		return
	}
	ann := item.Annotation
	m.a.SelectOnly(ann.ID)
	m.focusChannel(ann.ChannelID)
	m.seekTo(ann.Start)
	m.focused = focusTimeline
}
