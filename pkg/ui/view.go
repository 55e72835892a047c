package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/tracklane/pkg/metrics"
)

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	parts := []string{m.renderHeader()}
	if m.focused == focusHelp {
		parts = append(parts, m.helpView.View())
	} else {
		parts = append(parts, m.renderTimeline())
		if bottom := m.renderPanes(); bottom != "" {
			parts = append(parts, bottom)
		}
	}
	parts = append(parts, m.renderFooter(), m.renderKeyHints())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderHeader() string {
	title := m.title
	if title == "" && m.path != "" {
		title = filepath.Base(m.path)
	}
	if title == "" {
		title = "untitled"
	}
	left := m.theme.Header.Render("tracklane") + " " + m.theme.PrimaryBold.Render(title)
	if src := m.a.MediaSource(); src != "" {
		left += m.theme.MutedText.Render("  ▶ " + src)
	}
	right := RenderDirtyBadge(m.a.Dirty())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return truncate(left, m.width)
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderPanes draws the annotation list and the detail pane side by side.
func (m *Model) renderPanes() string {
	h := m.bottomHeight()
	if h < 4 {
		return ""
	}
	listW, detailW := m.paneWidths()
	listStyle, detailStyle := PanelStyle, PanelStyle
	switch m.focused {
	case focusList:
		listStyle = FocusedPanelStyle
	case focusDetail:
		detailStyle = FocusedPanelStyle
	}
	left := listStyle.Width(listW - 2).Height(h - 2).Render(m.list.View())
	right := detailStyle.Width(detailW - 2).Height(h - 2).Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// renderFooter is the status line: the last message on the left, the
// document position on the right.
func (m *Model) renderFooter() string {
	if m.focused == focusPrompt {
		return m.renderPrompt()
	}
	right := m.theme.MutedText.Render(m.positionSummary())
	left := ""
	if m.statusMsg != "" {
		if m.statusIsError {
			left = m.theme.StatusError.Render(m.statusMsg)
		} else {
			left = m.theme.StatusOK.Render(m.statusMsg)
		}
	}
	room := m.width - lipgloss.Width(right) - 1
	if room < 1 {
		return truncate(right, m.width)
	}
	if lipgloss.Width(left) > room {
		left = truncate(m.statusMsg, room)
	}
	return left + strings.Repeat(" ", max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)) + right
}

// positionSummary shows undo/redo depth, zoom level, the visible window
// and the playhead.
func (m *Model) positionSummary() string {
	h := m.feeds.history
	lo, hi := m.a.Axis().VisibleRange()
	state := "⏸"
	if m.clock.Playing() {
		state = "▶"
	}
	return fmt.Sprintf("undo %d · redo %d · zoom %d · %s–%s · %s %s",
		h.UndoLen, h.RedoLen, m.a.Axis().Level(),
		FormatClock(lo), FormatClock(hi),
		state, FormatClock(m.playhead()))
}

func (m *Model) renderKeyHints() string {
	if m.focused == focusHelp {
		return m.theme.MutedText.Render("↑/↓ scroll · esc close")
	}
	return m.help.View(m.keys)
}
