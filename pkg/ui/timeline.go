package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/tracklane/pkg/model"
)

const (
	minLabelWidth = 12
	maxLabelWidth = 28
)

// lane is one channel row of the timeline.
type lane struct {
	Channel model.Channel
	Depth   int
}

// cellKind decides how a timeline cell is styled.
type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellInterval
	cellSequence
	cellInstant
	cellSelected
	cellHovered
	cellPlayhead
	cellMark
)

type cell struct {
	r    rune
	kind cellKind
}

// rulerSteps are the tick spacings, in ms, the ruler picks from.
var rulerSteps = []float64{
	10, 20, 50, 100, 200, 500,
	1000, 2000, 5000, 10_000, 15_000, 30_000,
	60_000, 120_000, 300_000, 600_000, 900_000, 1_800_000, 3_600_000,
}

// rulerStep returns the smallest step that keeps ticks at least minGap
// columns apart.
func rulerStep(msPerCol float64, minGap int) float64 {
	for _, s := range rulerSteps {
		if s/msPerCol >= float64(minGap) {
			return s
		}
	}
	return rulerSteps[len(rulerSteps)-1]
}

// rulerLabel drops the milliseconds when the step is whole seconds.
func rulerLabel(ms, step float64) string {
	s := FormatClock(ms)
	if math.Mod(step, 1000) == 0 {
		if i := strings.LastIndexByte(s, '.'); i >= 0 {
			s = s[:i]
		}
	}
	return s
}

// lanes returns the channel rows in display order.
func (m *Model) lanes() []lane {
	var out []lane
	m.a.WalkChannels(func(ch model.Channel, depth int) bool {
		out = append(out, lane{Channel: ch, Depth: depth})
		return true
	})
	return out
}

// labelWidth is the width of the channel name column.
func (m *Model) labelWidth() int {
	w := m.width / 5
	return min(max(w, minLabelWidth), maxLabelWidth)
}

// trackWidth is the number of columns showing time.
func (m *Model) trackWidth() int {
	return max(m.width-m.labelWidth()-1, 1)
}

// trackLeft is the first terminal column of the track.
func (m *Model) trackLeft() int {
	return m.labelWidth() + 1
}

// timelineRows is the number of lane rows that fit, ruler excluded.
func (m *Model) timelineRows() int {
	return max(m.timelineHeight()-1, 1)
}

// rulerRow is the terminal row of the ruler; lanes follow it.
func (m *Model) rulerRow() int {
	return headerHeight
}

// laneAt maps a terminal row onto a lane index, or -1.
func (m *Model) laneAt(y int) int {
	row := y - m.rulerRow() - 1
	if row < 0 || row >= m.timelineRows() {
		return -1
	}
	idx := row + m.laneOffset
	if idx >= len(m.lanes()) {
		return -1
	}
	return idx
}

// renderTimeline draws the ruler and the visible lanes.
func (m *Model) renderTimeline() string {
	lanes := m.lanes()
	rows := m.timelineRows()
	width := m.trackWidth()
	labelW := m.labelWidth()

	var b strings.Builder
	b.WriteString(m.theme.MutedText.Render(fit(m.timeWindowLabel(), labelW)))
	b.WriteString(" ")
	b.WriteString(m.renderRuler(width))

	byLane := make(map[model.ChannelID][]model.Annotation)
	for _, ann := range m.a.Visible() {
		byLane[ann.ChannelID] = append(byLane[ann.ChannelID], ann)
	}

	playX := m.columnOf(m.playhead())
	for r := 0; r < rows; r++ {
		b.WriteString("\n")
		idx := r + m.laneOffset
		if idx >= len(lanes) {
			b.WriteString(strings.Repeat(" ", labelW+1))
			b.WriteString(m.renderCells(m.emptyCells(width, playX)))
			continue
		}
		ln := lanes[idx]
		b.WriteString(m.renderLaneLabel(ln, idx == m.curLane, labelW))
		b.WriteString(" ")
		cells := m.laneCells(ln.Channel.ID, byLane[ln.Channel.ID], width, playX, idx == m.curLane)
		b.WriteString(m.renderCells(cells))
	}
	return b.String()
}

func (m *Model) renderLaneLabel(ln lane, current bool, width int) string {
	name := ln.Channel.Name
	if name == "" {
		name = "(unnamed)"
	}
	if ln.Channel.AllowedTypes != nil {
		name += "*"
	}
	prefix := " "
	if current {
		prefix = "›"
	}
	label := fit(prefix+strings.Repeat("  ", ln.Depth)+name, width)
	if current {
		return m.theme.LaneCurrent.Render(label)
	}
	return m.theme.LaneLabel.Render(label)
}

func (m *Model) renderRuler(width int) string {
	row := make([]rune, width)
	for i := range row {
		row[i] = '─'
	}
	lo, hi := m.a.Axis().VisibleRange()
	msPerCol := (hi - lo) / float64(width)
	if msPerCol <= 0 || math.IsNaN(msPerCol) {
		return m.theme.Ruler.Render(string(row))
	}
	step := rulerStep(msPerCol, 12)
	for t := math.Ceil(lo/step) * step; t <= hi; t += step {
		x := m.columnOf(t)
		if x < 0 || x >= width {
			continue
		}
		row[x] = '┬'
		label := []rune(rulerLabel(t, step))
		if x+1+len(label) >= width {
			continue
		}
		copy(row[x+1:], label)
	}
	return m.theme.Ruler.Render(string(row))
}

// columnOf returns the track column of time t, which may be off screen.
func (m *Model) columnOf(t float64) int {
	return int(math.Floor(m.a.Axis().XAt(t)))
}

func (m *Model) emptyCells(width, playX int) []cell {
	cells := make([]cell, width)
	for i := range cells {
		cells[i] = cell{r: ' '}
	}
	if playX >= 0 && playX < width {
		cells[playX] = cell{r: '│', kind: cellPlayhead}
	}
	return cells
}

// laneCells lays out one lane: spans first, instants on top, then the
// playhead and the pending mark on free cells.
func (m *Model) laneCells(ch model.ChannelID, anns []model.Annotation, width, playX int, current bool) []cell {
	cells := make([]cell, width)
	for i := range cells {
		cells[i] = cell{r: '·', kind: cellEmpty}
	}

	hovered := m.a.Hovered()
	for _, ann := range anns {
		if !ann.Kind.HasDuration() {
			continue
		}
		x0 := m.columnOf(ann.Start)
		x1 := int(math.Ceil(m.a.Axis().XAt(ann.End))) - 1
		if x1 < x0 {
			x1 = x0
		}
		kind := cellInterval
		if ann.Kind == model.KindSequence {
			kind = cellSequence
		}
		switch {
		case m.a.IsSelected(ann.ID):
			kind = cellSelected
		case ann.ID == hovered:
			kind = cellHovered
		}
		fill(cells, x0, x1, kind, spanText(ann.Value, x1-x0+1))
	}
	for _, ann := range anns {
		if ann.Kind.HasDuration() {
			continue
		}
		x := m.columnOf(ann.Start)
		if x < 0 || x >= width {
			continue
		}
		kind := cellInstant
		switch {
		case m.a.IsSelected(ann.ID):
			kind = cellSelected
		case ann.ID == hovered:
			kind = cellHovered
		}
		cells[x] = cell{r: '◆', kind: kind}
	}

	if playX >= 0 && playX < width && cells[playX].kind == cellEmpty {
		cells[playX] = cell{r: '│', kind: cellPlayhead}
	}
	if current && m.hasMark {
		if x := m.columnOf(m.markIn); x >= 0 && x < width {
			cells[x] = cell{r: '▕', kind: cellMark}
		}
	}
	return cells
}

// spanText is the label drawn inside a span of n cells: ASCII-safe runes
// padded with the fill glyph.
func spanText(value string, n int) []rune {
	out := make([]rune, n)
	for i := range out {
		out[i] = '━'
	}
	if n < 3 {
		return out
	}
	i := 1
	for _, r := range value {
		if i >= n-1 {
			break
		}
		if runewidth.RuneWidth(r) != 1 {
			r = '?'
		}
		out[i] = r
		i++
	}
	if runewidth.StringWidth(value) > n-2 && n > 3 {
		out[n-2] = '…'
	}
	return out
}

// fill writes text over cells [x0, x1], clipped to the lane.
func fill(cells []cell, x0, x1 int, kind cellKind, text []rune) {
	for x := max(x0, 0); x <= x1 && x < len(cells); x++ {
		cells[x] = cell{r: text[x-x0], kind: kind}
	}
}

// renderCells styles runs of equal kind in one pass.
func (m *Model) renderCells(cells []cell) string {
	var b strings.Builder
	var run strings.Builder
	var cur cellKind
	flush := func() {
		if run.Len() == 0 {
			return
		}
		b.WriteString(m.cellStyle(cur).Render(run.String()))
		run.Reset()
	}
	for i, c := range cells {
		if i > 0 && c.kind != cur {
			flush()
		}
		cur = c.kind
		run.WriteRune(c.r)
	}
	flush()
	return b.String()
}

func (m *Model) cellStyle(k cellKind) lipgloss.Style {
	r := m.theme.Renderer
	switch k {
	case cellInterval:
		return r.NewStyle().Foreground(m.theme.Interval)
	case cellSequence:
		return r.NewStyle().Foreground(m.theme.Sequence)
	case cellInstant:
		return r.NewStyle().Foreground(m.theme.Instant).Bold(true)
	case cellSelected:
		return m.theme.Selected
	case cellHovered:
		return r.NewStyle().Foreground(m.theme.Primary).Underline(true)
	case cellPlayhead:
		return m.theme.PlayheadMark
	case cellMark:
		return m.theme.MarkIn
	default:
		return r.NewStyle().Foreground(m.theme.Border)
	}
}

// timeWindowLabel summarises the visible window for the ruler corner.
func (m *Model) timeWindowLabel() string {
	lo, hi := m.a.Axis().VisibleRange()
	return FormatSpan(hi - lo)
}
