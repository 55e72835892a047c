// Package ui is the terminal editor: a Bubble Tea program drawing the
// channel lanes of one document over a zoomable time axis, with an
// annotation list, a detail pane and a one-line prompt for edits.
//
// All document mutation happens on the Update goroutine through the
// annotator. Background work (file watching, reloads) reports back as
// messages.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/tracklane/pkg/annotator"
	"github.com/vanderheijden86/tracklane/pkg/config"
	"github.com/vanderheijden86/tracklane/pkg/media"
	"github.com/vanderheijden86/tracklane/pkg/model"
	"github.com/vanderheijden86/tracklane/pkg/watcher"
)

const (
	headerHeight  = 1
	footerHeight  = 2 // status + key hints
	defaultWidth  = 100
	defaultHeight = 30
	tickInterval  = 40 * time.Millisecond
)

// focus represents which pane has keyboard focus.
type focus int

const (
	focusTimeline focus = iota
	focusList
	focusDetail
	focusHelp
	focusPrompt
)

func (f focus) String() string {
	switch f {
	case focusTimeline:
		return "timeline"
	case focusList:
		return "list"
	case focusDetail:
		return "detail"
	case focusHelp:
		return "help"
	case focusPrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// tickMsg advances the playback clock.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// dragMode says what a held mouse button is doing.
type dragMode int

const (
	dragNone dragMode = iota
	dragPan
	dragMove
	dragScrub
)

type dragState struct {
	mode  dragMode
	lastX int
	orig  model.Annotation
	grab  float64
	moved bool
}

// Options configures NewModel.
type Options struct {
	Config config.Config
	// Path is where w saves; empty or a URL makes the document read-only.
	Path    string
	Title   string
	Watcher *watcher.Watcher
	// Notice is shown in the status bar on start, e.g. a load error.
	Notice        string
	NoticeIsError bool
}

// Model is the Bubble Tea model of the editor.
type Model struct {
	a       *annotator.Annotator
	cfg     config.Config
	keys    keyMap
	help    help.Model
	theme   Theme
	clock   *media.Clock
	watcher *watcher.Watcher
	feeds   *feedState

	path  string
	title string

	width  int
	height int

	focused   focus
	prevFocus focus

	curLane    int
	laneOffset int
	hasMark    bool
	markIn     float64
	follow     bool
	ticking    bool
	lastValue  string
	drag       dragState
	quitArmed  bool

	mdWidth  int
	md       *glamour.TermRenderer
	list     list.Model
	detail   viewport.Model
	helpView viewport.Model
	prompt   prompt

	statusMsg     string
	statusIsError bool
}

// NewModel wraps a loaded annotator.
func NewModel(a *annotator.Annotator, opts Options) Model {
	cfg := opts.Config
	if cfg.UI.FrameRate <= 0 {
		cfg = config.DefaultConfig()
	}
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	start, end := a.Axis().Domain()

	m := Model{
		a:        a,
		cfg:      cfg,
		keys:     newKeyMap(cfg.Keys),
		help:     help.New(),
		theme:    theme,
		clock:    media.NewClock(end-start, media.WithFrameRate(cfg.UI.FrameRate)),
		watcher:  opts.Watcher,
		feeds:    subscribeFeeds(a),
		path:     opts.Path,
		title:    opts.Title,
		follow:   true,
		list:     newAnnotationList(theme),
		detail:   viewport.New(40, 10),
		helpView: viewport.New(defaultWidth, defaultHeight),
		prompt:   prompt{input: newPromptInput(theme)},
	}
	if cfg.UI.DefaultView == "table" {
		m.focused = focusList
	}
	if opts.Notice != "" {
		m.statusMsg = opts.Notice
		m.statusIsError = opts.NoticeIsError
	}
	m.resize(defaultWidth, defaultHeight)
	m.syncViews()
	return m
}

// Annotator returns the document the model edits.
func (m Model) Annotator() *annotator.Annotator { return m.a }

// Close detaches the model from the annotator's feeds.
func (m Model) Close() {
	m.feeds.close()
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tickMsg:
		if m.clock.Playing() {
			m.clock.Advance()
			m.followPlayhead()
			cmds = append(cmds, tickCmd())
		} else {
			m.ticking = false
		}

	case FileChangedMsg:
		cmds = append(cmds, m.handleFileChanged(msg))

	case StateLoadedMsg:
		m.handleStateLoaded(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	default:
		if m.focused == focusList {
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, m.syncViews())
	return m, tea.Batch(cmds...)
}

// resize lays the panes out for a w x h terminal.
func (m *Model) resize(w, h int) {
	m.width, m.height = max(w, 20), max(h, 8)
	axis := m.a.Axis()
	axis.Resize(float64(m.trackWidth()), float64(m.timelineRows()))
	axis.SetOffset(float64(m.trackLeft()), float64(m.rulerRow()+1))

	listW, detailW := m.paneWidths()
	inner := max(m.bottomHeight()-2, 1)
	m.list.SetSize(max(listW-2, 1), inner)
	m.detail.Width = max(detailW-2, 1)
	m.detail.Height = inner
	m.helpView.Width = m.width
	m.helpView.Height = max(m.height-headerHeight-footerHeight, 1)
	m.help.Width = m.width

	if m.md == nil || m.mdWidth != m.detail.Width {
		m.md = newMarkdownRenderer(m.detail.Width)
		m.mdWidth = m.detail.Width
	}
	m.ensureLaneVisible()
	m.feeds.detailStale = true
}

// bodyHeight is the height between header and footer.
func (m *Model) bodyHeight() int {
	return max(m.height-headerHeight-footerHeight, 2)
}

// timelineHeight includes the ruler row.
func (m *Model) timelineHeight() int {
	body := m.bodyHeight()
	h := int(float64(body) * m.cfg.UI.SplitRatio)
	if body-h < 4 {
		// too little room for the panes below; give it all to the lanes
		return body
	}
	return max(h, 2)
}

func (m *Model) bottomHeight() int {
	return m.bodyHeight() - m.timelineHeight()
}

func (m *Model) paneWidths() (left, right int) {
	left = m.width * 11 / 20
	return left, m.width - left
}

// syncViews rebuilds the list and detail content after document changes.
func (m *Model) syncViews() tea.Cmd {
	var cmd tea.Cmd
	if n := len(m.lanes()); m.curLane >= n {
		m.curLane = max(n-1, 0)
	}
	if m.feeds.listStale {
		cmd = m.list.SetItems(m.annotationItems())
		m.feeds.listStale = false
	}
	if m.feeds.detailStale {
		m.detail.SetContent(m.renderMarkdown(m.detailMarkdown()))
		m.feeds.detailStale = false
	}
	return cmd
}

// playhead returns the clock position in document time.
func (m *Model) playhead() float64 {
	start, _ := m.a.Axis().Domain()
	return start + m.clock.Position()
}

// frameAt returns the frame number of document time t.
func (m *Model) frameAt(t float64) int {
	start, _ := m.a.Axis().Domain()
	return m.clock.Frame(t - start)
}

func (m *Model) seekTo(t float64) {
	start, _ := m.a.Axis().Domain()
	m.clock.Seek(t - start)
	m.ensureVisible(m.playhead())
}

func (m *Model) ensureVisible(t float64) {
	lo, hi := m.a.Axis().VisibleRange()
	if t < lo || t > hi {
		m.a.Axis().CenterOn(t)
	}
}

func (m *Model) followPlayhead() {
	if m.follow {
		m.ensureVisible(m.playhead())
	}
}

func (m *Model) ensureLaneVisible() {
	rows := m.timelineRows()
	if m.curLane < m.laneOffset {
		m.laneOffset = m.curLane
	}
	if m.curLane >= m.laneOffset+rows {
		m.laneOffset = m.curLane - rows + 1
	}
	m.laneOffset = max(m.laneOffset, 0)
}

// currentChannel returns the channel of the current lane.
func (m *Model) currentChannel() (model.Channel, bool) {
	lanes := m.lanes()
	if m.curLane < 0 || m.curLane >= len(lanes) {
		return model.Channel{}, false
	}
	return lanes[m.curLane].Channel, true
}

// focusChannel moves the lane cursor onto channel id.
func (m *Model) focusChannel(id model.ChannelID) {
	for i, ln := range m.lanes() {
		if ln.Channel.ID == id {
			m.curLane = i
			m.ensureLaneVisible()
			return
		}
	}
}

func (m *Model) setStatus(format string, args ...any) {
	m.statusMsg = fmt.Sprintf(format, args...)
	m.statusIsError = false
}

func (m *Model) setError(format string, args ...any) {
	m.statusMsg = fmt.Sprintf(format, args...)
	m.statusIsError = true
}
