package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"

	"github.com/vanderheijden86/tracklane/pkg/debug"
	"github.com/vanderheijden86/tracklane/pkg/loader"
	"github.com/vanderheijden86/tracklane/pkg/model"
	"github.com/vanderheijden86/tracklane/pkg/watcher"
)

// saveIgnoreWindow hides our own writes from the watcher.
const saveIgnoreWindow = time.Second

// clipboardWrite is replaced in tests.
var clipboardWrite = clipboard.WriteAll

// FileChangedMsg is sent when the document changes on disk.
type FileChangedMsg struct {
	Event watcher.Event
}

// StateLoadedMsg carries a document read in the background.
type StateLoadedMsg struct {
	Path  string
	State model.State
	Err   error
}

// WatchFileCmd waits for the next watcher event.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-w.Events()
		if !ok {
			return nil
		}
		return FileChangedMsg{Event: ev}
	}
}

// LoadStateCmd reads path off the UI goroutine.
func LoadStateCmd(path string) tea.Cmd {
	return func() tea.Msg {
		s, err := loader.Load(context.Background(), path)
		return StateLoadedMsg{Path: path, State: s, Err: err}
	}
}

func (m *Model) handleFileChanged(msg FileChangedMsg) tea.Cmd {
	var cmds []tea.Cmd
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	switch msg.Event.Op {
	case watcher.Modified:
		if m.a.Dirty() {
			m.setError("file changed on disk; unsaved edits kept (w saves over it)")
			break
		}
		cmds = append(cmds, LoadStateCmd(m.path))
	case watcher.Removed:
		m.setError("document was removed from disk")
	default:
		if msg.Event.Err != nil {
			m.setError("watch: %v", msg.Event.Err)
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleStateLoaded(msg StateLoadedMsg) {
	if msg.Err != nil {
		m.setError("reload failed: %v", msg.Err)
		return
	}
	if m.a.Dirty() {
		debug.Log("reload of %s dropped: edits made while loading", msg.Path)
		return
	}
	m.applyState(msg.State)
	m.setStatus("reloaded %d channels, %d annotations", m.a.NumChannels(), m.a.NumAnnotations())
}

// applyState replaces the document and re-syncs the view.
func (m *Model) applyState(s model.State) {
	report := m.a.ReadState(s)
	if report.DroppedChannels > 0 || report.SkippedAnnotations > 0 {
		debug.Log("load dropped %d channels, skipped %d annotations",
			report.DroppedChannels, report.SkippedAnnotations)
	}
	start, end := m.a.Axis().Domain()
	m.clock.SetDuration(end - start)
	m.hasMark = false
	m.curLane = min(m.curLane, max(m.a.NumChannels()-1, 0))
	m.laneOffset = 0
	m.feeds.markStale()
}

var errNoSavePath = errors.New("document has no file to save to")

// save writes the document and marks the history clean.
func (m *Model) save() error {
	if m.path == "" || loader.IsRemote(m.path) {
		return errNoSavePath
	}
	if m.watcher != nil {
		m.watcher.IgnoreFor(saveIgnoreWindow)
	}
	if err := model.SaveStateFile(m.path, m.a.State()); err != nil {
		return err
	}
	m.a.MarkSaved()
	return nil
}

// copySelection puts the selected annotations on the clipboard as the
// same JSON objects the document file uses.
func (m *Model) copySelection() (int, error) {
	ids := m.a.Selected()
	if len(ids) == 0 {
		if ann, ok := m.focusAnnotation(); ok {
			ids = []model.AnnotationID{ann.ID}
		}
	}
	if len(ids) == 0 {
		return 0, errors.New("nothing selected")
	}
	out := make([]model.AnnotationState, 0, len(ids))
	for _, id := range ids {
		if ann, ok := m.a.Annotation(id); ok {
			out = append(out, ann.ToState())
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encoding selection: %w", err)
	}
	if err := clipboardWrite(string(data)); err != nil {
		return 0, err
	}
	return len(out), nil
}
