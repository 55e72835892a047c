package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/vanderheijden86/tracklane/pkg/config"
)

// keyMap holds every binding of the editor. Undo and redo come from the
// config file; the rest are fixed.
type keyMap struct {
	Quit        key.Binding
	Help        key.Binding
	Focus       key.Binding
	Undo        key.Binding
	Redo        key.Binding
	Save        key.Binding
	Play        key.Binding
	SeekBack    key.Binding
	SeekFwd     key.Binding
	FrameBack   key.Binding
	FrameFwd    key.Binding
	LaneUp      key.Binding
	LaneDown    key.Binding
	ZoomIn      key.Binding
	ZoomOut     key.Binding
	ZoomReset   key.Binding
	PanLeft     key.Binding
	PanRight    key.Binding
	MarkIn      key.Binding
	MarkOut     key.Binding
	Instant     key.Binding
	NextAnn     key.Binding
	PrevAnn     key.Binding
	Edit        key.Binding
	Delete      key.Binding
	Copy        key.Binding
	Deselect    key.Binding
	NewChannel  key.Binding
	NewRoot     key.Binding
	Rename      key.Binding
	DelChannel  key.Binding
	Restrict    key.Binding
	ToggleKind  key.Binding
	ToggleTrack key.Binding
}

func newKeyMap(cfg config.KeysConfig) keyMap {
	undo := cfg.Undo
	if len(undo) == 0 {
		undo = config.DefaultConfig().Keys.Undo
	}
	redo := cfg.Redo
	if len(redo) == 0 {
		redo = config.DefaultConfig().Keys.Redo
	}
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Focus:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "timeline/list")),
		Undo:        key.NewBinding(key.WithKeys(undo...), key.WithHelp(undo[0], "undo")),
		Redo:        key.NewBinding(key.WithKeys(redo...), key.WithHelp(redo[0], "redo")),
		Save:        key.NewBinding(key.WithKeys("ctrl+s", "w"), key.WithHelp("w", "save")),
		Play:        key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		SeekBack:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "back 1s")),
		SeekFwd:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "fwd 1s")),
		FrameBack:   key.NewBinding(key.WithKeys(","), key.WithHelp(",", "prev frame")),
		FrameFwd:    key.NewBinding(key.WithKeys("."), key.WithHelp(".", "next frame")),
		LaneUp:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "lane up")),
		LaneDown:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "lane down")),
		ZoomIn:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
		ZoomReset:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "fit")),
		PanLeft:     key.NewBinding(key.WithKeys("["), key.WithHelp("[", "pan left")),
		PanRight:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "pan right")),
		MarkIn:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "mark in")),
		MarkOut:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "mark out")),
		Instant:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "instant")),
		NextAnn:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		PrevAnn:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		Edit:        key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit value")),
		Delete:      key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy json")),
		Deselect:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "deselect")),
		NewChannel:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "add sub-channel")),
		NewRoot:     key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "add channel")),
		Rename:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename channel")),
		DelChannel:  key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "delete channel")),
		Restrict:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "allowed values")),
		ToggleKind:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "cycle kind")),
		ToggleTrack: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "follow playhead")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.MarkIn, k.MarkOut, k.Instant, k.Edit, k.Undo, k.Redo, k.Save, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.SeekBack, k.SeekFwd, k.FrameBack, k.FrameFwd, k.ToggleTrack},
		{k.LaneUp, k.LaneDown, k.ZoomIn, k.ZoomOut, k.ZoomReset, k.PanLeft, k.PanRight},
		{k.MarkIn, k.MarkOut, k.Instant, k.NextAnn, k.PrevAnn, k.Edit, k.ToggleKind, k.Delete, k.Copy, k.Deselect},
		{k.NewChannel, k.NewRoot, k.Rename, k.Restrict, k.DelChannel},
		{k.Undo, k.Redo, k.Save, k.Focus, k.Help, k.Quit},
	}
}
