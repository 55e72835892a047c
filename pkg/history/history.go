// Package history records reversible commands and replays them for undo and
// redo.
//
// A Command is a pair of closures. Whatever state they need must be
// captured as a snapshot when the command is built; the history never copies
// anything itself.
//
// Commands issued between Begin and End are executed immediately and folded
// into a single composite entry when the outermost End runs:
//
//	h.Begin("delete channel")
//	for _, step := range steps {
//	    h.Do(step)
//	}
//	h.End()
//	h.Undo() // reverts every step, last first
package history

import (
	"github.com/vanderheijden86/tracklane/pkg/metrics"
)

// Command is one reversible operation.
type Command struct {
	Label string
	Do    func()
	Undo  func()
}

func (c Command) apply() {
	if c.Do != nil {
		c.Do()
	}
}

func (c Command) revert() {
	if c.Undo != nil {
		c.Undo()
	}
}

// State summarises the stacks for status displays.
type State struct {
	UndoLen   int
	RedoLen   int
	UndoLabel string
	RedoLabel string
	Dirty     bool
}

type entry struct {
	cmd Command
	seq uint64
}

type group struct {
	label string
	steps []Command
}

// History holds the undo and redo stacks. It is not safe for concurrent
// use; every call is expected from the UI event loop.
type History struct {
	undo      []entry
	redo      []entry
	groups    []*group
	limit     int
	listeners []func(State)
	seq       uint64
	saved     uint64
}

// Option configures a History.
type Option func(*History)

// WithLimit caps the undo stack at n entries, dropping the oldest. Zero
// means unlimited.
func WithLimit(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.limit = n
		}
	}
}

// WithListener registers fn to receive the stack state after every change.
func WithListener(fn func(State)) Option {
	return func(h *History) {
		if fn != nil {
			h.listeners = append(h.listeners, fn)
		}
	}
}

// New returns an empty history.
func New(opts ...Option) *History {
	h := &History{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnChange registers an additional listener.
func (h *History) OnChange(fn func(State)) {
	if fn != nil {
		h.listeners = append(h.listeners, fn)
	}
}

// Do executes cmd and records it. Outside a group the redo stack is
// cleared.
func (h *History) Do(cmd Command) {
	defer metrics.Timer(metrics.HistoryApply)()
	cmd.apply()
	h.record(cmd)
}

// SilentDo records cmd without executing it, for edits the caller has
// already applied.
func (h *History) SilentDo(cmd Command) {
	h.record(cmd)
}

func (h *History) record(cmd Command) {
	if g := h.currentGroup(); g != nil {
		g.steps = append(g.steps, cmd)
		return
	}
	h.push(cmd)
}

func (h *History) push(cmd Command) {
	metrics.CommandsRecorded.Inc()
	h.seq++
	h.undo = append(h.undo, entry{cmd: cmd, seq: h.seq})
	h.redo = nil
	if h.limit > 0 && len(h.undo) > h.limit {
		drop := len(h.undo) - h.limit
		clear(h.undo[:drop])
		h.undo = h.undo[drop:]
	}
	h.notify()
}

// Undo reverts the newest entry. It reports false when there is nothing to
// undo or a group is open.
func (h *History) Undo() bool {
	if len(h.undo) == 0 || len(h.groups) > 0 {
		return false
	}
	defer metrics.Timer(metrics.HistoryApply)()
	e := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	e.cmd.revert()
	h.redo = append(h.redo, e)
	metrics.Undos.Inc()
	h.notify()
	return true
}

// Redo re-applies the newest undone entry.
func (h *History) Redo() bool {
	if len(h.redo) == 0 || len(h.groups) > 0 {
		return false
	}
	defer metrics.Timer(metrics.HistoryApply)()
	e := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	e.cmd.apply()
	h.undo = append(h.undo, e)
	metrics.Redos.Inc()
	h.notify()
	return true
}

// Begin opens a group. Groups nest; only the outermost End records.
func (h *History) Begin(label string) {
	h.groups = append(h.groups, &group{label: label})
}

// End closes the innermost group. Closing the outermost group records its
// steps as one entry; an empty group records nothing. End without Begin is
// a no-op.
func (h *History) End() {
	n := len(h.groups)
	if n == 0 {
		return
	}
	g := h.groups[n-1]
	h.groups = h.groups[:n-1]
	if len(g.steps) == 0 {
		return
	}
	if parent := h.currentGroup(); parent != nil {
		parent.steps = append(parent.steps, g.steps...)
		return
	}
	h.push(composite(g.label, g.steps))
}

// Rollback reverts the steps of the innermost group, newest first, and
// discards it.
func (h *History) Rollback() {
	n := len(h.groups)
	if n == 0 {
		return
	}
	g := h.groups[n-1]
	h.groups = h.groups[:n-1]
	for i := len(g.steps) - 1; i >= 0; i-- {
		g.steps[i].revert()
	}
	h.notify()
}

// InGroup reports whether a group is open.
func (h *History) InGroup() bool {
	return len(h.groups) > 0
}

func (h *History) currentGroup() *group {
	if len(h.groups) == 0 {
		return nil
	}
	return h.groups[len(h.groups)-1]
}

func composite(label string, steps []Command) Command {
	if len(steps) == 1 && steps[0].Label == label {
		return steps[0]
	}
	return Command{
		Label: label,
		Do: func() {
			for _, s := range steps {
				s.apply()
			}
		},
		Undo: func() {
			for i := len(steps) - 1; i >= 0; i-- {
				steps[i].revert()
			}
		},
	}
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool { return len(h.undo) > 0 && len(h.groups) == 0 }

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool { return len(h.redo) > 0 && len(h.groups) == 0 }

// UndoLabel returns the label of the entry Undo would revert.
func (h *History) UndoLabel() string {
	if len(h.undo) == 0 {
		return ""
	}
	return h.undo[len(h.undo)-1].cmd.Label
}

// RedoLabel returns the label of the entry Redo would apply.
func (h *History) RedoLabel() string {
	if len(h.redo) == 0 {
		return ""
	}
	return h.redo[len(h.redo)-1].cmd.Label
}

// Clear empties both stacks and any open group. The cleared state counts
// as saved.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
	h.groups = nil
	h.saved = 0
	h.seq = 0
	h.notify()
}

// MarkSaved records the current position as the saved one.
func (h *History) MarkSaved() {
	h.saved = h.top()
	h.notify()
}

// Dirty reports whether the stacks moved since the last MarkSaved or Clear.
func (h *History) Dirty() bool {
	return h.top() != h.saved
}

func (h *History) top() uint64 {
	if len(h.undo) == 0 {
		return 0
	}
	return h.undo[len(h.undo)-1].seq
}

// State returns the current stack summary.
func (h *History) State() State {
	return State{
		UndoLen:   len(h.undo),
		RedoLen:   len(h.redo),
		UndoLabel: h.UndoLabel(),
		RedoLabel: h.RedoLabel(),
		Dirty:     h.Dirty(),
	}
}

func (h *History) notify() {
	if len(h.listeners) == 0 {
		return
	}
	s := h.State()
	for _, fn := range h.listeners {
		fn(s)
	}
}
