package history

import (
	"slices"
	"testing"

	"pgregory.net/rapid"
)

// counter builds commands that add n to a shared total.
type counter struct {
	total int
}

func (c *counter) add(n int) Command {
	return Command{
		Label: "add",
		Do:    func() { c.total += n },
		Undo:  func() { c.total -= n },
	}
}

func TestUndoRedoEmptyStacks(t *testing.T) {
	h := New()
	if h.Undo() {
		t.Error("Undo on empty history reported true")
	}
	if h.Redo() {
		t.Error("Redo on empty history reported true")
	}
}

func TestDoUndoRedo(t *testing.T) {
	c := &counter{}
	h := New()
	h.Do(c.add(2))
	h.Do(c.add(3))
	if c.total != 5 {
		t.Fatalf("expected total 5, got %d", c.total)
	}
	h.Undo()
	if c.total != 2 {
		t.Errorf("expected total 2 after undo, got %d", c.total)
	}
	h.Redo()
	if c.total != 5 {
		t.Errorf("expected total 5 after redo, got %d", c.total)
	}
}

func TestNewCommandClearsRedo(t *testing.T) {
	c := &counter{}
	h := New()
	h.Do(c.add(1))
	h.Undo()
	h.Do(c.add(10))
	if h.CanRedo() {
		t.Error("redo stack survived a new command")
	}
	if h.Redo() {
		t.Error("Redo after a new command reported true")
	}
	if c.total != 10 {
		t.Errorf("expected total 10, got %d", c.total)
	}
}

func TestSilentDoDoesNotExecute(t *testing.T) {
	c := &counter{}
	h := New()
	h.SilentDo(c.add(4))
	if c.total != 0 {
		t.Fatalf("SilentDo executed the command: total %d", c.total)
	}
	h.Undo()
	if c.total != -4 {
		t.Errorf("expected undo of silent command to run, got %d", c.total)
	}
}

func TestGroupUndoesInReverse(t *testing.T) {
	var log []string
	step := func(name string) Command {
		return Command{
			Label: name,
			Do:    func() { log = append(log, "do "+name) },
			Undo:  func() { log = append(log, "undo "+name) },
		}
	}

	h := New()
	h.Begin("outer")
	h.Do(step("a"))
	h.Begin("inner")
	h.Do(step("b"))
	h.End()
	h.Do(step("c"))
	if h.CanUndo() {
		t.Error("undo allowed while a group is open")
	}
	h.End()

	if got := h.State().UndoLen; got != 1 {
		t.Fatalf("expected one composite entry, got %d", got)
	}
	if h.UndoLabel() != "outer" {
		t.Errorf("expected label outer, got %q", h.UndoLabel())
	}

	log = nil
	h.Undo()
	if want := []string{"undo c", "undo b", "undo a"}; !slices.Equal(log, want) {
		t.Errorf("undo order = %v, want %v", log, want)
	}
	log = nil
	h.Redo()
	if want := []string{"do a", "do b", "do c"}; !slices.Equal(log, want) {
		t.Errorf("redo order = %v, want %v", log, want)
	}
}

func TestEmptyGroupRecordsNothing(t *testing.T) {
	h := New()
	h.Begin("noop")
	h.End()
	if h.CanUndo() {
		t.Error("empty group was recorded")
	}
	h.End() // unmatched End is ignored
}

func TestRollback(t *testing.T) {
	c := &counter{}
	h := New()
	h.Do(c.add(1))
	h.Begin("batch")
	h.Do(c.add(5))
	h.Do(c.add(7))
	h.Rollback()

	if c.total != 1 {
		t.Errorf("expected rollback to restore total 1, got %d", c.total)
	}
	if h.State().UndoLen != 1 {
		t.Errorf("rollback left entries behind: %d", h.State().UndoLen)
	}
}

func TestWithLimit(t *testing.T) {
	c := &counter{}
	h := New(WithLimit(2))
	for i := 1; i <= 4; i++ {
		h.Do(c.add(i))
	}
	if h.State().UndoLen != 2 {
		t.Fatalf("expected 2 entries, got %d", h.State().UndoLen)
	}
	h.Undo()
	h.Undo()
	if h.Undo() {
		t.Error("undo past the limit succeeded")
	}
	if c.total != 3 {
		t.Errorf("expected total 3 (1+2 kept), got %d", c.total)
	}
}

func TestListenerAndDirty(t *testing.T) {
	var states []State
	c := &counter{}
	h := New(WithListener(func(s State) { states = append(states, s) }))

	h.Do(c.add(1))
	if !h.Dirty() {
		t.Error("expected dirty after an edit")
	}
	h.MarkSaved()
	if h.Dirty() {
		t.Error("expected clean after MarkSaved")
	}
	h.Undo()
	if !h.Dirty() {
		t.Error("expected dirty after undoing past the save point")
	}
	h.Redo()
	if h.Dirty() {
		t.Error("expected clean after redoing back to the save point")
	}

	if len(states) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(states))
	}
	if last := states[len(states)-1]; last.UndoLen != 1 || last.RedoLen != 0 {
		t.Errorf("unexpected final state %+v", last)
	}
}

func TestClear(t *testing.T) {
	c := &counter{}
	h := New()
	h.Do(c.add(1))
	h.Undo()
	h.Clear()
	if h.CanUndo() || h.CanRedo() || h.Dirty() {
		t.Errorf("Clear left state behind: %+v", h.State())
	}
}

// TestRoundTrip applies random commands, undoes them all and redoes them
// all; the result must match the state after the original run.
func TestRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var values []int
		h := New()
		n := rapid.IntRange(1, 50).Draw(t, "n")
		for i := 0; i < n; i++ {
			v := rapid.IntRange(-100, 100).Draw(t, "v")
			before := slices.Clone(values)
			after := append(slices.Clone(values), v)
			h.Do(Command{
				Label: "append",
				Do:    func() { values = slices.Clone(after) },
				Undo:  func() { values = slices.Clone(before) },
			})
		}
		final := slices.Clone(values)

		for i := 0; i < n; i++ {
			if !h.Undo() {
				t.Fatalf("undo %d failed", i)
			}
		}
		if len(values) != 0 {
			t.Fatalf("expected empty after undoing all, got %v", values)
		}
		for i := 0; i < n; i++ {
			if !h.Redo() {
				t.Fatalf("redo %d failed", i)
			}
		}
		if !slices.Equal(values, final) {
			t.Fatalf("redo produced %v, want %v", values, final)
		}
	})
}

func TestRollbackNotifies(t *testing.T) {
	var states []State
	c := &counter{}
	h := New(WithListener(func(s State) { states = append(states, s) }))
	h.Begin("batch")
	h.Do(c.add(2))
	before := len(states)
	h.Rollback()

	if len(states) != before+1 {
		t.Fatalf("rollback sent %d notifications, want 1", len(states)-before)
	}
	if last := states[len(states)-1]; last.UndoLen != 0 || last.Dirty {
		t.Errorf("state after rollback = %+v", last)
	}
}
