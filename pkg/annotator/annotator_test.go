package annotator

import (
	"math"
	"slices"
	"testing"

	"github.com/vanderheijden86/tracklane/pkg/events"
	"github.com/vanderheijden86/tracklane/pkg/model"
	"pgregory.net/rapid"
)

type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

func snapshot(t fataler, a *Annotator) string {
	t.Helper()
	data, err := model.MarshalState(a.State())
	if err != nil {
		t.Fatalf("MarshalState: %v", err)
	}
	return string(data)
}

func mustChannel(t *testing.T, a *Annotator, name string, parent model.ChannelID) model.Channel {
	t.Helper()
	ch, ok := a.CreateChannel(name, parent, nil)
	if !ok {
		t.Fatalf("CreateChannel(%q) rejected", name)
	}
	return ch
}

func mustAnnotation(t *testing.T, a *Annotator, ch model.ChannelID, value string, start, end float64) model.Annotation {
	t.Helper()
	ann, ok := a.CreateAnnotation(model.Annotation{ChannelID: ch, Kind: model.KindInterval, Value: value, Start: start, End: end})
	if !ok {
		t.Fatalf("CreateAnnotation(%q) rejected", value)
	}
	return ann
}

func TestDeleteAllRootChannels(t *testing.T) {
	a := New()
	root := mustChannel(t, a, "match", model.NoChannel)
	home := mustChannel(t, a, "home", root.ID)
	mustChannel(t, a, "away", root.ID)
	mustChannel(t, a, "referee", root.ID)
	attack := mustChannel(t, a, "attack", home.ID)
	mustChannel(t, a, "defence", home.ID)
	mustAnnotation(t, a, attack.ID, "pass", 100, 200)
	mustAnnotation(t, a, root.ID, "kickoff", 0, 10)

	if a.NumChannels() != 6 {
		t.Fatalf("expected 6 channels, got %d", a.NumChannels())
	}
	for _, id := range a.RootChannels() {
		if !a.DeleteChannel(id) {
			t.Fatalf("DeleteChannel(%d) rejected", id)
		}
	}
	if a.NumChannels() != 0 {
		t.Errorf("expected 0 channels, got %d", a.NumChannels())
	}
	if a.NumAnnotations() != 0 {
		t.Errorf("expected 0 annotations, got %d", a.NumAnnotations())
	}
}

func TestDeleteChannelUndoRestoresSubtree(t *testing.T) {
	a := New()
	root := mustChannel(t, a, "root", model.NoChannel)
	first := mustChannel(t, a, "first", root.ID)
	mid := mustChannel(t, a, "mid", root.ID)
	mustChannel(t, a, "last", root.ID)
	leaf := mustChannel(t, a, "leaf", mid.ID)
	mustAnnotation(t, a, leaf.ID, "x", 10, 20)
	mustAnnotation(t, a, mid.ID, "y", 30, 40)
	mustAnnotation(t, a, first.ID, "z", 50, 60)

	before := snapshot(t, a)
	undoDepth := a.History().State().UndoLen

	a.DeleteChannel(mid.ID)
	if a.NumChannels() != 3 || a.NumAnnotations() != 1 {
		t.Fatalf("after delete: %d channels, %d annotations", a.NumChannels(), a.NumAnnotations())
	}
	if got := a.History().State().UndoLen; got != undoDepth+1 {
		t.Errorf("expected one history entry for the delete, got %d new", got-undoDepth)
	}

	a.Undo()
	if got := snapshot(t, a); got != before {
		t.Errorf("undo did not restore the subtree:\n got %s\nwant %s", got, before)
	}
	a.Redo()
	if a.NumChannels() != 3 || a.NumAnnotations() != 1 {
		t.Errorf("after redo: %d channels, %d annotations", a.NumChannels(), a.NumAnnotations())
	}
}

func TestDeleteRootWithSiblingsUndo(t *testing.T) {
	a := New()
	root := mustChannel(t, a, "root", model.NoChannel)
	for _, name := range []string{"a", "b", "c"} {
		mustChannel(t, a, name, root.ID)
	}
	want := a.ChildChannels(root.ID)

	a.DeleteChannel(root.ID)
	a.Undo()
	if got := a.ChildChannels(root.ID); !slices.Equal(got, want) {
		t.Errorf("children after undo = %v, want %v", got, want)
	}
}

func TestCreateAnnotationValidation(t *testing.T) {
	a := New()
	ch, _ := a.CreateChannel("passes", model.NoChannel, []string{"pass"})

	tests := []struct {
		name  string
		draft model.Annotation
		ok    bool
	}{
		{"allowed value", model.Annotation{ChannelID: ch.ID, Value: "pass"}, true},
		{"disallowed value", model.Annotation{ChannelID: ch.ID, Value: "shot"}, false},
		{"missing channel", model.Annotation{ChannelID: 42, Value: "pass"}, false},
		{"unknown kind", model.Annotation{ChannelID: ch.ID, Kind: "blob", Value: "pass"}, false},
		{"NaN start", model.Annotation{ChannelID: ch.ID, Value: "pass", Start: math.NaN(), End: 10}, false},
		{"infinite end", model.Annotation{ChannelID: ch.ID, Value: "pass", End: math.Inf(1)}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			depth := a.History().State().UndoLen
			_, ok := a.CreateAnnotation(tc.draft)
			if ok != tc.ok {
				t.Fatalf("CreateAnnotation ok = %v, want %v", ok, tc.ok)
			}
			grew := a.History().State().UndoLen - depth
			if tc.ok && grew != 1 || !tc.ok && grew != 0 {
				t.Errorf("history grew by %d", grew)
			}
		})
	}
}

func TestCreateAnnotationUndoDeselects(t *testing.T) {
	a := New()
	ch := mustChannel(t, a, "c", model.NoChannel)
	ann := mustAnnotation(t, a, ch.ID, "v", 0, 10)
	a.Select(ann.ID)
	a.Hover(ann.ID)

	a.Undo()
	if a.IsSelected(ann.ID) || a.Hovered() != model.NoAnnotation {
		t.Error("undone annotation is still selected or hovered")
	}
	if _, ok := a.Annotation(ann.ID); ok {
		t.Error("undone annotation still stored")
	}
	a.Redo()
	got, ok := a.Annotation(ann.ID)
	if !ok || !got.Equal(ann) {
		t.Errorf("redo recreated %+v, want %+v", got, ann)
	}
}

func TestUpdateAnnotation(t *testing.T) {
	a := New()
	ch := mustChannel(t, a, "c", model.NoChannel)
	other := mustChannel(t, a, "d", model.NoChannel)
	ann := mustAnnotation(t, a, ch.ID, "v", 0, 10)

	next := ann.Clone()
	next.Value = "w"
	next.ChannelID = other.ID
	next.Modifiers = []model.Modifier{{Key: "k", Value: "1"}}
	if !a.UpdateAnnotation(next, ann) {
		t.Fatal("UpdateAnnotation rejected")
	}
	if got := a.AnnotationsIn(other.ID); len(got) != 1 || got[0].Value != "w" {
		t.Errorf("annotation not moved to channel d: %+v", got)
	}

	a.Undo()
	got, _ := a.Annotation(ann.ID)
	if !got.Equal(ann) {
		t.Errorf("undo restored %+v, want %+v", got, ann)
	}
	if len(a.AnnotationsIn(other.ID)) != 0 {
		t.Error("undo left the annotation on channel d")
	}

	mismatched := next.Clone()
	mismatched.ID = 99
	if a.UpdateAnnotation(mismatched, ann) {
		t.Error("update with mismatched ids accepted")
	}
}

func TestPreviewThenCommit(t *testing.T) {
	a := New()
	ch := mustChannel(t, a, "c", model.NoChannel)
	ann := mustAnnotation(t, a, ch.ID, "v", 0, 10)
	depth := a.History().State().UndoLen

	moved := ann.Clone()
	for i := 1; i <= 5; i++ {
		moved.Start, moved.End = float64(i*10), float64(i*10+10)
		a.Bulk().Preview(moved)
	}
	if a.History().State().UndoLen != depth {
		t.Fatal("Preview recorded history")
	}
	a.UpdateAnnotation(moved, ann)
	a.Undo()
	got, _ := a.Annotation(ann.ID)
	if got.Start != 0 || got.End != 10 {
		t.Errorf("undo after drag restored %v-%v, want 0-10", got.Start, got.End)
	}
}

func TestRedoInvalidation(t *testing.T) {
	a := New()
	ch := mustChannel(t, a, "c", model.NoChannel)
	mustAnnotation(t, a, ch.ID, "v", 0, 10)
	a.Undo()
	mustAnnotation(t, a, ch.ID, "w", 5, 6)
	if a.Redo() {
		t.Error("redo succeeded after a new edit")
	}
}

func TestSelectionIsNotRecorded(t *testing.T) {
	a := New()
	ch := mustChannel(t, a, "c", model.NoChannel)
	x := mustAnnotation(t, a, ch.ID, "x", 0, 10)
	y := mustAnnotation(t, a, ch.ID, "y", 20, 30)
	depth := a.History().State().UndoLen

	a.Select(x.ID)
	a.SelectOnly(y.ID)
	a.Hover(x.ID)
	if a.History().State().UndoLen != depth {
		t.Error("selection changed the history")
	}
	if !slices.Equal(a.Selected(), []model.AnnotationID{y.ID}) {
		t.Errorf("Selected = %v", a.Selected())
	}
	if a.Select(99) || a.Hover(99) {
		t.Error("selecting a missing annotation succeeded")
	}
	if !a.Dirty() {
		t.Error("expected unsaved edits")
	}
}

func TestEventsFollowUndo(t *testing.T) {
	a := New()
	var got []string
	a.Channels.Subscribe(func(e events.ChannelEvent) { got = append(got, "channel "+e.Op.String()) })
	a.Annotations.Subscribe(func(e events.AnnotationEvent) { got = append(got, "annotation "+e.Op.String()) })

	ch := mustChannel(t, a, "c", model.NoChannel)
	mustAnnotation(t, a, ch.ID, "v", 0, 1)
	a.Undo()
	a.Undo()
	a.Redo()

	want := []string{
		"channel created",
		"annotation created",
		"annotation deleted",
		"channel deleted",
		"channel created",
	}
	if !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestRenameChannel(t *testing.T) {
	a := New()
	ch := mustChannel(t, a, "old", model.NoChannel)
	if !a.RenameChannel(ch.ID, "new") {
		t.Fatal("rename rejected")
	}
	got, _ := a.Channel(ch.ID)
	if got.Name != "new" {
		t.Errorf("Name = %q", got.Name)
	}
	a.Undo()
	got, _ = a.Channel(ch.ID)
	if got.Name != "old" {
		t.Errorf("Name after undo = %q", got.Name)
	}
	if a.RenameChannel(42, "x") {
		t.Error("renaming a missing channel succeeded")
	}
}

func TestRestrictChannel(t *testing.T) {
	a := New()
	ch := mustChannel(t, a, "c", model.NoChannel)
	a.RestrictChannel(ch.ID, []string{"pass"})
	if _, ok := a.CreateAnnotation(model.Annotation{ChannelID: ch.ID, Value: "shot"}); ok {
		t.Error("restricted channel accepted a disallowed value")
	}
	a.Undo()
	if _, ok := a.CreateAnnotation(model.Annotation{ChannelID: ch.ID, Value: "shot"}); !ok {
		t.Error("undoing the restriction did not lift it")
	}
}

// TestUndoRedoRoundTrip runs random create/update/delete sequences, undoes
// everything and redoes everything; the document must end where it was.
func TestUndoRedoRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := New()
		chans := []model.ChannelID{}
		for i := 0; i < 3; i++ {
			ch, _ := a.CreateChannel("c", model.NoChannel, nil)
			chans = append(chans, ch.ID)
		}
		a.History().Clear()
		start := snapshot(t, a)

		n := rapid.IntRange(1, 40).Draw(t, "n")
		applied := 0
		for i := 0; i < n; i++ {
			live := a.AllAnnotations()
			op := rapid.IntRange(0, 2).Draw(t, "op")
			switch {
			case op == 0 || len(live) == 0:
				s := float64(rapid.IntRange(0, 1000).Draw(t, "start"))
				ch := rapid.SampledFrom(chans).Draw(t, "channel")
				if _, ok := a.CreateAnnotation(model.Annotation{ChannelID: ch, Value: "v", Start: s, End: s + 10}); ok {
					applied++
				}
			case op == 1:
				target := rapid.SampledFrom(live).Draw(t, "target")
				next := target.Clone()
				next.Start += float64(rapid.IntRange(-50, 50).Draw(t, "shift"))
				next.End = next.Start + 5
				next.ChannelID = rapid.SampledFrom(chans).Draw(t, "moveTo")
				if a.EditAnnotation(next) && !next.Normalized().Equal(target) {
					applied++
				}
			default:
				target := rapid.SampledFrom(live).Draw(t, "victim")
				if a.DeleteAnnotation(target.ID) {
					applied++
				}
			}
		}
		final := snapshot(t, a)
		if got := a.History().State().UndoLen; got != applied {
			t.Fatalf("expected %d history entries, got %d", applied, got)
		}

		for i := 0; i < applied; i++ {
			a.Undo()
		}
		if got := snapshot(t, a); got != start {
			t.Fatalf("undoing everything did not restore the start state")
		}
		for i := 0; i < applied; i++ {
			a.Redo()
		}
		if got := snapshot(t, a); got != final {
			t.Fatalf("redoing everything did not reproduce the final state")
		}
	})
}

func TestBatchCreateReassignsOnlyDuplicates(t *testing.T) {
	a := New()
	ch := mustChannel(t, a, "events", model.NoChannel)

	stored := a.Bulk().BatchCreateAnnotations([]model.Annotation{
		{ID: 0, ChannelID: ch.ID, Kind: model.KindInstant, Value: "first"},
		{ID: 0, ChannelID: ch.ID, Kind: model.KindInstant, Value: "dup"},
		{ID: 1, ChannelID: ch.ID, Kind: model.KindInstant, Value: "own"},
	})
	if len(stored) != 3 {
		t.Fatalf("stored %d annotations, want 3", len(stored))
	}

	want := map[string]model.AnnotationID{"first": 0, "own": 1}
	for _, ann := range stored {
		if id, ok := want[ann.Value]; ok && ann.ID != id {
			t.Errorf("%q renumbered to %d, want %d", ann.Value, ann.ID, id)
		}
		if ann.Value == "dup" && (ann.ID == 0 || ann.ID == 1) {
			t.Errorf("duplicate took a claimed id %d", ann.ID)
		}
	}
	if a.NumAnnotations() != 3 {
		t.Errorf("NumAnnotations = %d, want 3", a.NumAnnotations())
	}
}

func TestBatchCreateIgnoresNonFiniteModifiers(t *testing.T) {
	a := New()
	ch := mustChannel(t, a, "events", model.NoChannel)

	anns := []model.Annotation{
		{ID: 0, ChannelID: ch.ID, Kind: model.KindInterval, Value: "long", Start: 0, End: 1000},
		{ID: 1, ChannelID: ch.ID, Kind: model.KindInterval, Value: "nan", Start: 10, End: 20,
			Modifiers: []model.Modifier{{Key: "endTime", Value: "NaN"}}},
		{ID: 2, ChannelID: ch.ID, Kind: model.KindInterval, Value: "inf", Start: 30, End: 40,
			Modifiers: []model.Modifier{{Key: "startTime", Value: "Inf"}}},
	}
	for i := 3; i < 12; i++ {
		anns = append(anns, model.Annotation{
			ID: model.AnnotationID(i), ChannelID: ch.ID, Kind: model.KindInterval,
			Value: "short", Start: float64(i * 100), End: float64(i*100 + 5),
		})
	}
	a.Bulk().BatchCreateAnnotations(anns)

	for _, id := range []model.AnnotationID{1, 2} {
		ann, ok := a.Annotation(id)
		if !ok || !ann.Finite() {
			t.Errorf("annotation %d: %+v, ok=%v", id, ann, ok)
		}
	}
	found := false
	for _, ann := range a.store.Search(500, 600) {
		if ann.ID == 0 {
			found = true
		}
	}
	if !found {
		t.Error("index lost the long interval covering [500, 600]")
	}
	snapshot(t, a)
}

func TestPreviewRejectsNonFinite(t *testing.T) {
	a := New()
	ch := mustChannel(t, a, "events", model.NoChannel)
	ann := mustAnnotation(t, a, ch.ID, "x", 0, 100)

	next := ann.Clone()
	next.End = math.Inf(1)
	if a.Bulk().Preview(next) {
		t.Fatal("Preview accepted an infinite end")
	}
	if got, _ := a.Annotation(ann.ID); got.End != 100 {
		t.Errorf("rejected preview changed End to %v", got.End)
	}
}
