package channels

import (
	"errors"
	"slices"
	"testing"

	"github.com/vanderheijden86/tracklane/pkg/model"
	"pgregory.net/rapid"
)

func mustCreate(t *testing.T, tr *Tree, name string, parent model.ChannelID) model.Channel {
	t.Helper()
	ch, err := tr.Create(name, parent, nil)
	if err != nil {
		t.Fatalf("Create(%q): %v", name, err)
	}
	return ch
}

func TestDeleteAllRoots(t *testing.T) {
	tr := New()
	root := mustCreate(t, tr, "match", model.NoChannel)
	home := mustCreate(t, tr, "home", root.ID)
	mustCreate(t, tr, "away", root.ID)
	mustCreate(t, tr, "referee", root.ID)
	mustCreate(t, tr, "attack", home.ID)
	mustCreate(t, tr, "defence", home.ID)

	if tr.Len() != 6 {
		t.Fatalf("expected 6 channels, got %d", tr.Len())
	}
	for _, r := range tr.Roots() {
		if _, err := tr.Delete(r); err != nil {
			t.Fatalf("Delete(%d): %v", r, err)
		}
	}
	if tr.Len() != 0 {
		t.Errorf("expected 0 channels after deleting every root, got %d", tr.Len())
	}
}

func TestDeleteReturnsLeafToRoot(t *testing.T) {
	tr := New()
	root := mustCreate(t, tr, "root", model.NoChannel)
	a := mustCreate(t, tr, "a", root.ID)
	a1 := mustCreate(t, tr, "a1", a.ID)
	b := mustCreate(t, tr, "b", root.ID)

	removed, err := tr.Delete(root.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var ids []model.ChannelID
	for _, ch := range removed {
		ids = append(ids, ch.ID)
	}
	want := []model.ChannelID{a1.ID, a.ID, b.ID, root.ID}
	if !slices.Equal(ids, want) {
		t.Errorf("removal order = %v, want %v", ids, want)
	}
}

func TestRemoveRestoresSiblingOrder(t *testing.T) {
	tr := New()
	root := mustCreate(t, tr, "root", model.NoChannel)
	a := mustCreate(t, tr, "a", root.ID)
	b := mustCreate(t, tr, "b", root.ID)
	c := mustCreate(t, tr, "c", root.ID)

	r, err := tr.Remove(b.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if r.Index != 1 {
		t.Errorf("expected sibling index 1, got %d", r.Index)
	}
	if err := tr.Insert(r.Channel, r.Index); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	want := []model.ChannelID{a.ID, b.ID, c.ID}
	if got := tr.Children(root.ID); !slices.Equal(got, want) {
		t.Errorf("children = %v, want %v", got, want)
	}
}

func TestRemoveErrors(t *testing.T) {
	tr := New()
	root := mustCreate(t, tr, "root", model.NoChannel)
	leaf := mustCreate(t, tr, "leaf", root.ID)
	if err := tr.Assign(leaf.ID, 42); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	tests := []struct {
		name string
		id   model.ChannelID
		want error
	}{
		{"missing", 99, ErrNotFound},
		{"has children", root.ID, ErrHasChildren},
		{"owns annotations", leaf.ID, ErrNotEmpty},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tr.Remove(tc.id); !errors.Is(err, tc.want) {
				t.Errorf("Remove(%d) error = %v, want %v", tc.id, err, tc.want)
			}
		})
	}
}

func TestInsertErrors(t *testing.T) {
	tr := New()
	root := mustCreate(t, tr, "root", model.NoChannel)

	err := tr.Insert(model.Channel{ID: root.ID, ParentID: model.NoChannel}, -1)
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	err = tr.Insert(model.Channel{ID: 10, ParentID: 7}, -1)
	if !errors.Is(err, ErrParentNotFound) {
		t.Errorf("expected ErrParentNotFound, got %v", err)
	}
	if _, err := tr.Create("orphan", 7, nil); !errors.Is(err, ErrParentNotFound) {
		t.Errorf("expected ErrParentNotFound from Create, got %v", err)
	}
}

func TestInsertObservesIDs(t *testing.T) {
	tr := New()
	if err := tr.Insert(model.Channel{ID: 5, ParentID: model.NoChannel, Name: "loaded"}, -1); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	ch := mustCreate(t, tr, "fresh", model.NoChannel)
	if ch.ID != 6 {
		t.Errorf("expected fresh id 6 after loading id 5, got %d", ch.ID)
	}
}

func TestWalkAndDepth(t *testing.T) {
	tr := New()
	root := mustCreate(t, tr, "root", model.NoChannel)
	a := mustCreate(t, tr, "a", root.ID)
	a1 := mustCreate(t, tr, "a1", a.ID)
	other := mustCreate(t, tr, "other", model.NoChannel)

	var names []string
	tr.Walk(func(ch model.Channel, depth int) bool {
		names = append(names, ch.Name)
		if depth != tr.Depth(ch.ID) {
			t.Errorf("Walk depth %d != Depth %d for %s", depth, tr.Depth(ch.ID), ch.Name)
		}
		return true
	})
	if want := []string{"root", "a", "a1", "other"}; !slices.Equal(names, want) {
		t.Errorf("walk order = %v, want %v", names, want)
	}
	if tr.Depth(a1.ID) != 2 || tr.Depth(other.ID) != 0 || tr.Depth(99) != -1 {
		t.Error("unexpected depths")
	}
}

func TestAnnotationsInSubtree(t *testing.T) {
	tr := New()
	root := mustCreate(t, tr, "root", model.NoChannel)
	child := mustCreate(t, tr, "child", root.ID)
	_ = tr.Assign(root.ID, 1)
	_ = tr.Assign(child.ID, 2)
	_ = tr.Assign(child.ID, 2)

	got := tr.AnnotationsInSubtree(root.ID)
	if want := []model.AnnotationID{2, 1}; !slices.Equal(got, want) {
		t.Errorf("AnnotationsInSubtree = %v, want %v", got, want)
	}
	if !tr.Unassign(child.ID, 2) || tr.Unassign(child.ID, 2) {
		t.Error("Unassign should succeed exactly once")
	}
}

func TestRenameAndRestrict(t *testing.T) {
	tr := New()
	ch := mustCreate(t, tr, "old", model.NoChannel)
	if err := tr.Rename(ch.ID, "new"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if err := tr.SetAllowedTypes(ch.ID, []string{"pass"}); err != nil {
		t.Fatalf("SetAllowedTypes: %v", err)
	}
	got, _ := tr.Get(ch.ID)
	if got.Name != "new" || !got.Allows("pass") || got.Allows("shot") {
		t.Errorf("unexpected channel %+v", got)
	}
	if err := tr.Rename(99, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestDeleteCompleteness builds random forests and deletes every root;
// nothing may survive.
func TestDeleteCompleteness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr := New()
		n := rapid.IntRange(1, 60).Draw(t, "n")
		var ids []model.ChannelID
		for i := 0; i < n; i++ {
			parent := model.NoChannel
			if len(ids) > 0 && rapid.IntRange(0, 4).Draw(t, "nest") > 0 {
				parent = ids[rapid.IntRange(0, len(ids)-1).Draw(t, "parent")]
			}
			ch, err := tr.Create("c", parent, nil)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			_ = tr.Assign(ch.ID, model.AnnotationID(i))
			ids = append(ids, ch.ID)
		}

		roots := tr.Roots()
		order := rapid.Permutation(roots).Draw(t, "order")
		total := 0
		for _, r := range order {
			removed, err := tr.Delete(r)
			if err != nil {
				t.Fatalf("Delete(%d): %v", r, err)
			}
			total += len(removed)
		}
		if tr.Len() != 0 || total != n {
			t.Fatalf("expected all %d channels removed, removed %d, %d left", n, total, tr.Len())
		}
	})
}
