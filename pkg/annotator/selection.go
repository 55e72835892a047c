package annotator

import (
	"slices"

	"github.com/vanderheijden86/tracklane/pkg/events"
	"github.com/vanderheijden86/tracklane/pkg/model"
)

// Selection and hover belong to the view. They are never recorded in the
// history and never written to State.

// Select adds id to the selection.
func (a *Annotator) Select(id model.AnnotationID) bool {
	if !a.store.Has(id) {
		return reject("select annotation %d: not found", id)
	}
	if _, ok := a.selected[id]; ok {
		return true
	}
	a.selected[id] = struct{}{}
	a.Selection.Publish(events.SelectionEvent{Op: events.Selected, ID: id})
	return true
}

// SelectOnly makes id the only selected annotation.
func (a *Annotator) SelectOnly(id model.AnnotationID) bool {
	if !a.store.Has(id) {
		return reject("select annotation %d: not found", id)
	}
	for _, other := range a.Selected() {
		if other != id {
			a.Deselect(other)
		}
	}
	return a.Select(id)
}

// Deselect removes id from the selection.
func (a *Annotator) Deselect(id model.AnnotationID) bool {
	if _, ok := a.selected[id]; !ok {
		return false
	}
	delete(a.selected, id)
	a.Selection.Publish(events.SelectionEvent{Op: events.Deselected, ID: id})
	return true
}

// DeselectAll clears the selection.
func (a *Annotator) DeselectAll() {
	for _, id := range a.Selected() {
		a.Deselect(id)
	}
}

// Selected returns the selected ids in ascending order.
func (a *Annotator) Selected() []model.AnnotationID {
	out := make([]model.AnnotationID, 0, len(a.selected))
	for id := range a.selected {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// IsSelected reports whether id is selected.
func (a *Annotator) IsSelected(id model.AnnotationID) bool {
	_, ok := a.selected[id]
	return ok
}

// Hover marks id as hovered; model.NoAnnotation clears the hover.
func (a *Annotator) Hover(id model.AnnotationID) bool {
	if id != model.NoAnnotation && !a.store.Has(id) {
		return reject("hover annotation %d: not found", id)
	}
	if a.hovered == id {
		return true
	}
	a.hovered = id
	a.Selection.Publish(events.SelectionEvent{Op: events.Hovered, ID: id})
	return true
}

// Hovered returns the hovered annotation or model.NoAnnotation.
func (a *Annotator) Hovered() model.AnnotationID { return a.hovered }
