package annotator

import (
	"github.com/vanderheijden86/tracklane/pkg/debug"
	"github.com/vanderheijden86/tracklane/pkg/model"
)

// Bulk is the untracked side of an Annotator. Nothing done through it can
// be undone.
type Bulk struct {
	a *Annotator
}

// Bulk returns the untracked API of a.
func (a *Annotator) Bulk() Bulk { return Bulk{a: a} }

// RestoreChannel inserts ch with its own id as the last child of its
// parent.
func (b Bulk) RestoreChannel(ch model.Channel) error {
	return b.a.insertChannel(ch, -1)
}

// BatchCreateAnnotations stores anns with their modifiers applied. An id
// that is already taken gets a fresh one that no other annotation in anns
// claims; annotations on missing channels or with non-finite times are
// skipped. Values a channel does not allow are kept with a warning. It
// returns what was stored.
func (b Bulk) BatchCreateAnnotations(anns []model.Annotation) []model.Annotation {
	for _, ann := range anns {
		if ann.ID >= 0 {
			b.a.store.Reserve(ann.ID)
		}
	}
	out := make([]model.Annotation, 0, len(anns))
	for _, ann := range anns {
		ann = ann.ApplyModifiers()
		ch, ok := b.a.tree.Get(ann.ChannelID)
		if !ok {
			debug.Warn("annotator: skipping annotation %d: channel %d not found", ann.ID, ann.ChannelID)
			continue
		}
		if !ch.Allows(ann.Value) {
			debug.Warn("annotator: annotation %d value %q not allowed on channel %q", ann.ID, ann.Value, ch.Name)
		}
		if ann.ID < 0 || b.a.store.Has(ann.ID) {
			fresh := b.a.store.NextID()
			debug.Log("annotator: annotation id %d taken, using %d", ann.ID, fresh)
			ann.ID = fresh
		}
		if err := b.a.putAnnotation(ann); err != nil {
			debug.Warn("annotator: skipping annotation %d: %v", ann.ID, err)
			continue
		}
		stored, _ := b.a.store.Get(ann.ID)
		out = append(out, stored)
	}
	return out
}

// Preview replaces the stored state of ann.ID without recording it. Views
// call it on every drag step and finish with UpdateAnnotation using the
// state from before the drag as prev.
func (b Bulk) Preview(ann model.Annotation) bool {
	if !b.a.tree.Has(ann.ChannelID) {
		return reject("preview annotation %d: channel %d not found", ann.ID, ann.ChannelID)
	}
	if _, err := b.a.replaceAnnotation(ann); err != nil {
		return reject("preview annotation %d: %v", ann.ID, err)
	}
	return true
}

// Reset empties the document: channels, annotations, selection and
// history. The time domain returns to the default.
func (b Bulk) Reset() {
	a := b.a
	a.DeselectAll()
	a.Hover(model.NoAnnotation)
	a.tree.Reset()
	a.store.Reset()
	a.history.Clear()
	a.media = model.MediaState{}
	a.axis.SetDomain(0, DefaultDuration)
}
