package annotator

import (
	"slices"

	"github.com/vanderheijden86/tracklane/pkg/history"
	"github.com/vanderheijden86/tracklane/pkg/model"
)

// CreateChannel adds a channel as the last child of parent (model.NoChannel
// for a root). allowed restricts annotation values; nil allows any.
func (a *Annotator) CreateChannel(name string, parent model.ChannelID, allowed []string) (model.Channel, bool) {
	if parent != model.NoChannel && !a.tree.Has(parent) {
		return model.Channel{}, reject("create channel %q: parent %d not found", name, parent)
	}
	ch := model.Channel{ID: a.tree.NextID(), ParentID: parent, Name: name}
	if allowed != nil {
		ch.AllowedTypes = slices.Clone(allowed)
	}
	snap := ch.Clone()
	a.history.Do(history.Command{
		Label: "create channel",
		Do: func() {
			must("create channel", a.insertChannel(snap, -1))
		},
		Undo: func() {
			_, err := a.removeChannel(snap.ID)
			must("undo create channel", err)
		},
	})
	return ch, true
}

// DeleteChannel removes id with its whole subtree and every annotation on
// it as one undoable edit. Annotations go first, then channels from the
// leaves up; undo restores them in reverse with the original sibling order.
func (a *Annotator) DeleteChannel(id model.ChannelID) bool {
	if !a.tree.Has(id) {
		return reject("delete channel %d: not found", id)
	}
	a.history.Begin("delete channel")
	for _, cid := range a.tree.PostOrder(id) {
		for _, aid := range a.tree.AnnotationIDs(cid) {
			a.history.Do(a.deleteAnnotationCommand(aid))
		}
		a.history.Do(a.removeChannelCommand(cid))
	}
	a.history.End()
	return true
}

// removeChannelCommand snapshots cid and its current sibling index. It must
// be built right before it runs so the index matches the tree it removes
// from.
func (a *Annotator) removeChannelCommand(cid model.ChannelID) history.Command {
	snap, _ := a.tree.Get(cid)
	idx := a.tree.IndexOf(cid)
	return history.Command{
		Label: "remove channel",
		Do: func() {
			_, err := a.removeChannel(snap.ID)
			must("remove channel", err)
		},
		Undo: func() {
			must("restore channel", a.insertChannel(snap, idx))
		},
	}
}

// RenameChannel changes the name of id.
func (a *Annotator) RenameChannel(id model.ChannelID, name string) bool {
	prev, ok := a.tree.Get(id)
	if !ok {
		return reject("rename channel %d: not found", id)
	}
	next := prev.Clone()
	next.Name = name
	return a.updateChannelCommand("rename channel", prev, next)
}

// RestrictChannel replaces the allowed annotation values of id. Existing
// annotations are left alone; the restriction applies to later edits.
func (a *Annotator) RestrictChannel(id model.ChannelID, allowed []string) bool {
	prev, ok := a.tree.Get(id)
	if !ok {
		return reject("restrict channel %d: not found", id)
	}
	next := prev.Clone()
	next.AllowedTypes = nil
	if allowed != nil {
		next.AllowedTypes = slices.Clone(allowed)
	}
	return a.updateChannelCommand("restrict channel", prev, next)
}

func (a *Annotator) updateChannelCommand(label string, prev, next model.Channel) bool {
	a.history.Do(history.Command{
		Label: label,
		Do:    func() { must(label, a.updateChannel(next)) },
		Undo:  func() { must("undo "+label, a.updateChannel(prev)) },
	})
	return true
}

// CreateAnnotation validates draft, gives it a fresh id and stores it. The
// draft's ID is ignored. An empty Kind means interval.
func (a *Annotator) CreateAnnotation(draft model.Annotation) (model.Annotation, bool) {
	if draft.Kind == "" {
		draft.Kind = model.KindInterval
	}
	if !a.valid("create annotation", draft) {
		return model.Annotation{}, false
	}
	ann := draft.Normalized()
	ann.ID = a.store.NextID()
	snap := ann.Clone()
	a.history.Do(history.Command{
		Label: "create annotation",
		Do: func() {
			must("create annotation", a.putAnnotation(snap))
		},
		Undo: func() {
			_, err := a.dropAnnotation(snap.ID)
			must("undo create annotation", err)
		},
	})
	return ann, true
}

// UpdateAnnotation replaces the stored state of next.ID with next; undo
// puts prev back wholesale. next and prev must share an id.
func (a *Annotator) UpdateAnnotation(next, prev model.Annotation) bool {
	if next.ID != prev.ID {
		return reject("update annotation: id %d does not match previous %d", next.ID, prev.ID)
	}
	if !a.store.Has(next.ID) {
		return reject("update annotation %d: not found", next.ID)
	}
	if !a.valid("update annotation", next) {
		return false
	}
	n, p := next.Normalized(), prev.Normalized()
	a.history.Do(history.Command{
		Label: "update annotation",
		Do: func() {
			_, err := a.replaceAnnotation(n)
			must("update annotation", err)
		},
		Undo: func() {
			_, err := a.replaceAnnotation(p)
			must("undo update annotation", err)
		},
	})
	return true
}

// EditAnnotation is UpdateAnnotation with prev taken from the store.
func (a *Annotator) EditAnnotation(next model.Annotation) bool {
	prev, ok := a.store.Get(next.ID)
	if !ok {
		return reject("edit annotation %d: not found", next.ID)
	}
	if prev.Equal(next.Normalized()) {
		return true
	}
	return a.UpdateAnnotation(next, prev)
}

// DeleteAnnotation deselects and removes id.
func (a *Annotator) DeleteAnnotation(id model.AnnotationID) bool {
	if !a.store.Has(id) {
		return reject("delete annotation %d: not found", id)
	}
	a.history.Do(a.deleteAnnotationCommand(id))
	return true
}

func (a *Annotator) deleteAnnotationCommand(id model.AnnotationID) history.Command {
	snap, _ := a.store.Get(id)
	return history.Command{
		Label: "delete annotation",
		Do: func() {
			_, err := a.dropAnnotation(snap.ID)
			must("delete annotation", err)
		},
		Undo: func() {
			must("undo delete annotation", a.putAnnotation(snap))
		},
	}
}

func (a *Annotator) valid(op string, ann model.Annotation) bool {
	ch, ok := a.tree.Get(ann.ChannelID)
	if !ok {
		return reject("%s: channel %d not found", op, ann.ChannelID)
	}
	if !ann.Kind.IsValid() {
		return reject("%s: unknown kind %q", op, ann.Kind)
	}
	if !ann.Finite() {
		return reject("%s: time [%v, %v] is not finite", op, ann.Start, ann.End)
	}
	if !ch.Allows(ann.Value) {
		return reject("%s: value %q not allowed on channel %q", op, ann.Value, ch.Name)
	}
	return true
}
