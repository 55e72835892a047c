package annotator

import (
	"fmt"

	"github.com/vanderheijden86/tracklane/pkg/channels"
	"github.com/vanderheijden86/tracklane/pkg/debug"
	"github.com/vanderheijden86/tracklane/pkg/events"
	"github.com/vanderheijden86/tracklane/pkg/model"
)

// The functions in this file mutate the document and publish the matching
// event. They record nothing; the transactional and bulk layers decide that.

func (a *Annotator) insertChannel(ch model.Channel, index int) error {
	if err := a.tree.Insert(ch, index); err != nil {
		return err
	}
	a.Channels.Publish(events.ChannelEvent{Op: events.Created, Channel: ch.Clone(), Index: a.tree.IndexOf(ch.ID)})
	return nil
}

func (a *Annotator) removeChannel(id model.ChannelID) (channels.Removed, error) {
	r, err := a.tree.Remove(id)
	if err != nil {
		return r, err
	}
	a.Channels.Publish(events.ChannelEvent{Op: events.Deleted, Channel: r.Channel.Clone(), Index: r.Index})
	return r, nil
}

func (a *Annotator) updateChannel(ch model.Channel) error {
	if err := a.tree.Rename(ch.ID, ch.Name); err != nil {
		return err
	}
	if err := a.tree.SetAllowedTypes(ch.ID, ch.AllowedTypes); err != nil {
		return err
	}
	a.Channels.Publish(events.ChannelEvent{Op: events.Renamed, Channel: ch.Clone(), Index: a.tree.IndexOf(ch.ID)})
	return nil
}

func (a *Annotator) putAnnotation(ann model.Annotation) error {
	if !a.tree.Has(ann.ChannelID) {
		return fmt.Errorf("annotation %d: %w", ann.ID, channels.ErrNotFound)
	}
	if err := a.store.Put(ann); err != nil {
		return err
	}
	if err := a.tree.Assign(ann.ChannelID, ann.ID); err != nil {
		return err
	}
	stored, _ := a.store.Get(ann.ID)
	a.Annotations.Publish(events.AnnotationEvent{Op: events.Created, Annotation: stored})
	return nil
}

func (a *Annotator) dropAnnotation(id model.AnnotationID) (model.Annotation, error) {
	a.Deselect(id)
	if a.hovered == id {
		a.Hover(model.NoAnnotation)
	}
	ann, err := a.store.Delete(id)
	if err != nil {
		return ann, err
	}
	a.tree.Unassign(ann.ChannelID, id)
	a.Annotations.Publish(events.AnnotationEvent{Op: events.Deleted, Annotation: ann.Clone()})
	return ann, nil
}

func (a *Annotator) replaceAnnotation(next model.Annotation) (model.Annotation, error) {
	if !a.tree.Has(next.ChannelID) {
		return model.Annotation{}, fmt.Errorf("annotation %d: %w", next.ID, channels.ErrNotFound)
	}
	prev, err := a.store.Replace(next)
	if err != nil {
		return prev, err
	}
	if prev.ChannelID != next.ChannelID {
		a.tree.Unassign(prev.ChannelID, next.ID)
		if err := a.tree.Assign(next.ChannelID, next.ID); err != nil {
			return prev, err
		}
	}
	stored, _ := a.store.Get(next.ID)
	a.Annotations.Publish(events.AnnotationEvent{Op: events.Updated, Annotation: stored, Prev: prev.Clone()})
	return prev, nil
}

// must logs a failed replay. It only fails when the document was changed
// outside the history.
func must(what string, err error) {
	if err != nil {
		debug.Warn("annotator: %s: %v", what, err)
	}
}
