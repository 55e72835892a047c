package events

import "github.com/vanderheijden86/tracklane/pkg/model"

// Op names what happened to an entity.
type Op int

const (
	Created Op = iota
	Updated
	Deleted
	Renamed
	Selected
	Deselected
	Hovered
)

func (o Op) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	case Selected:
		return "selected"
	case Deselected:
		return "deselected"
	case Hovered:
		return "hovered"
	default:
		return "unknown"
	}
}

// ChannelEvent reports a channel change. Channel is a snapshot.
type ChannelEvent struct {
	Op      Op
	Channel model.Channel
	// Index is the sibling position, set for Created.
	Index int
}

// AnnotationEvent reports an annotation change. Prev is set for Updated.
type AnnotationEvent struct {
	Op         Op
	Annotation model.Annotation
	Prev       model.Annotation
}

// SelectionEvent reports a change of selection or hover. ID is
// model.NoAnnotation when the hover leaves every annotation.
type SelectionEvent struct {
	Op Op
	ID model.AnnotationID
}
