// Package annotator coordinates the channel tree, the annotation store, the
// undo history and the time axis of one document.
//
// Edits come in through two doors. The transactional methods on Annotator
// (CreateChannel, CreateAnnotation, UpdateAnnotation, ...) always record a
// command so they can be undone. The Bulk view (RestoreChannel,
// BatchCreateAnnotations, Preview, Reset) never records anything and is used
// for loading and for live previews while dragging.
//
// Every change, including the ones replayed by Undo and Redo, is published
// on the typed feeds so that views stay in step without polling.
//
// Invalid references never panic and never surface as errors to views: the
// method returns false and the reason goes to the debug log.
package annotator

import (
	"github.com/google/uuid"

	"github.com/vanderheijden86/tracklane/pkg/annotations"
	"github.com/vanderheijden86/tracklane/pkg/channels"
	"github.com/vanderheijden86/tracklane/pkg/debug"
	"github.com/vanderheijden86/tracklane/pkg/events"
	"github.com/vanderheijden86/tracklane/pkg/history"
	"github.com/vanderheijden86/tracklane/pkg/metrics"
	"github.com/vanderheijden86/tracklane/pkg/model"
	"github.com/vanderheijden86/tracklane/pkg/scale"
	"github.com/vanderheijden86/tracklane/pkg/viewport"
)

// DefaultDuration is the time domain of an empty document, in ms.
const DefaultDuration = 60000

// Annotator owns one document. It is not safe for concurrent use.
type Annotator struct {
	tree    *channels.Tree
	store   *annotations.Store
	history *history.History
	axis    *viewport.Axis

	selected map[model.AnnotationID]struct{}
	hovered  model.AnnotationID

	media   model.MediaState
	session uuid.UUID

	Channels    *events.Feed[events.ChannelEvent]
	Annotations *events.Feed[events.AnnotationEvent]
	Selection   *events.Feed[events.SelectionEvent]
}

type options struct {
	historyOpts []history.Option
	viewport    viewport.Config
	width       float64
	height      float64
	warn        bool
}

// Option configures an Annotator.
type Option func(*options)

// WithHistoryLimit caps the undo stack.
func WithHistoryLimit(n int) Option {
	return func(o *options) {
		o.historyOpts = append(o.historyOpts, history.WithLimit(n))
	}
}

// WithHistoryListener receives the stack state after every change.
func WithHistoryListener(fn func(history.State)) Option {
	return func(o *options) {
		o.historyOpts = append(o.historyOpts, history.WithListener(fn))
	}
}

// WithViewport sets the zoom configuration of the time axis.
func WithViewport(cfg viewport.Config) Option {
	return func(o *options) {
		o.viewport = cfg
	}
}

// WithSize sets the drawn size of the time axis in device units.
func WithSize(w, h float64) Option {
	return func(o *options) {
		o.width, o.height = w, h
	}
}

// WithScaleWarnings logs time lookups outside the document's domain.
func WithScaleWarnings(on bool) Option {
	return func(o *options) {
		o.warn = on
	}
}

// New returns an empty document.
func New(opts ...Option) *Annotator {
	o := options{viewport: viewport.DefaultConfig(), width: 100, height: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return &Annotator{
		tree:        channels.New(),
		store:       annotations.New(),
		history:     history.New(o.historyOpts...),
		axis:        viewport.NewAxis(0, DefaultDuration, o.width, o.height, o.viewport, scale.WithWarnings(o.warn)),
		selected:    make(map[model.AnnotationID]struct{}),
		hovered:     model.NoAnnotation,
		session:     uuid.New(),
		Channels:    &events.Feed[events.ChannelEvent]{},
		Annotations: &events.Feed[events.AnnotationEvent]{},
		Selection:   &events.Feed[events.SelectionEvent]{},
	}
}

// SessionID identifies this editing session; exports carry it as
// provenance.
func (a *Annotator) SessionID() uuid.UUID { return a.session }

// History exposes the undo history for status displays and listeners.
func (a *Annotator) History() *history.History { return a.history }

// Axis returns the time axis.
func (a *Annotator) Axis() *viewport.Axis { return a.axis }

// Undo reverts the newest recorded edit.
func (a *Annotator) Undo() bool { return a.history.Undo() }

// Redo re-applies the newest undone edit.
func (a *Annotator) Redo() bool { return a.history.Redo() }

// Dirty reports whether there are edits since the last MarkSaved or load.
func (a *Annotator) Dirty() bool { return a.history.Dirty() }

// MarkSaved records the current history position as saved.
func (a *Annotator) MarkSaved() { a.history.MarkSaved() }

// NumChannels returns the number of channels.
func (a *Annotator) NumChannels() int { return a.tree.Len() }

// NumAnnotations returns the number of annotations.
func (a *Annotator) NumAnnotations() int { return a.store.Len() }

// Channel returns a snapshot of channel id.
func (a *Annotator) Channel(id model.ChannelID) (model.Channel, bool) {
	return a.tree.Get(id)
}

// ChildChannels returns the ids of id's children.
func (a *Annotator) ChildChannels(id model.ChannelID) []model.ChannelID {
	return a.tree.Children(id)
}

// RootChannels returns the root channel ids.
func (a *Annotator) RootChannels() []model.ChannelID {
	return a.tree.Roots()
}

// WalkChannels visits channels in display order with their depth.
func (a *Annotator) WalkChannels(fn func(ch model.Channel, depth int) bool) {
	a.tree.Walk(fn)
}

// OrderedChannels returns every channel in display order.
func (a *Annotator) OrderedChannels() []model.Channel {
	return a.tree.Ordered()
}

// Annotation returns a snapshot of annotation id.
func (a *Annotator) Annotation(id model.AnnotationID) (model.Annotation, bool) {
	return a.store.Get(id)
}

// AllAnnotations returns every annotation ordered by start.
func (a *Annotator) AllAnnotations() []model.Annotation {
	return a.store.All()
}

// AnnotationsIn returns the annotations of one channel ordered by start.
func (a *Annotator) AnnotationsIn(ch model.ChannelID) []model.Annotation {
	return a.store.InChannel(ch)
}

// MediaSource returns the media src of the document.
func (a *Annotator) MediaSource() string { return a.media.Src }

// SetMediaSource replaces the media src. It is not an undoable edit.
func (a *Annotator) SetMediaSource(src string) { a.media.Src = src }

func reject(format string, args ...any) bool {
	metrics.RejectedEdits.Inc()
	debug.Log("annotator: "+format, args...)
	return false
}
