package ui

import (
	"github.com/vanderheijden86/tracklane/pkg/annotator"
	"github.com/vanderheijden86/tracklane/pkg/events"
	"github.com/vanderheijden86/tracklane/pkg/history"
)

// feedState collects what the annotator reported since the last frame.
// The views rebuild lazily from these flags instead of after every key.
type feedState struct {
	listStale   bool
	detailStale bool
	history     history.State
	cancels     []func()
}

func subscribeFeeds(a *annotator.Annotator) *feedState {
	fs := &feedState{listStale: true, detailStale: true, history: a.History().State()}
	fs.cancels = append(fs.cancels,
		a.Annotations.Subscribe(func(events.AnnotationEvent) {
			fs.markStale()
		}),
		a.Channels.Subscribe(func(events.ChannelEvent) {
			fs.markStale()
		}),
		a.Selection.Subscribe(func(ev events.SelectionEvent) {
			fs.detailStale = true
			if ev.Op != events.Hovered {
				fs.listStale = true
			}
		}),
	)
	a.History().OnChange(func(s history.State) {
		fs.history = s
	})
	return fs
}

func (fs *feedState) markStale() {
	fs.listStale = true
	fs.detailStale = true
}

func (fs *feedState) close() {
	for _, cancel := range fs.cancels {
		cancel()
	}
	fs.cancels = nil
}
