package annotator

import (
	"github.com/vanderheijden86/tracklane/pkg/model"
)

// Visible returns the annotations overlapping the time window on screen.
func (a *Annotator) Visible() []model.Annotation {
	lo, hi := a.axis.VisibleRange()
	return a.store.Search(lo, hi)
}

// VisibleIn returns the visible annotations of one channel.
func (a *Annotator) VisibleIn(ch model.ChannelID) []model.Annotation {
	var out []model.Annotation
	for _, ann := range a.Visible() {
		if ann.ChannelID == ch {
			out = append(out, ann)
		}
	}
	return out
}

// Between returns the annotations overlapping [lo, hi] in ms.
func (a *Annotator) Between(lo, hi float64) []model.Annotation {
	return a.store.Search(lo, hi)
}

// HitTest returns the annotation on channel ch under device column x. The
// pointer covers [x-slop, x+slop] columns, so instants stay clickable at any
// zoom. When several annotations qualify the narrowest wins, then the one
// starting last.
func (a *Annotator) HitTest(ch model.ChannelID, x, slop float64) (model.Annotation, bool) {
	lo, hi := a.axis.TimeAt(x-slop), a.axis.TimeAt(x+slop)
	var best model.Annotation
	found := false
	for _, ann := range a.store.Search(lo, hi) {
		if ann.ChannelID != ch {
			continue
		}
		if !found || narrower(ann, best) {
			best, found = ann, true
		}
	}
	return best, found
}

func narrower(a, b model.Annotation) bool {
	da, db := a.Duration(), b.Duration()
	if da != db {
		return da < db
	}
	return a.Start > b.Start
}
