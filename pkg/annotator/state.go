package annotator

import (
	"maps"

	"github.com/vanderheijden86/tracklane/pkg/debug"
	"github.com/vanderheijden86/tracklane/pkg/metrics"
	"github.com/vanderheijden86/tracklane/pkg/model"
)

// LoadReport counts what ReadState kept and dropped.
type LoadReport struct {
	Channels           int
	Annotations        int
	DroppedChannels    int
	SkippedAnnotations int
}

// ReadState replaces the document with s: the time domain first, then
// every channel (parents before children whatever the file order), then
// the annotations. History is cleared so the loaded document is the
// saved, clean baseline.
func (a *Annotator) ReadState(s model.State) LoadReport {
	defer metrics.Timer(metrics.StateLoad)()
	defer debug.LogEnterExit("ReadState")()

	b := a.Bulk()
	b.Reset()

	a.media = model.MediaState{Src: s.Media.Src}
	if len(s.Media.Extra) > 0 {
		a.media.Extra = maps.Clone(s.Media.Extra)
	}

	start, end := s.Timeline.StartTime, s.Timeline.EndTime
	if end <= start {
		end = start + DefaultDuration
	}
	a.axis.SetDomain(start, end)

	var report LoadReport
	pending := make([]model.Channel, 0, len(s.Timeline.Channels))
	for _, cs := range s.Timeline.Channels {
		pending = append(pending, model.ChannelFromState(cs))
	}
	for len(pending) > 0 {
		var next []model.Channel
		for _, ch := range pending {
			if ch.ParentID != model.NoChannel && !a.tree.Has(ch.ParentID) {
				next = append(next, ch)
				continue
			}
			if err := b.RestoreChannel(ch); err != nil {
				debug.Warn("annotator: dropping channel %d: %v", ch.ID, err)
				report.DroppedChannels++
				continue
			}
			report.Channels++
		}
		if len(next) == len(pending) {
			for _, ch := range next {
				debug.Warn("annotator: dropping channel %d: parent %d never appears", ch.ID, ch.ParentID)
			}
			report.DroppedChannels += len(next)
			break
		}
		pending = next
	}

	anns := make([]model.Annotation, 0, len(s.Timeline.Annotations))
	for _, as := range s.Timeline.Annotations {
		anns = append(anns, model.AnnotationFromState(as))
	}
	created := b.BatchCreateAnnotations(anns)
	report.Annotations = len(created)
	report.SkippedAnnotations = len(anns) - len(created)

	a.history.Clear()
	debug.Log("annotator: loaded %+v", report)
	return report
}

// State returns the document in its persisted shape. Selection and hover
// are not part of it.
func (a *Annotator) State() model.State {
	start, end := a.axis.Domain()
	s := model.State{
		Media: model.MediaState{Src: a.media.Src},
		Timeline: model.TimelineState{
			StartTime:   start,
			EndTime:     end,
			Channels:    []model.ChannelState{},
			Annotations: []model.AnnotationState{},
		},
	}
	if len(a.media.Extra) > 0 {
		s.Media.Extra = maps.Clone(a.media.Extra)
	}
	for _, ch := range a.tree.Ordered() {
		s.Timeline.Channels = append(s.Timeline.Channels, ch.ToState())
	}
	for _, ann := range a.store.All() {
		s.Timeline.Annotations = append(s.Timeline.Annotations, ann.ToState())
	}
	return s
}
