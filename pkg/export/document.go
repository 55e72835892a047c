// Package export writes read-only snapshots of a tracklane document to
// SQLite, SVG, PNG, PDF and JSON.
//
// Exporters never touch the live editor state: callers build a Document
// from annotator.State() and hand it over, so several formats can be
// written concurrently.
package export

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/tracklane/pkg/model"
)

// Document is an immutable export snapshot.
type Document struct {
	Title     string
	SessionID string
	State     model.State
	Created   time.Time

	// Channels in display order (depth-first, file order among siblings).
	Channels []Lane
	// Annotations sorted by start time, then id.
	Annotations []model.Annotation
}

// Lane is a channel with its nesting depth.
type Lane struct {
	Channel model.Channel
	Depth   int
}

// NewDocument builds a Document from a State. Channels whose parent chain
// is broken or cyclic are reported as an error.
func NewDocument(title, sessionID string, s model.State) (*Document, error) {
	lanes, err := orderLanes(s.Timeline.Channels)
	if err != nil {
		return nil, err
	}
	anns := make([]model.Annotation, 0, len(s.Timeline.Annotations))
	for _, as := range s.Timeline.Annotations {
		anns = append(anns, model.AnnotationFromState(as).Normalized())
	}
	sort.SliceStable(anns, func(i, j int) bool {
		if anns[i].Start != anns[j].Start {
			return anns[i].Start < anns[j].Start
		}
		return anns[i].ID < anns[j].ID
	})
	if title == "" {
		title = "Timeline"
	}
	return &Document{
		Title:       title,
		SessionID:   sessionID,
		State:       s,
		Created:     time.Now().UTC(),
		Channels:    lanes,
		Annotations: anns,
	}, nil
}

// orderLanes checks the parent graph for cycles and returns the channels
// depth-first. Roots and siblings keep their file order.
func orderLanes(states []model.ChannelState) ([]Lane, error) {
	byID := make(map[model.ChannelID]model.Channel, len(states))
	children := make(map[model.ChannelID][]model.ChannelID)
	var roots []model.ChannelID

	g := simple.NewDirectedGraph()
	for _, cs := range states {
		ch := model.ChannelFromState(cs)
		if _, dup := byID[ch.ID]; dup {
			return nil, fmt.Errorf("duplicate channel id %d", ch.ID)
		}
		byID[ch.ID] = ch
		if g.Node(int64(ch.ID)) == nil {
			g.AddNode(simple.Node(ch.ID))
		}
	}
	for _, cs := range states {
		ch := byID[model.ChannelID(cs.ID)]
		if ch.IsRoot() {
			roots = append(roots, ch.ID)
			continue
		}
		if _, ok := byID[ch.ParentID]; !ok {
			return nil, fmt.Errorf("channel %d: parent %d not found", ch.ID, ch.ParentID)
		}
		if ch.ParentID == ch.ID {
			return nil, fmt.Errorf("channel %d is its own parent", ch.ID)
		}
		g.SetEdge(g.NewEdge(simple.Node(ch.ParentID), simple.Node(ch.ID)))
		children[ch.ParentID] = append(children[ch.ParentID], ch.ID)
	}
	if _, err := topo.Sort(g); err != nil {
		return nil, fmt.Errorf("channel hierarchy has a cycle: %w", err)
	}

	lanes := make([]Lane, 0, len(states))
	var walk func(id model.ChannelID, depth int)
	walk = func(id model.ChannelID, depth int) {
		lanes = append(lanes, Lane{Channel: byID[id], Depth: depth})
		for _, c := range children[id] {
			walk(c, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}
	return lanes, nil
}

// Span returns the time window exports draw: the timeline domain, widened
// to include any annotation that falls outside it.
func (d *Document) Span() (lo, hi float64) {
	lo, hi = d.State.Timeline.StartTime, d.State.Timeline.EndTime
	for _, a := range d.Annotations {
		alo, ahi := a.Bounds()
		if alo < lo {
			lo = alo
		}
		if ahi > hi {
			hi = ahi
		}
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// ChannelName returns the name of a channel or its id when unknown.
func (d *Document) ChannelName(id model.ChannelID) string {
	for _, l := range d.Channels {
		if l.Channel.ID == id {
			return l.Channel.Name
		}
	}
	return fmt.Sprintf("#%d", id)
}

// Summary holds aggregate figures over the annotations of a document.
type Summary struct {
	Channels     int
	Annotations  int
	Instants     int
	Spans        int
	MeanDuration float64
	StdDuration  float64
	MaxDuration  float64
	// Fraction of the timeline domain covered by at least one span.
	Coverage float64
	PerValue map[string]int
}

// Summarize computes aggregate statistics for d.
func (d *Document) Summarize() Summary {
	s := Summary{
		Channels:    len(d.Channels),
		Annotations: len(d.Annotations),
		PerValue:    make(map[string]int),
	}
	var durations []float64
	for _, a := range d.Annotations {
		s.PerValue[a.Value]++
		if !a.Kind.HasDuration() {
			s.Instants++
			continue
		}
		s.Spans++
		durations = append(durations, a.Duration())
		if a.Duration() > s.MaxDuration {
			s.MaxDuration = a.Duration()
		}
	}
	if len(durations) > 0 {
		s.MeanDuration = stat.Mean(durations, nil)
	}
	if len(durations) > 1 {
		s.StdDuration = stat.StdDev(durations, nil)
	}
	s.Coverage = d.coverage()
	return s
}

func (d *Document) coverage() float64 {
	start, end := d.State.Timeline.StartTime, d.State.Timeline.EndTime
	if end <= start {
		return 0
	}
	type span struct{ lo, hi float64 }
	var spans []span
	for _, a := range d.Annotations {
		if !a.Kind.HasDuration() {
			continue
		}
		lo, hi := max(a.Start, start), min(a.End, end)
		if hi > lo {
			spans = append(spans, span{lo, hi})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })
	covered, curLo, curHi := 0.0, 0.0, -1.0
	for i, sp := range spans {
		if i == 0 || sp.lo > curHi {
			if i > 0 {
				covered += curHi - curLo
			}
			curLo, curHi = sp.lo, sp.hi
			continue
		}
		curHi = max(curHi, sp.hi)
	}
	if len(spans) > 0 {
		covered += curHi - curLo
	}
	return covered / (end - start)
}
