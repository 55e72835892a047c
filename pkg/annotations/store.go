// Package annotations stores annotations by id and keeps an interval index
// over their time bounds for hit-testing and culling.
package annotations

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/vanderheijden86/tracklane/pkg/intervals"
	"github.com/vanderheijden86/tracklane/pkg/metrics"
	"github.com/vanderheijden86/tracklane/pkg/model"
)

var (
	// ErrNotFound indicates that an annotation id does not exist.
	ErrNotFound = errors.New("annotation not found")

	// ErrDuplicateID indicates a Put with an id that is already stored.
	ErrDuplicateID = errors.New("duplicate annotation id")

	// ErrNonFinite indicates a start or end time that is NaN or infinite.
	ErrNonFinite = errors.New("annotation time is not finite")
)

// Store maps ids to annotations. Every write keeps the index in step.
type Store struct {
	byID  map[model.AnnotationID]model.Annotation
	index *intervals.Tree[model.AnnotationID]
	ids   model.IDSequence
}

// New returns an empty store.
func New() *Store {
	return &Store{
		byID:  make(map[model.AnnotationID]model.Annotation),
		index: intervals.New[model.AnnotationID](),
	}
}

// Reset removes everything and rewinds the id sequence.
func (s *Store) Reset() {
	clear(s.byID)
	s.index.Clear()
	s.ids.Reset()
}

// NextID reserves a fresh id.
func (s *Store) NextID() model.AnnotationID {
	return model.AnnotationID(s.ids.Next())
}

// Reserve marks id as used so NextID never hands it out.
func (s *Store) Reserve(id model.AnnotationID) {
	s.ids.Observe(int(id))
}

// Len returns the number of annotations.
func (s *Store) Len() int { return len(s.byID) }

// Has reports whether id is stored.
func (s *Store) Has(id model.AnnotationID) bool {
	_, ok := s.byID[id]
	return ok
}

// Get returns a snapshot of id.
func (s *Store) Get(id model.AnnotationID) (model.Annotation, bool) {
	a, ok := s.byID[id]
	if !ok {
		return model.Annotation{}, false
	}
	return a.Clone(), true
}

// Put stores a new annotation under its own id.
func (s *Store) Put(a model.Annotation) error {
	if s.Has(a.ID) {
		return fmt.Errorf("put annotation %d: %w", a.ID, ErrDuplicateID)
	}
	if !a.Finite() {
		return fmt.Errorf("put annotation %d: %w", a.ID, ErrNonFinite)
	}
	a = a.Normalized()
	s.byID[a.ID] = a
	lo, hi := a.Bounds()
	s.index.Insert(lo, hi, a.ID)
	s.ids.Observe(int(a.ID))
	return nil
}

// Replace overwrites an existing annotation and returns the previous state.
func (s *Store) Replace(a model.Annotation) (model.Annotation, error) {
	prev, ok := s.byID[a.ID]
	if !ok {
		return model.Annotation{}, fmt.Errorf("replace annotation %d: %w", a.ID, ErrNotFound)
	}
	if !a.Finite() {
		return model.Annotation{}, fmt.Errorf("replace annotation %d: %w", a.ID, ErrNonFinite)
	}
	a = a.Normalized()
	lo, hi := prev.Bounds()
	s.index.Remove(lo, hi, prev.ID)
	s.byID[a.ID] = a
	lo, hi = a.Bounds()
	s.index.Insert(lo, hi, a.ID)
	return prev, nil
}

// Delete removes id and returns what was stored.
func (s *Store) Delete(id model.AnnotationID) (model.Annotation, error) {
	a, ok := s.byID[id]
	if !ok {
		return model.Annotation{}, fmt.Errorf("delete annotation %d: %w", id, ErrNotFound)
	}
	lo, hi := a.Bounds()
	s.index.Remove(lo, hi, id)
	delete(s.byID, id)
	return a, nil
}

// All returns every annotation ordered by start time, then id.
func (s *Store) All() []model.Annotation {
	out := make([]model.Annotation, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a.Clone())
	}
	sortByStart(out)
	return out
}

// Search returns the annotations overlapping the closed window [lo, hi],
// ordered by start time.
func (s *Store) Search(lo, hi float64) []model.Annotation {
	defer metrics.Timer(metrics.IndexSearch)()
	items := s.index.Search(lo, hi)
	out := make([]model.Annotation, 0, len(items))
	for _, it := range items {
		out = append(out, s.byID[it.Value].Clone())
	}
	return out
}

// At returns the annotations containing instant t.
func (s *Store) At(t float64) []model.Annotation {
	return s.Search(t, t)
}

// InChannel returns the annotations on channel ch ordered by start time.
func (s *Store) InChannel(ch model.ChannelID) []model.Annotation {
	var out []model.Annotation
	for _, a := range s.byID {
		if a.ChannelID == ch {
			out = append(out, a.Clone())
		}
	}
	sortByStart(out)
	return out
}

// Span returns the earliest start and latest end over every annotation.
func (s *Store) Span() (lo, hi float64, ok bool) {
	first := true
	for _, a := range s.byID {
		alo, ahi := a.Bounds()
		if first || alo < lo {
			lo = alo
		}
		if first || ahi > hi {
			hi = ahi
		}
		first = false
	}
	return lo, hi, !first
}

func sortByStart(as []model.Annotation) {
	slices.SortFunc(as, func(a, b model.Annotation) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
