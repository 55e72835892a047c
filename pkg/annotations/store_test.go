package annotations

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/vanderheijden86/tracklane/pkg/model"
)

func ids(as []model.Annotation) []model.AnnotationID {
	out := make([]model.AnnotationID, 0, len(as))
	for _, a := range as {
		out = append(out, a.ID)
	}
	return out
}

func span(id model.AnnotationID, ch model.ChannelID, start, end float64) model.Annotation {
	return model.Annotation{ID: id, ChannelID: ch, Kind: model.KindInterval, Value: "v", Start: start, End: end}
}

func TestPutSearchDelete(t *testing.T) {
	s := New()
	for _, a := range []model.Annotation{
		span(0, 1, 0, 100),
		span(1, 1, 200, 300),
		{ID: 2, ChannelID: 2, Kind: model.KindInstant, Start: 250},
	} {
		if err := s.Put(a); err != nil {
			t.Fatalf("Put(%d): %v", a.ID, err)
		}
	}

	if got := ids(s.Search(90, 210)); !slices.Equal(got, []model.AnnotationID{0, 1}) {
		t.Errorf("Search(90,210) = %v", got)
	}
	if got := ids(s.At(250)); !slices.Equal(got, []model.AnnotationID{1, 2}) {
		t.Errorf("At(250) = %v", got)
	}

	if _, err := s.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := ids(s.At(250)); !slices.Equal(got, []model.AnnotationID{2}) {
		t.Errorf("At(250) after delete = %v", got)
	}
	if _, err := s.Delete(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceMovesIndexEntry(t *testing.T) {
	s := New()
	_ = s.Put(span(0, 1, 0, 10))

	prev, err := s.Replace(span(0, 1, 500, 600))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if prev.Start != 0 {
		t.Errorf("expected previous start 0, got %v", prev.Start)
	}
	if len(s.Search(0, 10)) != 0 {
		t.Error("old bounds still indexed")
	}
	if len(s.Search(550, 550)) != 1 {
		t.Error("new bounds not indexed")
	}
	if _, err := s.Replace(span(9, 1, 0, 1)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPutNormalizes(t *testing.T) {
	s := New()
	_ = s.Put(span(0, 1, 50, 10))
	a, _ := s.Get(0)
	if a.Start != 10 || a.End != 50 {
		t.Errorf("expected swapped bounds, got %v-%v", a.Start, a.End)
	}
	if err := s.Put(span(0, 1, 0, 1)); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	s := New()
	a := span(0, 1, 0, 1)
	a.Modifiers = []model.Modifier{{Key: "k", Value: "v"}}
	_ = s.Put(a)

	got, _ := s.Get(0)
	got.Modifiers[0].Value = "changed"
	again, _ := s.Get(0)
	if again.Modifiers[0].Value != "v" {
		t.Error("Get leaked internal modifier storage")
	}
}

func TestInChannelAndAll(t *testing.T) {
	s := New()
	_ = s.Put(span(3, 2, 30, 40))
	_ = s.Put(span(1, 1, 10, 20))
	_ = s.Put(span(2, 2, 5, 6))

	if got := ids(s.InChannel(2)); !slices.Equal(got, []model.AnnotationID{2, 3}) {
		t.Errorf("InChannel(2) = %v", got)
	}
	if got := ids(s.All()); !slices.Equal(got, []model.AnnotationID{2, 1, 3}) {
		t.Errorf("All = %v", got)
	}
	lo, hi, ok := s.Span()
	if !ok || lo != 5 || hi != 40 {
		t.Errorf("Span = %v %v %v", lo, hi, ok)
	}
	if next := s.NextID(); next != 4 {
		t.Errorf("NextID = %d, want 4", next)
	}
}

func TestNonFiniteTimesAreRejected(t *testing.T) {
	s := New()
	if err := s.Put(span(0, 1, 0, math.NaN())); !errors.Is(err, ErrNonFinite) {
		t.Fatalf("Put with NaN end: got %v, want ErrNonFinite", err)
	}
	if s.Len() != 0 {
		t.Fatalf("rejected annotation was stored")
	}

	long := span(1, 1, 0, 1000)
	if err := s.Put(long); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Replace(span(1, 1, math.Inf(1), 1000)); !errors.Is(err, ErrNonFinite) {
		t.Fatalf("Replace with infinite start: got %v, want ErrNonFinite", err)
	}
	if got := ids(s.Search(500, 600)); !slices.Equal(got, []model.AnnotationID{1}) {
		t.Errorf("Search(500,600) after rejected replace = %v", got)
	}
}

func TestReserveSkipsID(t *testing.T) {
	s := New()
	s.Reserve(3)
	if got := s.NextID(); got != 4 {
		t.Errorf("NextID after Reserve(3) = %d, want 4", got)
	}
}
