package events

import (
	"slices"
	"testing"

	"github.com/vanderheijden86/tracklane/pkg/model"
)

func TestFeedDeliversInOrder(t *testing.T) {
	var f Feed[int]
	var a, b []int
	f.Subscribe(func(v int) { a = append(a, v) })
	f.Subscribe(func(v int) { b = append(b, v*10) })

	f.Publish(1)
	f.Publish(2)

	if !slices.Equal(a, []int{1, 2}) || !slices.Equal(b, []int{10, 20}) {
		t.Errorf("unexpected deliveries a=%v b=%v", a, b)
	}
}

func TestFeedCancel(t *testing.T) {
	var f Feed[string]
	var got []string
	cancel := f.Subscribe(func(v string) { got = append(got, v) })

	f.Publish("before")
	cancel()
	cancel()
	f.Publish("after")

	if !slices.Equal(got, []string{"before"}) {
		t.Errorf("expected only the first value, got %v", got)
	}
	if f.Len() != 0 {
		t.Errorf("expected no subscribers, got %d", f.Len())
	}
}

func TestFeedCancelDuringPublish(t *testing.T) {
	var f Feed[AnnotationEvent]
	calls := 0
	var cancel func()
	cancel = f.Subscribe(func(AnnotationEvent) {
		calls++
		cancel()
	})

	ev := AnnotationEvent{Op: Created, Annotation: model.Annotation{ID: 1}}
	f.Publish(ev)
	f.Publish(ev)
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestOpString(t *testing.T) {
	if Deleted.String() != "deleted" || Op(99).String() != "unknown" {
		t.Errorf("unexpected Op strings: %s %s", Deleted, Op(99))
	}
}
