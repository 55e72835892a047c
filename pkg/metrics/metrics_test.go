package metrics

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestTimingMetricRecord(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("test")
	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	s := m.Stats()
	if s.Count != 2 {
		t.Errorf("expected count 2, got %d", s.Count)
	}
	if s.AvgMs != 3 {
		t.Errorf("expected avg 3ms, got %v", s.AvgMs)
	}
	if s.MinMs != 2 || s.MaxMs != 4 {
		t.Errorf("expected min 2 max 4, got %v %v", s.MinMs, s.MaxMs)
	}

	m.Reset()
	if m.Count() != 0 {
		t.Errorf("expected reset count 0, got %d", m.Count())
	}
}

func TestDisabledRecordsNothing(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := newTimingMetric("off")
	Timer(m)()
	c := newCounter("off")
	c.Inc()
	if m.Count() != 0 || c.Value() != 0 {
		t.Errorf("disabled metrics recorded: timing=%d counter=%d", m.Count(), c.Value())
	}
}

func TestWriteReport(t *testing.T) {
	SetEnabled(true)
	ResetAll()
	defer ResetAll()

	HistoryApply.Record(time.Millisecond)
	Undos.Inc()

	var buf bytes.Buffer
	if err := WriteReport(&buf); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"history_apply", "undos"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "redos") {
		t.Errorf("report lists an empty counter:\n%s", out)
	}
}
