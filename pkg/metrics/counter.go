package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
	"text/tabwriter"
)

// Counter is a monotonically increasing event count.
type Counter struct {
	name string
	n    atomic.Int64
}

func newCounter(name string) *Counter {
	return &Counter{name: name}
}

// Inc adds one.
func (c *Counter) Inc() {
	if Enabled() {
		c.n.Add(1)
	}
}

// Name returns the counter name.
func (c *Counter) Name() string { return c.name }

// Value returns the current count.
func (c *Counter) Value() int64 { return c.n.Load() }

// Reset sets the count to zero.
func (c *Counter) Reset() { c.n.Store(0) }

var (
	CommandsRecorded = newCounter("commands_recorded")
	Undos            = newCounter("undos")
	Redos            = newCounter("redos")
	RejectedEdits    = newCounter("rejected_edits")
)

// AllCounters returns every registered counter.
func AllCounters() []*Counter {
	return []*Counter{CommandsRecorded, Undos, Redos, RejectedEdits}
}

// WriteReport prints every metric with data as an aligned table.
func WriteReport(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tCOUNT\tAVG ms\tMAX ms\tTOTAL ms")
	for _, s := range AllTimingStats() {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.3f\n", s.Name, s.Count, s.AvgMs, s.MaxMs, s.TotalMs)
	}
	for _, c := range AllCounters() {
		if v := c.Value(); v > 0 {
			fmt.Fprintf(tw, "%s\t%d\t\t\t\n", c.Name(), v)
		}
	}
	return tw.Flush()
}
