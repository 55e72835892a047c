package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/tracklane/pkg/model"
)

// SourceDiff represents differences between two documents.
type SourceDiff struct {
	SourceA string
	SourceB string
	// Annotation ids present in B but not in A, and the other way round.
	MissingInA []int
	MissingInB []int
	// Annotation ids present in both with different content.
	Changed []int
	CountA  int
	CountB  int
}

// HasInconsistencies returns true if there are any differences between sources
func (d SourceDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 || len(d.Changed) > 0
}

// Summary returns a human-readable summary of the differences
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d annotations each)", d.CountA)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Inconsistencies found between %s and %s:\n", d.SourceA, d.SourceB)
	if d.CountA != d.CountB {
		fmt.Fprintf(&b, "  - Count mismatch: %d vs %d\n", d.CountA, d.CountB)
	}
	if len(d.MissingInA) > 0 {
		fmt.Fprintf(&b, "  - %d annotations only in %s\n", len(d.MissingInA), d.SourceB)
	}
	if len(d.MissingInB) > 0 {
		fmt.Fprintf(&b, "  - %d annotations only in %s\n", len(d.MissingInB), d.SourceA)
	}
	if len(d.Changed) > 0 {
		fmt.Fprintf(&b, "  - %d annotations differ\n", len(d.Changed))
	}
	return b.String()
}

// CompareStates compares the annotations of two documents by id.
func CompareStates(pathA string, a model.State, pathB string, b model.State) SourceDiff {
	d := SourceDiff{
		SourceA: pathA,
		SourceB: pathB,
		CountA:  len(a.Timeline.Annotations),
		CountB:  len(b.Timeline.Annotations),
	}
	inA := make(map[int]model.Annotation, d.CountA)
	for _, as := range a.Timeline.Annotations {
		inA[as.ID] = model.AnnotationFromState(as)
	}
	seen := make(map[int]bool, d.CountB)
	for _, bs := range b.Timeline.Annotations {
		seen[bs.ID] = true
		av, ok := inA[bs.ID]
		if !ok {
			d.MissingInA = append(d.MissingInA, bs.ID)
			continue
		}
		if !av.Equal(model.AnnotationFromState(bs)) {
			d.Changed = append(d.Changed, bs.ID)
		}
	}
	for id := range inA {
		if !seen[id] {
			d.MissingInB = append(d.MissingInB, id)
		}
	}
	sort.Ints(d.MissingInA)
	sort.Ints(d.MissingInB)
	sort.Ints(d.Changed)
	return d
}
