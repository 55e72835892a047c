package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/tracklane/pkg/model"
)

// AssertChannelCount checks the number of channels in a document.
func AssertChannelCount(t testing.TB, s model.State, expected int) {
	t.Helper()
	if got := len(s.Timeline.Channels); got != expected {
		t.Errorf("expected %d channels, got %d", expected, got)
	}
}

// AssertAnnotationCount checks the number of annotations in a document.
func AssertAnnotationCount(t testing.TB, s model.State, expected int) {
	t.Helper()
	if got := len(s.Timeline.Annotations); got != expected {
		t.Errorf("expected %d annotations, got %d", expected, got)
	}
}

// AssertNoDuplicateIDs checks channel and annotation ids are unique.
func AssertNoDuplicateIDs(t testing.TB, s model.State) {
	t.Helper()
	seen := make(map[int]bool)
	for _, c := range s.Timeline.Channels {
		if seen[c.ID] {
			t.Errorf("duplicate channel id: %d", c.ID)
		}
		seen[c.ID] = true
	}
	seen = make(map[int]bool)
	for _, a := range s.Timeline.Annotations {
		if seen[a.ID] {
			t.Errorf("duplicate annotation id: %d", a.ID)
		}
		seen[a.ID] = true
	}
}

// AssertReferencesValid checks that every parent and every annotation
// channel exists in the document.
func AssertReferencesValid(t testing.TB, s model.State) {
	t.Helper()
	chans := BuildChannelMap(s)
	for _, c := range s.Timeline.Channels {
		if c.ParentID != nil {
			if _, ok := chans[*c.ParentID]; !ok {
				t.Errorf("channel %d references missing parent %d", c.ID, *c.ParentID)
			}
		}
	}
	for _, a := range s.Timeline.Annotations {
		if _, ok := chans[a.ChannelID]; !ok {
			t.Errorf("annotation %d references missing channel %d", a.ID, a.ChannelID)
		}
	}
}

// AssertStatesEquivalent compares two documents ignoring element order.
func AssertStatesEquivalent(t testing.TB, expected, actual model.State) {
	t.Helper()
	if expected.Media.Src != actual.Media.Src {
		t.Errorf("media src: expected %q, got %q", expected.Media.Src, actual.Media.Src)
	}
	if expected.Timeline.StartTime != actual.Timeline.StartTime || expected.Timeline.EndTime != actual.Timeline.EndTime {
		t.Errorf("timeline domain: expected %v-%v, got %v-%v",
			expected.Timeline.StartTime, expected.Timeline.EndTime,
			actual.Timeline.StartTime, actual.Timeline.EndTime)
	}
	AssertJSONEqual(t, sortedChannels(expected), sortedChannels(actual))
	AssertJSONEqual(t, sortedAnnotations(expected), sortedAnnotations(actual))
}

func sortedChannels(s model.State) []model.ChannelState {
	out := append([]model.ChannelState{}, s.Timeline.Channels...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedAnnotations(s model.State) []model.AnnotationState {
	out := make([]model.AnnotationState, len(s.Timeline.Annotations))
	for i, a := range s.Timeline.Annotations {
		if a.Modifiers == nil {
			a.Modifiers = []model.Modifier{}
		}
		out[i] = a
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AssertJSONEqual compares two values after JSON round-tripping.
func AssertJSONEqual(t testing.TB, expected, actual any) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}
	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// Golden file helpers

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      testing.TB
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t testing.TB, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()
	if g.update {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}
	if string(expected) == actual {
		return
	}

	expectedLines := strings.Split(string(expected), "\n")
	actualLines := strings.Split(actual, "\n")
	for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
		var expLine, actLine string
		if i < len(expectedLines) {
			expLine = expectedLines[i]
		}
		if i < len(actualLines) {
			actLine = actualLines[i]
		}
		if expLine != actLine {
			g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s", i+1, expLine, actLine)
			return
		}
	}
	g.t.Errorf("golden file mismatch (length differs)")
}

// WriteStateFile writes s as JSON into dir and returns the path.
func WriteStateFile(t testing.TB, dir, name string, s model.State) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := model.SaveStateFile(path, s); err != nil {
		t.Fatalf("failed to write state file: %v", err)
	}
	return path
}

// BuildChannelMap indexes the channels of s by id.
func BuildChannelMap(s model.State) map[int]model.ChannelState {
	m := make(map[int]model.ChannelState, len(s.Timeline.Channels))
	for _, c := range s.Timeline.Channels {
		m[c.ID] = c
	}
	return m
}

// CountByKind counts annotations per kind.
func CountByKind(s model.State) map[model.Kind]int {
	counts := make(map[model.Kind]int)
	for _, a := range s.Timeline.Annotations {
		counts[model.ParseKind(a.Type)]++
	}
	return counts
}
