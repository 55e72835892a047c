package datasource_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/tracklane/internal/datasource"
	"github.com/vanderheijden86/tracklane/pkg/export"
	"github.com/vanderheijden86/tracklane/pkg/model"
)

func intp(v int) *int { return &v }

func sampleState() model.State {
	s, err := model.ParseState([]byte(`{"media": {"src": "clip.mp4", "volume": 0.8}, "timeline": {}}`))
	if err != nil {
		panic(err)
	}
	s.Timeline = model.TimelineState{
		StartTime: 0,
		EndTime:   20000,
		Channels: []model.ChannelState{
			{ID: 0, Name: "root"},
			{ID: 1, ParentID: intp(0), Name: "child", AllowedAnnotationIDs: []string{"a", "b"}},
			{ID: 2, ParentID: intp(0), Name: "empty-restriction", AllowedAnnotationIDs: []string{}},
		},
		Annotations: []model.AnnotationState{
			{ID: 5, ChannelID: 1, Type: "interval", Value: "a", StartTime: 100, EndTime: 900,
				StartFrame: 2, EndFrame: 22, Modifiers: []model.Modifier{{Key: "z", Value: "1"}, {Key: "a", Value: "2"}}},
			{ID: 6, ChannelID: 0, Type: "instant", Value: "mark", StartTime: 50, EndTime: 50, Modifiers: []model.Modifier{}},
		},
	}
	return s
}

func writeSQLite(t *testing.T, path string, s model.State) {
	t.Helper()
	doc, err := export.NewDocument("test", "sess", s)
	if err != nil {
		t.Fatal(err)
	}
	if err := export.ExportSQLite(context.Background(), doc, path); err != nil {
		t.Fatalf("ExportSQLite: %v", err)
	}
}

func writeJSON(t *testing.T, path string, s model.State) {
	t.Helper()
	if err := model.SaveStateFile(path, s); err != nil {
		t.Fatal(err)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.sqlite3")
	want := sampleState()
	writeSQLite(t, path, want)

	r, err := datasource.NewSQLiteReader(datasource.DataSource{Type: datasource.SourceTypeSQLite, Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := r.LoadState(context.Background())
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if got.Media.Src != "clip.mp4" || string(got.Media.Extra["volume"]) != "0.8" {
		t.Errorf("media lost: %+v", got.Media)
	}
	if got.Timeline.EndTime != 20000 {
		t.Errorf("EndTime = %v", got.Timeline.EndTime)
	}

	chans := map[int]model.Channel{}
	for _, cs := range got.Timeline.Channels {
		chans[cs.ID] = model.ChannelFromState(cs)
	}
	for _, cs := range want.Timeline.Channels {
		if w := model.ChannelFromState(cs); !chans[cs.ID].Equal(w) {
			t.Errorf("channel %d = %+v, want %+v", cs.ID, chans[cs.ID], w)
		}
	}

	d := datasource.CompareStates("want", want, "got", got)
	if d.HasInconsistencies() {
		t.Errorf("annotations differ after round trip:\n%s", d.Summary())
	}

	meta, err := r.Meta(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if meta["session_id"] != "sess" || meta["title"] != "test" {
		t.Errorf("meta = %v", meta)
	}
}

func TestDiscoverAndSelectFreshest(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "tracklane.json")
	dbPath := filepath.Join(dir, "tracklane.sqlite3")

	older := sampleState()
	writeSQLite(t, dbPath, older)
	newer := sampleState()
	newer.Timeline.Annotations = newer.Timeline.Annotations[:1]
	writeJSON(t, jsonPath, newer)

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(dbPath, past, past); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	sources, err := datasource.DiscoverSources(context.Background(),
		datasource.DiscoveryOptions{Dir: dir, Validate: true, IncludeInvalid: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 3 {
		t.Fatalf("expected 3 sources, got %v", sources)
	}
	valid := 0
	for _, s := range sources {
		if s.Valid {
			valid++
		}
	}
	if valid != 2 {
		t.Errorf("expected 2 valid sources, got %d", valid)
	}

	best, err := datasource.SelectBestSource(sources)
	if err != nil {
		t.Fatal(err)
	}
	if best.Path != jsonPath || best.AnnotationCount != 1 {
		t.Errorf("best = %s", best)
	}

	s, src, err := datasource.LoadState(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if src.Path != jsonPath || len(s.Timeline.Annotations) != 1 {
		t.Errorf("LoadState picked %s with %d annotations", src.Path, len(s.Timeline.Annotations))
	}
}

func TestSQLitePreferredOnTie(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "a.json")
	dbPath := filepath.Join(dir, "a.db")
	writeJSON(t, jsonPath, sampleState())
	writeSQLite(t, dbPath, sampleState())

	same := time.Now().Add(-time.Minute).Truncate(time.Second)
	for _, p := range []string{jsonPath, dbPath} {
		if err := os.Chtimes(p, same, same); err != nil {
			t.Fatal(err)
		}
	}
	_, src, err := datasource.LoadState(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if src.Type != datasource.SourceTypeSQLite {
		t.Errorf("expected SQLite on equal mod time, got %s", src.Type)
	}
}

func TestLoadStateNoSources(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := datasource.LoadState(context.Background(), dir)
	if !errors.Is(err, datasource.ErrNoSources) {
		t.Errorf("expected ErrNoSources, got %v", err)
	}
}

func TestNewSQLiteReaderRejectsJSON(t *testing.T) {
	if _, err := datasource.NewSQLiteReader(datasource.DataSource{Type: datasource.SourceTypeJSON}); err == nil {
		t.Error("expected error for a JSON source")
	}
}

func TestCompareStates(t *testing.T) {
	a := sampleState()
	b := sampleState()
	b.Timeline.Annotations[0].Value = "b"
	b.Timeline.Annotations = append(b.Timeline.Annotations[:1],
		model.AnnotationState{ID: 9, ChannelID: 0, Type: "instant", Value: "x"})

	d := datasource.CompareStates("a", a, "b", b)
	if len(d.Changed) != 1 || d.Changed[0] != 5 {
		t.Errorf("Changed = %v", d.Changed)
	}
	if len(d.MissingInA) != 1 || d.MissingInA[0] != 9 {
		t.Errorf("MissingInA = %v", d.MissingInA)
	}
	if len(d.MissingInB) != 1 || d.MissingInB[0] != 6 {
		t.Errorf("MissingInB = %v", d.MissingInB)
	}
	if !d.HasInconsistencies() || d.Summary() == "" {
		t.Error("expected inconsistencies")
	}
}
