package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/tracklane/pkg/annotator"
	"github.com/vanderheijden86/tracklane/pkg/testutil"
)

func TestOpenDocumentFile(t *testing.T) {
	dir := t.TempDir()
	s := testutil.QuickTree(2, 2, 10)
	path := testutil.WriteStateFile(t, dir, "match.json", s)

	doc, err := openDocument(context.Background(), path, "")
	if err != nil {
		t.Fatalf("openDocument: %v", err)
	}
	if doc.Path != path {
		t.Errorf("Path = %q, want %q", doc.Path, path)
	}
	if doc.Title != "match.json" {
		t.Errorf("Title = %q", doc.Title)
	}
	testutil.AssertChannelCount(t, doc.State, len(s.Timeline.Channels))
	testutil.AssertAnnotationCount(t, doc.State, len(s.Timeline.Annotations))
}

func TestOpenDocumentMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.json")
	doc, err := openDocument(context.Background(), path, "")
	if err != nil {
		t.Fatalf("openDocument: %v", err)
	}
	if doc.Path != path {
		t.Errorf("Path = %q", doc.Path)
	}
	if !strings.HasPrefix(doc.Notice, "new document") {
		t.Errorf("Notice = %q", doc.Notice)
	}
	if len(doc.State.Timeline.Channels) != 0 {
		t.Errorf("expected empty state, got %d channels", len(doc.State.Timeline.Channels))
	}
}

func TestOpenDocumentDirectory(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		dir := t.TempDir()
		doc, err := openDocument(context.Background(), "", dir)
		if err != nil {
			t.Fatalf("openDocument: %v", err)
		}
		if want := filepath.Join(dir, "tracklane.json"); doc.Path != want {
			t.Errorf("Path = %q, want %q", doc.Path, want)
		}
		if doc.Notice == "" {
			t.Error("expected a notice for a new document")
		}
	})

	t.Run("directory argument", func(t *testing.T) {
		dir := t.TempDir()
		s := testutil.QuickTree(1, 3, 5)
		path := testutil.WriteStateFile(t, dir, "timeline.json", s)
		doc, err := openDocument(context.Background(), dir, "")
		if err != nil {
			t.Fatalf("openDocument: %v", err)
		}
		if doc.Path != path {
			t.Errorf("Path = %q, want %q", doc.Path, path)
		}
		testutil.AssertAnnotationCount(t, doc.State, len(s.Timeline.Annotations))
	})

	t.Run("env override", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteStateFile(t, dir, "tracklane.json", testutil.QuickTree(1, 1, 1))
		t.Setenv("TRACKLANE_DIR", dir)
		doc, err := openDocument(context.Background(), "", "")
		if err != nil {
			t.Fatalf("openDocument: %v", err)
		}
		if filepath.Dir(doc.Path) != dir {
			t.Errorf("Path = %q, want a file in %q", doc.Path, dir)
		}
	})
}

func TestOpenDocumentBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := openDocument(context.Background(), path, "")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if doc.Path != path {
		t.Errorf("a broken file still saves back to its path, got %q", doc.Path)
	}
}

func TestRunExport(t *testing.T) {
	dir := t.TempDir()
	s := testutil.QuickTree(2, 2, 8)
	path := testutil.WriteStateFile(t, dir, "match.json", s)
	doc, err := openDocument(context.Background(), path, "")
	if err != nil {
		t.Fatal(err)
	}
	a := annotator.New()
	a.ReadState(doc.State)

	out := filepath.Join(dir, "out")
	if err := runExport(context.Background(), a, doc, "json,svg", out, false); err != nil {
		t.Fatalf("runExport: %v", err)
	}
	for _, name := range []string{"match.json", "match.svg"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	if err := runExport(context.Background(), a, doc, "", out, false); err == nil {
		t.Error("expected an error without formats")
	}
}
