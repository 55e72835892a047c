// Package datasource discovers the documents a project directory holds,
// validates them and picks the freshest one to open. A project may carry a
// JSON state file next to a SQLite export of the same session; whichever
// was written last wins, with SQLite preferred on a tie.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/tracklane/pkg/debug"
	"github.com/vanderheijden86/tracklane/pkg/loader"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeSQLite is a SQLite export (*.db, *.sqlite)
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSON is a JSON state document
	SourceTypeJSON SourceType = "json"
)

// Priority values for source types (higher = preferred on equal mod time)
const (
	PrioritySQLite = 100
	PriorityJSON   = 50
)

// ErrNoSources is returned when discovery finds nothing usable.
var ErrNoSources = errors.New("no valid sources discovered")

// DataSource represents a potential source of a document.
type DataSource struct {
	Type            SourceType `json:"type"`
	Path            string     `json:"path"`
	Priority        int        `json:"priority"`
	ModTime         time.Time  `json:"mod_time"`
	Size            int64      `json:"size"`
	Valid           bool       `json:"valid"`
	ValidationError string     `json:"validation_error,omitempty"`
	// Set during validation.
	ChannelCount    int `json:"channel_count"`
	AnnotationCount int `json:"annotation_count"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, channels=%d, annotations=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339),
		s.ChannelCount, s.AnnotationCount, status)
}

// DiscoveryOptions configures source discovery behavior
type DiscoveryOptions struct {
	// Dir is the project directory (TRACKLANE_DIR or cwd if empty)
	Dir string
	// Validate runs validation on each discovered source
	Validate bool
	// IncludeInvalid keeps sources that failed validation
	IncludeInvalid bool
}

var sqliteExts = []string{".db", ".sqlite", ".sqlite3"}

// DiscoverSources finds candidate documents in the project directory,
// sorted freshest first.
func DiscoverSources(ctx context.Context, opts DiscoveryOptions) ([]DataSource, error) {
	dir, err := loader.ProjectDir(opts.Dir)
	if err != nil {
		return nil, err
	}
	debug.Log("datasource: discovering sources in %s", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read project directory: %w", err)
	}

	var sources []DataSource
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		src, ok := classify(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		src.Path = filepath.Join(dir, e.Name())
		src.ModTime = info.ModTime()
		src.Size = info.Size()
		sources = append(sources, src)
		debug.Log("datasource: found %s %s", src.Type, src.Path)
	}

	if opts.Validate {
		if err := validateAll(ctx, sources); err != nil {
			return nil, err
		}
		if !opts.IncludeInvalid {
			valid := sources[:0]
			for _, s := range sources {
				if s.Valid {
					valid = append(valid, s)
				}
			}
			sources = valid
		}
	}

	sortSources(sources)
	return sources, nil
}

func classify(name string) (DataSource, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".json" {
		if strings.Contains(name, ".backup") || strings.Contains(name, ".orig") {
			return DataSource{}, false
		}
		return DataSource{Type: SourceTypeJSON, Priority: PriorityJSON}, true
	}
	for _, e := range sqliteExts {
		if ext == e {
			return DataSource{Type: SourceTypeSQLite, Priority: PrioritySQLite}, true
		}
	}
	return DataSource{}, false
}

// validateAll validates sources concurrently. Individual failures are
// recorded on the source; only cancellation aborts.
func validateAll(ctx context.Context, sources []DataSource) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := ValidateSource(ctx, &sources[i]); err != nil {
				debug.Log("datasource: %s failed validation: %v", sources[i].Path, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func sortSources(sources []DataSource) {
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})
}

// ValidateSource opens the source, counts its content and records the
// outcome on s.
func ValidateSource(ctx context.Context, s *DataSource) error {
	err := validate(ctx, s)
	s.Valid = err == nil
	if err != nil {
		s.ValidationError = err.Error()
	} else {
		s.ValidationError = ""
	}
	return err
}

func validate(ctx context.Context, s *DataSource) error {
	if s.Size == 0 {
		return errors.New("empty file")
	}
	switch s.Type {
	case SourceTypeJSON:
		st, err := loader.LoadFile(s.Path)
		if err != nil {
			return err
		}
		s.ChannelCount = len(st.Timeline.Channels)
		s.AnnotationCount = len(st.Timeline.Annotations)
		return nil
	case SourceTypeSQLite:
		r, err := NewSQLiteReader(*s)
		if err != nil {
			return err
		}
		defer r.Close()
		ch, an, err := r.Counts(ctx)
		if err != nil {
			return err
		}
		s.ChannelCount, s.AnnotationCount = ch, an
		return nil
	default:
		return fmt.Errorf("unknown source type: %s", s.Type)
	}
}

// SelectBestSource returns the freshest valid source.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	var valid []DataSource
	for _, s := range sources {
		if s.Valid {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return DataSource{}, ErrNoSources
	}
	sortSources(valid)
	return valid[0], nil
}
