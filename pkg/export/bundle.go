package export

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/tracklane/pkg/debug"
	"github.com/vanderheijden86/tracklane/pkg/metrics"
	"github.com/vanderheijden86/tracklane/pkg/model"
)

// Format names one export output.
type Format string

const (
	FormatJSON   Format = "json"
	FormatSQLite Format = "sqlite"
	FormatSVG    Format = "svg"
	FormatPNG    Format = "png"
	FormatPDF    Format = "pdf"
)

// AllFormats lists every supported format in bundle order.
var AllFormats = []Format{FormatJSON, FormatSQLite, FormatSVG, FormatPNG, FormatPDF}

// Ext returns the file extension written for f.
func (f Format) Ext() string {
	if f == FormatSQLite {
		return ".sqlite3"
	}
	return "." + string(f)
}

// ParseFormats parses a comma separated list such as "json,svg". "all"
// selects every format. Duplicates are dropped.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		switch name {
		case "":
			continue
		case "all":
			return slices.Clone(AllFormats), nil
		case "db", "sqlite3":
			name = string(FormatSQLite)
		}
		f := Format(name)
		if !slices.Contains(AllFormats, f) {
			return nil, fmt.Errorf("unknown export format %q", part)
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no export format given")
	}
	return out, nil
}

// BundleResult reports one written file.
type BundleResult struct {
	Format   Format
	Path     string
	Duration time.Duration
}

// ExportBundle writes doc in every requested format into dir, using base as
// the file name stem. Formats are written concurrently; the first failure
// cancels the rest.
func ExportBundle(ctx context.Context, doc *Document, dir, base string, formats []Format) ([]BundleResult, error) {
	if base == "" {
		base = "timeline"
	}
	results := make([]BundleResult, len(formats))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, f := range formats {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, base+f.Ext())
			start := time.Now()
			if err := WriteFormat(ctx, doc, f, path); err != nil {
				return fmt.Errorf("%s export: %w", f, err)
			}
			results[i] = BundleResult{Format: f, Path: path, Duration: time.Since(start)}
			debug.Log("export: wrote %s in %v", path, results[i].Duration)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// WriteFormat writes doc to path in a single format.
func WriteFormat(ctx context.Context, doc *Document, f Format, path string) error {
	defer metrics.Timer(metrics.Export)()
	switch f {
	case FormatJSON:
		return model.SaveStateFile(path, doc.State)
	case FormatSQLite:
		return ExportSQLite(ctx, doc, path)
	case FormatSVG, FormatPNG:
		return SaveTimelineSnapshot(doc, SnapshotOptions{Path: path, Format: string(f)})
	case FormatPDF:
		return ExportPDF(doc, path)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}
