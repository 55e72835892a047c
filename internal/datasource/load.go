package datasource

import (
	"context"
	"fmt"

	"github.com/vanderheijden86/tracklane/pkg/debug"
	"github.com/vanderheijden86/tracklane/pkg/loader"
	"github.com/vanderheijden86/tracklane/pkg/model"
)

// LoadState discovers the sources in dir, picks the freshest valid one and
// reads it. When the two freshest sources disagree the difference is logged.
func LoadState(ctx context.Context, dir string) (model.State, DataSource, error) {
	sources, err := DiscoverSources(ctx, DiscoveryOptions{Dir: dir, Validate: true})
	if err != nil {
		return model.State{}, DataSource{}, err
	}
	best, err := SelectBestSource(sources)
	if err != nil {
		return model.State{}, DataSource{}, fmt.Errorf("%s: %w", dir, err)
	}

	s, err := LoadFromSource(ctx, best)
	if err != nil {
		return model.State{}, best, err
	}

	if len(sources) > 1 && debug.Enabled() {
		if other, err := LoadFromSource(ctx, sources[1]); err == nil {
			if d := CompareStates(best.Path, s, sources[1].Path, other); d.HasInconsistencies() {
				debug.Log("datasource: %s", d.Summary())
			}
		}
	}
	return s, best, nil
}

// LoadFromSource reads a State from a specific DataSource.
func LoadFromSource(ctx context.Context, source DataSource) (model.State, error) {
	switch source.Type {
	case SourceTypeSQLite:
		r, err := NewSQLiteReader(source)
		if err != nil {
			return model.State{}, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer r.Close()
		return r.LoadState(ctx)
	case SourceTypeJSON:
		return loader.LoadFile(source.Path)
	default:
		return model.State{}, fmt.Errorf("unknown source type: %s", source.Type)
	}
}
