package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/tracklane/pkg/debug"
	"github.com/vanderheijden86/tracklane/pkg/model"
)

// SQLiteReader provides read access to a tracklane SQLite export.
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite export for reading.
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("datasource: %s: %v", pragma, err)
		}
	}
	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Counts returns the number of channels and annotations in the export.
func (r *SQLiteReader) Counts(ctx context.Context) (channels, annotations int, err error) {
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM channels").Scan(&channels); err != nil {
		return 0, 0, fmt.Errorf("counting channels: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM annotations").Scan(&annotations); err != nil {
		return 0, 0, fmt.Errorf("counting annotations: %w", err)
	}
	return channels, annotations, nil
}

// Meta returns the key/value pairs of the meta table.
func (r *SQLiteReader) Meta(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}
	defer rows.Close()
	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// LoadState reads the whole export back into a State document.
func (r *SQLiteReader) LoadState(ctx context.Context) (model.State, error) {
	var s model.State

	meta, err := r.Meta(ctx)
	if err != nil {
		return s, err
	}
	s.Media.Src = meta["media_src"]
	if extra := meta["media_extra"]; extra != "" {
		if err := json.Unmarshal([]byte(extra), &s.Media.Extra); err != nil {
			debug.Warn("datasource: bad media_extra in %s: %v", r.path, err)
		}
		if len(s.Media.Extra) == 0 {
			s.Media.Extra = nil
		}
	}
	s.Timeline.StartTime = parseFloat(meta["start_time"])
	s.Timeline.EndTime = parseFloat(meta["end_time"])

	if s.Timeline.Channels, err = r.loadChannels(ctx); err != nil {
		return s, err
	}
	if s.Timeline.Annotations, err = r.loadAnnotations(ctx); err != nil {
		return s, err
	}
	return s, nil
}

func (r *SQLiteReader) loadChannels(ctx context.Context) ([]model.ChannelState, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, parent_id, name, allowed_types FROM channels ORDER BY position, id")
	if err != nil {
		return nil, fmt.Errorf("reading channels: %w", err)
	}
	defer rows.Close()

	var out []model.ChannelState
	for rows.Next() {
		var cs model.ChannelState
		var parent sql.NullInt64
		var allowed sql.NullString
		if err := rows.Scan(&cs.ID, &parent, &cs.Name, &allowed); err != nil {
			return nil, fmt.Errorf("scanning channel: %w", err)
		}
		if parent.Valid {
			p := int(parent.Int64)
			cs.ParentID = &p
		}
		if allowed.Valid {
			cs.AllowedAnnotationIDs = parseStringArray(allowed.String)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (r *SQLiteReader) loadAnnotations(ctx context.Context) ([]model.AnnotationState, error) {
	mods, err := r.loadModifiers(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, channel_id, kind, value, start_time, end_time, start_frame, end_frame
		FROM annotations
		ORDER BY start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("reading annotations: %w", err)
	}
	defer rows.Close()

	var out []model.AnnotationState
	for rows.Next() {
		var as model.AnnotationState
		if err := rows.Scan(&as.ID, &as.ChannelID, &as.Type, &as.Value,
			&as.StartTime, &as.EndTime, &as.StartFrame, &as.EndFrame); err != nil {
			return nil, fmt.Errorf("scanning annotation: %w", err)
		}
		as.Modifiers = mods[as.ID]
		if as.Modifiers == nil {
			as.Modifiers = []model.Modifier{}
		}
		out = append(out, as)
	}
	return out, rows.Err()
}

func (r *SQLiteReader) loadModifiers(ctx context.Context) (map[int][]model.Modifier, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT annotation_id, key, value FROM modifiers ORDER BY annotation_id, position")
	if err != nil {
		return nil, fmt.Errorf("reading modifiers: %w", err)
	}
	defer rows.Close()

	out := make(map[int][]model.Modifier)
	for rows.Next() {
		var id int
		var m model.Modifier
		if err := rows.Scan(&id, &m.Key, &m.Value); err != nil {
			return nil, fmt.Errorf("scanning modifier: %w", err)
		}
		out[id] = append(out[id], m)
	}
	return out, rows.Err()
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseStringArray(s string) []string {
	out := []string{}
	if s == "" {
		return out
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return []string{}
	}
	return out
}
