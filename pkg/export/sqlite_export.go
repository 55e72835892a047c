package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/tracklane/pkg/debug"
	"github.com/vanderheijden86/tracklane/pkg/version"
)

// ExportSQLite writes doc to a fresh SQLite database at path.
func ExportSQLite(ctx context.Context, doc *Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	dbClosed := false
	defer func() {
		if !dbClosed {
			db.Close()
		}
	}()

	if err := CreateSchema(db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := insertChannels(ctx, db, doc); err != nil {
		return fmt.Errorf("insert channels: %w", err)
	}
	if err := insertAnnotations(ctx, db, doc); err != nil {
		return fmt.Errorf("insert annotations: %w", err)
	}
	if err := CreateFTSIndex(db); err != nil {
		debug.Warn("export: FTS5 not available: %v", err)
	}
	if err := insertMeta(db, doc); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}
	if err := OptimizeDatabase(db); err != nil {
		return fmt.Errorf("optimize database: %w", err)
	}

	if err := db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	dbClosed = true
	return nil
}

func insertChannels(ctx context.Context, db *sql.DB, doc *Document) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO channels (id, parent_id, name, allowed_types, depth, position)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, lane := range doc.Channels {
		ch := lane.Channel
		var parent any
		if !ch.IsRoot() {
			parent = int(ch.ParentID)
		}
		var allowed any
		if ch.AllowedTypes != nil {
			b, err := json.Marshal(ch.AllowedTypes)
			if err != nil {
				return err
			}
			allowed = string(b)
		}
		if _, err := stmt.ExecContext(ctx, int(ch.ID), parent, ch.Name, allowed, lane.Depth, i); err != nil {
			return fmt.Errorf("channel %d: %w", ch.ID, err)
		}
	}
	return tx.Commit()
}

func insertAnnotations(ctx context.Context, db *sql.DB, doc *Document) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	annStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO annotations (id, channel_id, kind, value, start_time, end_time, start_frame, end_frame)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer annStmt.Close()

	modStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO modifiers (annotation_id, position, key, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer modStmt.Close()

	for _, a := range doc.Annotations {
		if _, err := annStmt.ExecContext(ctx, int(a.ID), int(a.ChannelID), string(a.Kind), a.Value,
			a.Start, a.End, a.StartFrame, a.EndFrame); err != nil {
			return fmt.Errorf("annotation %d: %w", a.ID, err)
		}
		for i, m := range a.Modifiers {
			if _, err := modStmt.ExecContext(ctx, int(a.ID), i, m.Key, m.Value); err != nil {
				return fmt.Errorf("annotation %d modifier %d: %w", a.ID, i, err)
			}
		}
	}
	return tx.Commit()
}

func insertMeta(db *sql.DB, doc *Document) error {
	extra := "{}"
	if len(doc.State.Media.Extra) > 0 {
		b, err := json.Marshal(doc.State.Media.Extra)
		if err != nil {
			return err
		}
		extra = string(b)
	}
	values := [][2]string{
		{"schema_version", strconv.Itoa(SchemaVersion)},
		{"version", version.Version},
		{"title", doc.Title},
		{"session_id", doc.SessionID},
		{"exported_at", doc.Created.Format(time.RFC3339)},
		{"media_src", doc.State.Media.Src},
		{"media_extra", extra},
		{"start_time", strconv.FormatFloat(doc.State.Timeline.StartTime, 'g', -1, 64)},
		{"end_time", strconv.FormatFloat(doc.State.Timeline.EndTime, 'g', -1, 64)},
	}
	for _, kv := range values {
		if err := InsertMetaValue(db, kv[0], kv[1]); err != nil {
			return fmt.Errorf("meta %s: %w", kv[0], err)
		}
	}
	return nil
}
