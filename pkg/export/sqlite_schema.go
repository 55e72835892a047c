package export

import (
	"database/sql"
	"fmt"

	"github.com/vanderheijden86/tracklane/pkg/debug"
)

// SchemaVersion is stored in the meta table of every export.
const SchemaVersion = 1

// CreateSchema creates all tables and indexes in the database.
func CreateSchema(db *sql.DB) error {
	if err := createCoreTables(db); err != nil {
		return fmt.Errorf("create core tables: %w", err)
	}
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	if err := createMetaTable(db); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	return nil
}

// createCoreTables creates the channels, annotations and modifiers tables.
func createCoreTables(db *sql.DB) error {
	stmts := []struct{ name, sql string }{
		{"channels", `
			CREATE TABLE IF NOT EXISTS channels (
				id INTEGER PRIMARY KEY,
				parent_id INTEGER,
				name TEXT NOT NULL,
				allowed_types TEXT,
				depth INTEGER NOT NULL DEFAULT 0,
				position INTEGER NOT NULL
			)`},
		{"annotations", `
			CREATE TABLE IF NOT EXISTS annotations (
				id INTEGER PRIMARY KEY,
				channel_id INTEGER NOT NULL,
				kind TEXT NOT NULL,
				value TEXT NOT NULL,
				start_time REAL NOT NULL,
				end_time REAL NOT NULL,
				start_frame INTEGER NOT NULL DEFAULT 0,
				end_frame INTEGER NOT NULL DEFAULT 0,
				FOREIGN KEY (channel_id) REFERENCES channels(id)
			)`},
		// position keeps modifier order, which is significant.
		{"modifiers", `
			CREATE TABLE IF NOT EXISTS modifiers (
				annotation_id INTEGER NOT NULL,
				position INTEGER NOT NULL,
				key TEXT NOT NULL,
				value TEXT NOT NULL,
				PRIMARY KEY (annotation_id, position),
				FOREIGN KEY (annotation_id) REFERENCES annotations(id)
			)`},
	}
	for _, s := range stmts {
		if _, err := db.Exec(s.sql); err != nil {
			return fmt.Errorf("create %s table: %w", s.name, err)
		}
	}
	return nil
}

func createIndexes(db *sql.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_channels_parent ON channels(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_channel ON annotations(channel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_time ON annotations(start_time, end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_value ON annotations(value)`,
	}
	for _, s := range indexes {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func createMetaTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`)
	return err
}

// CreateFTSIndex creates a full-text index over annotation values and
// modifier values. Call it after the data is inserted.
func CreateFTSIndex(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS annotations_fts USING fts5(
			annotation_id UNINDEXED,
			value,
			modifiers,
			tokenize='unicode61'
		)`); err != nil {
		return fmt.Errorf("create FTS5 table: %w", err)
	}
	if _, err := db.Exec(`
		INSERT INTO annotations_fts (annotation_id, value, modifiers)
		SELECT a.id, a.value,
			COALESCE((SELECT GROUP_CONCAT(m.key || '=' || m.value, ' ')
				FROM modifiers m WHERE m.annotation_id = a.id), '')
		FROM annotations a`); err != nil {
		return fmt.Errorf("populate FTS index: %w", err)
	}
	return nil
}

// OptimizeDatabase compacts the file. Call it as the final step before
// closing the database.
func OptimizeDatabase(db *sql.DB) error {
	for _, s := range []string{`PRAGMA journal_mode=DELETE`, `ANALYZE`, `PRAGMA optimize`} {
		if _, err := db.Exec(s); err != nil {
			debug.Log("export: %s: %v", s, err)
		}
	}
	if _, err := db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

// InsertMetaValue inserts or updates a metadata key-value pair.
func InsertMetaValue(db *sql.DB, key, value string) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value)
	return err
}
