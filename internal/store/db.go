package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SchemaVersion is written to PRAGMA user_version once migrations apply
// cleanly.
const SchemaVersion = 1

// schema is the full set of idempotent DDL statements applied in order at
// startup: tables, indexes, the FTS5 shadow index, and the triggers that
// keep it synchronized with memory_card.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS memory_card (
		card_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		body TEXT,
		note_type TEXT NOT NULL,
		source_reference TEXT,
		origin_conversation_id TEXT,
		origin_message_excerpt TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		last_recalled_at TEXT,
		recall_count INTEGER NOT NULL DEFAULT 0,
		duplicate_of_id TEXT REFERENCES memory_card(card_id),
		archived INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_memory_card_updated_at ON memory_card(updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_memory_card_recall_count ON memory_card(recall_count)`,

	`CREATE TABLE IF NOT EXISTS memory_card_revision (
		revision_id TEXT PRIMARY KEY,
		card_id TEXT NOT NULL REFERENCES memory_card(card_id),
		snapshot_json TEXT NOT NULL,
		change_type TEXT NOT NULL,
		changed_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_revision_card_changed ON memory_card_revision(card_id, changed_at)`,

	`CREATE TABLE IF NOT EXISTS tag (
		tag_id TEXT PRIMARY KEY,
		slug TEXT NOT NULL,
		label TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tag_slug ON tag(slug)`,

	`CREATE TABLE IF NOT EXISTS memory_card_tag (
		card_id TEXT NOT NULL REFERENCES memory_card(card_id),
		tag_id TEXT NOT NULL REFERENCES tag(tag_id),
		added_at TEXT NOT NULL,
		PRIMARY KEY (card_id, tag_id)
	)`,

	`CREATE TABLE IF NOT EXISTS audit_log (
		audit_id TEXT PRIMARY KEY,
		card_id TEXT REFERENCES memory_card(card_id),
		action TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		happened_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_card_happened ON audit_log(card_id, happened_at)`,

	`CREATE VIRTUAL TABLE IF NOT EXISTS memory_card_search USING fts5(
		card_id UNINDEXED, title, summary, body
	)`,

	`CREATE TRIGGER IF NOT EXISTS trg_memory_card_ai AFTER INSERT ON memory_card BEGIN
		INSERT INTO memory_card_search(card_id, title, summary, body)
		VALUES (new.card_id, new.title, new.summary, new.body);
	END`,
	`CREATE TRIGGER IF NOT EXISTS trg_memory_card_au AFTER UPDATE ON memory_card BEGIN
		DELETE FROM memory_card_search WHERE card_id = old.card_id;
		INSERT INTO memory_card_search(card_id, title, summary, body)
		VALUES (new.card_id, new.title, new.summary, new.body);
	END`,
	`CREATE TRIGGER IF NOT EXISTS trg_memory_card_ad AFTER DELETE ON memory_card BEGIN
		DELETE FROM memory_card_search WHERE card_id = old.card_id;
	END`,
}

// DB is the SQLite-backed store. A single *sql.DB is shared by every
// goroutine; mu serializes writers the way the teacher's store does.
// database/sql opens a new connection whenever every open one is busy, and
// a ":memory:" database is private to one connection, so store methods do
// not nest queries.
type DB struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn, sets its pragmas,
// and applies migrations.
func Open(dsn string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("set pragma %q: %w", p, err)
		}
	}

	tx, err := sqlDB.Begin()
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("begin migration transaction: %w", err)
	}
	for _, stmt := range schema {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			sqlDB.Close()
			return nil, fmt.Errorf("apply migration: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("commit migrations: %w", err)
	}

	if _, err := sqlDB.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("set schema version: %w", err)
	}

	return &DB{db: sqlDB}, nil
}

// Close releases the underlying connection.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool { return i != 0 }
