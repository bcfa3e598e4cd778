// Package activity provides the append-only, user-visible activity log of
// the switch: what was switched, by whom, and what settings arrived.
package activity

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Noter records human-readable activity.
type Noter interface {
	Note(text string)
}

// Entry is one line of the activity log.
type Entry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// Log is a SQLite-backed activity log. Notes always go to the process log;
// they are stored only while keeping is enabled.
type Log struct {
	db  *sql.DB
	now func() time.Time

	mu   sync.Mutex
	keep bool
}

// Open opens (or creates) the activity database at path.
func Open(path string, keep bool) (*Log, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open activity log: %w", err)
	}
	// One connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize activity schema: %w", err)
	}

	return &Log{db: db, now: time.Now, keep: keep}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS activity (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			text TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_activity_ts ON activity(timestamp);
	`)
	return err
}

// Note records text. Storage failures are logged and swallowed.
func (l *Log) Note(text string) {
	log.Info().Str("activity", text).Msg("Note")

	if !l.Enabled() {
		return
	}
	_, err := l.db.Exec(`INSERT INTO activity (timestamp, text) VALUES (?, ?)`, l.now().UTC().Unix(), text)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to store activity note")
	}
}

// Enabled reports whether notes are being stored.
func (l *Log) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.keep
}

// SetEnabled switches storing of notes on or off.
func (l *Log) SetEnabled(keep bool) {
	l.mu.Lock()
	l.keep = keep
	l.mu.Unlock()
	log.Info().Bool("enabled", keep).Msg("Activity log toggled")
}

// Entries returns up to limit entries, oldest first.
func (l *Log) Entries(limit int) ([]Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, timestamp, text FROM (
			SELECT id, timestamp, text FROM activity ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &ts, &e.Text); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes every stored entry.
func (l *Log) Clear() error {
	_, err := l.db.Exec(`DELETE FROM activity`)
	return err
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}
