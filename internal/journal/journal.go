// Package journal persists renderer→host status emissions in a SQLite
// database, so call status survives the host UI layer and can be inspected
// after the fact.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/petervdpas/callbridge/internal/bridge"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DB wraps the emission journal database.
type DB struct {
	db   *sql.DB
	path string
}

// Entry is one journaled emission.
type Entry struct {
	ID      string         `json:"id"`
	TS      int64          `json:"ts"` // unix millis
	Event   string         `json:"event"`
	Payload bridge.Payload `json:"payload"`
}

// Open opens or creates the journal at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	// WAL mode so the host can read history while emissions stream in.
	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure journal: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS emissions (
			id      TEXT PRIMARY KEY,
			ts      INTEGER NOT NULL,
			event   TEXT NOT NULL,
			payload TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_emissions_ts ON emissions(ts);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create emissions table: %w", err)
	}

	log.Printf("JOURNAL: open at %s", path)
	return &DB{db: db, path: path}, nil
}

// Append journals one emission.
func (j *DB) Append(e bridge.Emission) error {
	payload := e.Payload
	if payload == nil {
		payload = bridge.Payload{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = j.db.Exec(
		`INSERT INTO emissions (id, ts, event, payload) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), time.Now().UnixMilli(), e.Event, string(raw),
	)
	if err != nil {
		return fmt.Errorf("insert emission: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (j *DB) Recent(n int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, ts, event, payload FROM emissions ORDER BY ts DESC, id LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("query emissions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var raw string
		if err := rows.Scan(&e.ID, &e.TS, &e.Event, &raw); err != nil {
			return nil, fmt.Errorf("scan emission: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &e.Payload); err != nil {
			e.Payload = bridge.Payload{}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (j *DB) Close() error {
	return j.db.Close()
}
