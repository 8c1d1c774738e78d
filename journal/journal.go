// Package journal records patch registry mutations in a SQLite database.
// The journal is an audit trail; nothing reads it back into a registry.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/patchwork/patch"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("journal: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

var log = commonlog.GetLogger("patchwork.journal")

// Entry is a recorded event with its row id
type Entry struct {
	ID int64
	patch.Event
}

// Journal is a patch.Recorder backed by SQLite
type Journal struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

var _ patch.Recorder = (*Journal)(nil)

// Open opens or creates the journal at path, creating parent directories.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at TEXT NOT NULL,
		op TEXT NOT NULL,
		kind TEXT NOT NULL,
		scope TEXT NOT NULL,
		target TEXT NOT NULL,
		method TEXT NOT NULL,
		chain BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debugf("opened journal %s", path)
	return &Journal{db: db, path: path}, nil
}

// Path returns the database file path
func (j *Journal) Path() string {
	return j.path
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Record appends ev to the journal
func (j *Journal) Record(ev patch.Event) error {
	chain := ev.Chain
	if chain == nil {
		chain = []string{}
	}
	blob, err := cborEncMode.Marshal(chain)
	if err != nil {
		return fmt.Errorf("encoding chain: %w", err)
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	_, err = j.db.Exec(
		"INSERT INTO events (at, op, kind, scope, target, method, chain) VALUES (?, ?, ?, ?, ?, ?, ?)",
		ev.At.UTC().Format(time.RFC3339Nano), ev.Op, ev.Kind, ev.Scope, ev.Target, ev.Method, blob,
	)
	if err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	return nil
}

// Events returns every recorded event, oldest first
func (j *Journal) Events() ([]Entry, error) {
	return j.query("SELECT id, at, op, kind, scope, target, method, chain FROM events ORDER BY id")
}

// ForMethod returns the events touching method on target, oldest first
func (j *Journal) ForMethod(target, method string) ([]Entry, error) {
	return j.query(
		"SELECT id, at, op, kind, scope, target, method, chain FROM events WHERE target = ? AND method = ? ORDER BY id",
		target, method,
	)
}

func (j *Journal) query(q string, args ...any) ([]Entry, error) {
	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			at   string
			blob []byte
		)
		if err := rows.Scan(&e.ID, &at, &e.Op, &e.Kind, &e.Scope, &e.Target, &e.Method, &blob); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		if e.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("event %d: bad timestamp %q: %w", e.ID, at, err)
		}
		if err := cbor.Unmarshal(blob, &e.Chain); err != nil {
			return nil, fmt.Errorf("event %d: decoding chain: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
