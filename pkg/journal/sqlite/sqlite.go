package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rfidenter/uhfbridge/pkg/core"
)

// Entry is one journaled tag observation.
type Entry struct {
	ID         string
	SessionID  string
	EPC        string
	MemID      string
	RSSI       int
	Antenna    int
	PhaseBegin int
	PhaseEnd   int
	FreqKhz    int
	DevName    string
	SeenAt     time.Time
}

// Stats summarizes the journal.
type Stats struct {
	Count    int64
	Distinct int64
	LastEPC  string
}

// Store owns the SQLite tag journal.
type Store struct {
	db   *sql.DB
	path string
}

// Path returns the underlying SQLite file path.
func (s *Store) Path() string {
	return s.path
}

// Open initializes a SQLite database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Appends and stats share a single connection.
	db.SetMaxOpenConns(1)
	return &Store{db: db, path: path}, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Init applies pragmas and the schema. journalMode and synchronous may be
// empty to keep SQLite defaults.
func (s *Store) Init(ctx context.Context, journalMode, synchronous string) error {
	if s == nil || s.db == nil {
		return errors.New("nil store")
	}
	pragmas := []string{"PRAGMA busy_timeout = 5000;"}
	if journalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA journal_mode = %s;", strings.ToUpper(journalMode)))
	}
	if synchronous != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA synchronous = %s;", strings.ToUpper(synchronous)))
	}
	for _, stmt := range pragmas {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}
	return s.applySchema(ctx)
}

func (s *Store) applySchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`INSERT OR IGNORE INTO meta(key,value) VALUES ('schemaVersion','1');`,
		`CREATE TABLE IF NOT EXISTS tags (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			epc TEXT NOT NULL,
			mem_id TEXT,
			rssi INTEGER NOT NULL DEFAULT 0,
			antenna INTEGER NOT NULL DEFAULT 0,
			phase_begin INTEGER NOT NULL DEFAULT 0,
			phase_end INTEGER NOT NULL DEFAULT 0,
			freq_khz INTEGER NOT NULL DEFAULT 0,
			dev_name TEXT,
			seen_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tags_epc ON tags(epc);`,
		`CREATE INDEX IF NOT EXISTS idx_tags_session_seen ON tags(session_id, seen_at);`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Append records one observation. A missing ID or timestamp is filled in.
func (s *Store) Append(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = core.NewID()
	}
	if e.SeenAt.IsZero() {
		e.SeenAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags(id, session_id, epc, mem_id, rssi, antenna, phase_begin, phase_end, freq_khz, dev_name, seen_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.SessionID, e.EPC, nullable(e.MemID), e.RSSI, e.Antenna, e.PhaseBegin, e.PhaseEnd, e.FreqKhz, nullable(e.DevName), e.SeenAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("append tag %s: %w", e.EPC, err)
	}
	return nil
}

// Stats returns the row count, the number of distinct EPCs and the most
// recently seen EPC.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT epc) FROM tags`).Scan(&st.Count, &st.Distinct); err != nil {
		return Stats{}, err
	}
	err := s.db.QueryRowContext(ctx, `SELECT epc FROM tags ORDER BY seen_at DESC, id DESC LIMIT 1`).Scan(&st.LastEPC)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Stats{}, err
	}
	return st, nil
}

// SessionCount returns how many observations were recorded under sessionID.
func (s *Store) SessionCount(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
