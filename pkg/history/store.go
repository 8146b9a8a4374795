// Package history provides SQLite persistence for resolved instrument
// operations. The store implements controller.Recorder, so wiring it in is
// one field in the controller config.
package history

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/txm-control/txm-go/pkg/controller"
)

// Store archives resolved writes and finished waits.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

var _ controller.Recorder = (*Store)(nil)

// NewStore opens (or creates) the archive database at the given path.
// Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS writes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at DATETIME NOT NULL,
		endpoint TEXT NOT NULL,
		address TEXT NOT NULL,
		value TEXT NOT NULL,
		ok INTEGER NOT NULL,
		error TEXT,
		elapsed_us INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS waits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at DATETIME NOT NULL,
		endpoint TEXT NOT NULL,
		target TEXT NOT NULL,
		outcome TEXT NOT NULL,
		elapsed_us INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_writes_endpoint ON writes(endpoint);
	CREATE INDEX IF NOT EXISTS idx_writes_at ON writes(at);
	CREATE INDEX IF NOT EXISTS idx_waits_endpoint ON waits(endpoint);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordWrite archives a resolved write. Errors are dropped; archiving must
// never fail an instrument operation.
func (s *Store) RecordWrite(rec controller.WriteRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errMsg sql.NullString
	if rec.Err != "" {
		errMsg = sql.NullString{String: rec.Err, Valid: true}
	}
	s.db.Exec(`
		INSERT INTO writes (at, endpoint, address, value, ok, error, elapsed_us)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.Time, rec.Endpoint, rec.Address, rec.Value, rec.OK, errMsg, rec.Elapsed.Microseconds())
}

// RecordWait archives a finished wait.
func (s *Store) RecordWait(rec controller.WaitRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.db.Exec(`
		INSERT INTO waits (at, endpoint, target, outcome, elapsed_us)
		VALUES (?, ?, ?, ?, ?)
	`, rec.Time, rec.Endpoint, rec.Target, rec.Outcome, rec.Elapsed.Microseconds())
}

// WriteEntry is one archived write row.
type WriteEntry struct {
	Time     time.Time
	Endpoint string
	Address  string
	Value    string
	OK       bool
	Err      string
	Elapsed  time.Duration
}

// WaitEntry is one archived wait row.
type WaitEntry struct {
	Time     time.Time
	Endpoint string
	Target   string
	Outcome  string
	Elapsed  time.Duration
}

// Writes returns the archived writes for an endpoint, most recent first.
// An empty endpoint returns all writes. limit <= 0 means no limit.
func (s *Store) Writes(endpoint string, limit int) ([]WriteEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT at, endpoint, address, value, ok, error, elapsed_us
		FROM writes
	`
	var args []any
	if endpoint != "" {
		query += " WHERE endpoint = ?"
		args = append(args, endpoint)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []WriteEntry
	for rows.Next() {
		var e WriteEntry
		var errMsg sql.NullString
		var elapsedUS int64
		if err := rows.Scan(&e.Time, &e.Endpoint, &e.Address, &e.Value, &e.OK, &errMsg, &elapsedUS); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			e.Err = errMsg.String
		}
		e.Elapsed = time.Duration(elapsedUS) * time.Microsecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Waits returns the archived waits for an endpoint, most recent first.
// An empty endpoint returns all waits. limit <= 0 means no limit.
func (s *Store) Waits(endpoint string, limit int) ([]WaitEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT at, endpoint, target, outcome, elapsed_us
		FROM waits
	`
	var args []any
	if endpoint != "" {
		query += " WHERE endpoint = ?"
		args = append(args, endpoint)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []WaitEntry
	for rows.Next() {
		var e WaitEntry
		var elapsedUS int64
		if err := rows.Scan(&e.Time, &e.Endpoint, &e.Target, &e.Outcome, &elapsedUS); err != nil {
			return nil, err
		}
		e.Elapsed = time.Duration(elapsedUS) * time.Microsecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
