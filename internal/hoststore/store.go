// Package hoststore is the host-side persistence behind the bridge: a SQLite
// database and the store handlers that read and write it.
package hoststore

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding sessions, identities and pre-keys.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// migrations are applied in order; PRAGMA user_version counts the applied ones.
var migrations = []string{
	`CREATE TABLE account (
		key TEXT PRIMARY KEY,
		value BLOB
	);
	CREATE TABLE session (
		address TEXT NOT NULL,
		device_id INTEGER NOT NULL,
		record BLOB NOT NULL,
		PRIMARY KEY (address, device_id)
	);
	CREATE TABLE identity (
		address TEXT PRIMARY KEY,
		public_key BLOB NOT NULL
	);
	CREATE TABLE pre_key (
		id INTEGER PRIMARY KEY,
		record BLOB NOT NULL
	);
	CREATE TABLE signed_pre_key (
		id INTEGER PRIMARY KEY,
		record BLOB NOT NULL
	);
	CREATE TABLE kyber_pre_key (
		id INTEGER PRIMARY KEY,
		record BLOB NOT NULL,
		used INTEGER NOT NULL DEFAULT 0
	);`,
	`ALTER TABLE kyber_pre_key ADD COLUMN ec_pre_key_id INTEGER`,
}

// Connection pragmas, applied by the driver to every pooled connection.
const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// DefaultDataDir is where bridge databases live unless a path is given:
// $XDG_DATA_HOME/signal-bridge, or ~/.local/share/signal-bridge.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "signal-bridge")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "signal-bridge")
}

// Open opens the database at dbPath, creating it and its directory if needed,
// and brings the schema up to date. An empty dbPath means default.db in
// DefaultDataDir.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = filepath.Join(DefaultDataDir(), "default.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("hoststore: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+pragmas)
	if err != nil {
		return nil, fmt.Errorf("hoststore: open %s: %w", dbPath, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("hoststore: migrate %s: %w", dbPath, err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("schema version %d is newer than this build (%d)", version, len(migrations))
	}
	for v := version; v < len(migrations); v++ {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("step %d: %w", v+1, err)
		}
		// PRAGMA takes no bind parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// SetLogger sets the logger used to report handler failures.
func (s *Store) SetLogger(l *log.Logger) {
	s.logger = l
}

func (s *Store) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
