package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/craftbooks/recordstore/internal/schema"
)

// Clock supplies the timestamps stamped onto records. Production stores use
// the system clock; tests inject a fixed one for deterministic stamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Store is an embedded, schema-registered collection store backed by a
// single SQLite database file.
type Store struct {
	db    *sql.DB
	clock Clock
}

// Open creates or opens the store at path and migrates it to the registry's
// target version. Applies required pragmas automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	return OpenAt(path, schema.TargetVersion)
}

// OpenAt opens the store and migrates it to an explicit target version.
// Exists so tests can stand up a store at an older version and exercise the
// upgrade path; production callers use Open.
func OpenAt(path string, targetVersion int) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := migrate(db, targetVersion); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, clock: systemClock{}}, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SetClock replaces the timestamp source. Intended for tests.
func (s *Store) SetClock(c Clock) {
	s.clock = c
}

// Version returns the persisted schema version.
func (s *Store) Version(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// migrate reconciles the persisted schema version with the registry.
// Additive-only: new collections and new indexes, never drops or renames.
// The whole delta applies inside one transaction, so a failed upgrade
// leaves the store at its last committed version with no partial schema
// state observable. Re-running against an up-to-date store is a no-op.
func migrate(db *sql.DB, target int) error {
	var stored int
	if err := db.QueryRow("PRAGMA user_version").Scan(&stored); err != nil {
		return &Error{Kind: KindMigration, Message: "get user_version", Err: err}
	}

	// A store written by a newer build stays untouched.
	if stored >= target {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return &Error{Kind: KindMigration, Message: "begin upgrade", Err: err}
	}
	defer tx.Rollback() // No-op if committed

	for _, stmt := range schema.Deltas(stored, target) {
		if _, err := tx.Exec(stmt); err != nil {
			return &Error{
				Kind:    KindMigration,
				Message: fmt.Sprintf("apply %q", stmt),
				Err:     err,
			}
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", target)); err != nil {
		return &Error{Kind: KindMigration, Message: "set user_version", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &Error{Kind: KindMigration, Message: "commit upgrade", Err: err}
	}

	return nil
}
