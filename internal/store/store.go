package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// FileName is the database file name inside the save directory.
const FileName = "saves.db"

// ErrSchemaTooNew is returned by Open for a database written by a newer
// mechsave. Opening it would risk rewriting tables this version does not know.
var ErrSchemaTooNew = errors.New("save database schema is newer than this build")

// migrations[i] upgrades a database from user_version i to i+1.
// The base tables come from schema.sql; migrations only add to them.
var migrations = []func(*sql.Tx) error{
	// 0 -> 1: orphan reports order by record age
	func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_records_written_at ON records(written_at)`)
		return err
	},
}

// schemaVersion is the user_version of a fully migrated database.
var schemaVersion = len(migrations)

// pragma is a connection setting and the value PRAGMA reports once applied.
type pragma struct {
	name  string
	set   string
	reads string
}

// pragmas are applied on every Open. SQLite reports some settings back in a
// different form than they are set (synchronous=NORMAL reads as 1).
var pragmas = []pragma{
	{"journal_mode", "WAL", "wal"},
	{"synchronous", "NORMAL", "1"},
	{"busy_timeout", "5000", "5000"},
	{"foreign_keys", "ON", "1"},
}

// Store keeps save records and the lexicon document in one SQLite database.
// Uses WAL mode so readers are not blocked by the registry's writes.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, creating its directory if
// needed, and brings the schema up to date. ":memory:" opens a private
// in-memory database.
//
// Open is idempotent on an existing file.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory database
	// lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	for _, p := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.set)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}
	return nil
}

// migrate creates the base tables and applies pending migrations in one
// transaction, so a failed upgrade leaves the previous version intact.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("%w: database v%d, build v%d", ErrSchemaTooNew, version, schemaVersion)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	for v := version; v < schemaVersion; v++ {
		if err := migrations[v](tx); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	// PRAGMA does not take bind parameters
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// pragmaValue reads the current value of a pragma.
func (s *Store) pragmaValue(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}
