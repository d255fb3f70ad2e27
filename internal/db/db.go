// Package db is the durable local record store. It owns ID allocation and the
// pending/synchronized flag of every person record.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	// DataDir is the directory (relative to the base dir) holding all local state.
	DataDir = ".roster"
	dbFile  = "people.db"

	// DriverModernc is the pure Go driver and the default.
	DriverModernc = "sqlite"
	// DriverCgo is github.com/mattn/go-sqlite3.
	DriverCgo = "sqlite3"
)

// DB wraps the database connection
type DB struct {
	conn    *sql.DB
	baseDir string

	// mu serializes mutations inside this process; the file lock covers
	// other processes sharing the same data dir.
	mu sync.Mutex
}

// Path returns the database file path for baseDir.
func Path(baseDir string) string {
	return filepath.Join(baseDir, DataDir, dbFile)
}

// Open opens an existing database. driver may be empty for the default.
func Open(baseDir, driver string) (*DB, error) {
	if _, err := os.Stat(Path(baseDir)); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: run 'roster init' first")
	}
	return open(baseDir, driver)
}

// Initialize creates the data dir and database if needed and opens it.
func Initialize(baseDir, driver string) (*DB, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, DataDir), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return open(baseDir, driver)
}

func open(baseDir, driver string) (*DB, error) {
	if driver == "" {
		driver = DriverModernc
	}
	if driver != DriverModernc && driver != DriverCgo {
		return nil, fmt.Errorf("unknown sqlite driver %q (valid: %s, %s)", driver, DriverModernc, DriverCgo)
	}

	conn, err := sql.Open(driver, Path(baseDir))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout as fallback protection (matches lock timeout)
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Slightly faster writes, still safe with WAL
	conn.Exec("PRAGMA synchronous=NORMAL")

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	db := &DB{conn: conn, baseDir: baseDir}
	if err := db.checkSchemaVersion(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database
func (db *DB) Close() error {
	return db.conn.Close()
}

// withWriteLock executes fn while holding the in-process mutex and an
// exclusive cross-process file lock recorded under op.
func (db *DB) withWriteLock(ctx context.Context, op string, fn func() error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	locker := newWriteLocker(db.baseDir, op)
	if err := locker.acquire(ctx); err != nil {
		return err
	}
	defer locker.release()
	return fn()
}

// withTx runs fn inside a transaction under the write lock. The transaction
// is rolled back if fn returns an error.
func (db *DB) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	return db.withWriteLock(ctx, op, func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// GetSchemaVersion returns the schema version recorded in the database
func (db *DB) GetSchemaVersion() (int, error) {
	var version string
	err := db.conn.QueryRow("SELECT value FROM schema_info WHERE key = 'version'").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(version)
}

// checkSchemaVersion stamps a fresh database and refuses newer ones.
func (db *DB) checkSchemaVersion() error {
	v, err := db.GetSchemaVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v == 0 {
		_, err := db.conn.Exec(
			"INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)",
			strconv.Itoa(SchemaVersion),
		)
		if err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}
	if v > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", v, SchemaVersion)
	}
	return nil
}
