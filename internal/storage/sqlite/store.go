// Package sqlite implements the storage interface using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	// Pure-Go SQLite driver, registers as "sqlite"
	_ "modernc.org/sqlite"

	"github.com/andreisalomia/mini-jira/internal/storage"
)

// Verify SQLiteStorage implements storage.Storage at compile time
var _ storage.Storage = (*SQLiteStorage)(nil)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
	closed atomic.Bool // Tracks whether Close() has been called
}

// New creates a new SQLite storage backend. path may be a file path,
// ":memory:" (private in-memory database) or a "file:" URI.
func New(ctx context.Context, path string) (*SQLiteStorage, error) {
	const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	var connStr string
	isInMemory := path == ":memory:" ||
		(strings.HasPrefix(path, "file:") && strings.Contains(path, "mode=memory"))
	switch {
	case path == ":memory:":
		connStr = "file::memory:?" + pragmas
	case strings.HasPrefix(path, "file:"):
		connStr = path
		if !strings.Contains(path, "_pragma=foreign_keys") {
			if strings.Contains(path, "?") {
				connStr += "&" + pragmas
			} else {
				connStr += "?" + pragmas
			}
		}
	default:
		// Ensure directory exists for file-based databases
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		connStr = "file:" + path + "?" + pragmas + "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// In-memory databases are private to a connection, so pin the pool to one.
	if isInMemory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		// WAL gives one writer plus concurrent readers.
		db.SetMaxOpenConns(runtime.NumCPU() + 1)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(0)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	absPath := path
	if !isInMemory && !strings.HasPrefix(path, "file:") {
		if absPath, err = filepath.Abs(path); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
	}

	return &SQLiteStorage{db: db, dbPath: absPath}, nil
}

// Close closes the database connection.
// It checkpoints the WAL so all writes land in the main database file.
func (s *SQLiteStorage) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// Path returns the absolute path to the database file
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

func (s *SQLiteStorage) checkOpen() error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	return nil
}
