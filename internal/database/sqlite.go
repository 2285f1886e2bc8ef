package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// uriEscaper escapes the characters SQLite treats specially in file URIs.
// Slashes must stay literal, so full URL escaping is not applicable.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// OpenReadOnly opens a SQLite database in explicit read-only mode. The
// library's true owner may have the database open for writing at the same
// time, so the connection must tolerate -wal/-shm companions and must
// never take a write lock.
func OpenReadOnly(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", uriEscaper.Replace(path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sql.Open is lazy; force the file open so missing/corrupt databases
	// surface here instead of on the first query.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// Handles are not shareable across goroutines by the SQLite driver's
	// contract here; one handle serves one session.
	db.SetMaxOpenConns(1)

	return db, nil
}

// OpenReadWrite opens (creating if needed) a SQLite database for writing.
// The resolver never writes to a library; this exists for fixture
// construction in tests and tools.
func OpenReadWrite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return db, nil
}
