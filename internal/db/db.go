package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"tradeSite/internal/logging"
)

// Connect opens (or creates) a SQLite database and sets the connection
// pragmas. It does not touch the schema; use Open for that.
func Connect(path string) (*sql.DB, error) {
	if path == "" {
		path = "app.db"
	}
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	d, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, err
	}
	// journal_mode may not be supported in some contexts (e.g., in-memory). Ignore errors.
	_, _ = d.Exec(`PRAGMA journal_mode=WAL`)
	if _, err := d.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		_ = d.Close()
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// Open connects to the database at path and brings its schema up to date by
// running Migrations. A migration failure closes the handle and is returned;
// callers must treat it as fatal.
func Open(ctx context.Context, path string, log logging.Logger) (*sql.DB, error) {
	d, err := Connect(path)
	if err != nil {
		return nil, err
	}
	if _, err := NewRunner(d, log).Run(ctx, Migrations); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// ensureParentDir creates the directory holding a plain database file.
// URIs and :memory: are left alone.
func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}
