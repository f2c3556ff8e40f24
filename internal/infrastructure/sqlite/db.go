// Package sqlite provides the run-history store for goldcheck. It
// handles connection lifecycle, migrations, and the run repository.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/goldcheck/internal/infrastructure/migrations"
	"github.com/zjrosen/goldcheck/internal/log"
)

// DB manages the SQLite connection for the run-history store.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens the history database, configures pragmas, and runs
// migrations. The parent directory is created if missing.
func NewDB(path string) (*DB, error) {
	log.Debug(log.CatDB, "opening run-history database", "path", path)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := migrations.Run(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	log.Debug(log.CatDB, "run-history database ready", "path", path)
	return &DB{conn: conn, path: path}, nil
}

// Close releases database resources.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Runs returns the run repository bound to this connection.
func (db *DB) Runs() *RunRepository {
	return &RunRepository{conn: db.conn}
}

// Connection exposes the underlying *sql.DB for tests.
func (db *DB) Connection() *sql.DB {
	return db.conn
}
