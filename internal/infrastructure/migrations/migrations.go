// Package migrations provides schema migration support for the
// run-history database.
//
// It carries a custom SQLite migration driver compatible with
// ncruces/go-sqlite3 (CGO-free). The stock golang-migrate sqlite3
// driver imports mattn/go-sqlite3, which collides with the ncruces
// driver registration under the same "sqlite3" name, so migrations run
// through WithInstance on an already-open connection instead.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var embeddedFS embed.FS

// FS returns the embedded migration SQL files.
func FS() fs.FS {
	return embeddedFS
}

// Run applies all pending migrations to db. A fully migrated database
// is not an error.
func Run(db *sql.DB) error {
	source, err := iofs.New(embeddedFS, ".")
	if err != nil {
		return err
	}
	driver, err := WithInstance(db, &Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
