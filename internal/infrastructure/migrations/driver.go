package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/golang-migrate/migrate/v4/database"
)

// defaultMigrationsTable tracks applied migration versions.
const defaultMigrationsTable = "schema_migrations"

// Config holds options for the SQLite migration driver.
type Config struct {
	MigrationsTable string
}

// sqliteDriver implements database.Driver over an ncruces-opened
// connection, without importing mattn/go-sqlite3.
type sqliteDriver struct {
	db       *sql.DB
	isLocked atomic.Bool
	config   *Config
}

// WithInstance wraps an existing connection in a migration driver.
func WithInstance(instance *sql.DB, config *Config) (database.Driver, error) {
	if config == nil {
		return nil, errors.New("no config")
	}
	if err := instance.Ping(); err != nil {
		return nil, err
	}
	if config.MigrationsTable == "" {
		config.MigrationsTable = defaultMigrationsTable
	}
	d := &sqliteDriver{db: instance, config: config}
	if err := d.ensureVersionTable(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *sqliteDriver) ensureVersionTable() error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (version uint64, dirty bool);
	CREATE UNIQUE INDEX IF NOT EXISTS version_unique ON %s (version);
	`, d.config.MigrationsTable, d.config.MigrationsTable)
	_, err := d.db.Exec(query)
	return err
}

// Open is unused; the driver is always constructed via WithInstance.
func (d *sqliteDriver) Open(_ string) (database.Driver, error) {
	return nil, errors.New("Open not implemented; use WithInstance")
}

func (d *sqliteDriver) Close() error {
	return d.db.Close()
}

func (d *sqliteDriver) Lock() error {
	if !d.isLocked.CompareAndSwap(false, true) {
		return database.ErrLocked
	}
	return nil
}

func (d *sqliteDriver) Unlock() error {
	if !d.isLocked.CompareAndSwap(true, false) {
		return database.ErrNotLocked
	}
	return nil
}

// Run executes one migration inside a transaction.
func (d *sqliteDriver) Run(migration io.Reader) error {
	buf, err := io.ReadAll(migration)
	if err != nil {
		return err
	}
	return d.inTx(string(buf))
}

func (d *sqliteDriver) inTx(query string, args ...any) error {
	tx, err := d.db.Begin()
	if err != nil {
		return &database.Error{OrigErr: err, Err: "transaction start failed"}
	}
	if _, err := tx.Exec(query, args...); err != nil {
		if errRollback := tx.Rollback(); errRollback != nil {
			err = errors.Join(err, errRollback)
		}
		return &database.Error{OrigErr: err, Query: []byte(query)}
	}
	if err := tx.Commit(); err != nil {
		return &database.Error{OrigErr: err, Err: "transaction commit failed"}
	}
	return nil
}

// SetVersion records the current migration version.
func (d *sqliteDriver) SetVersion(version int, dirty bool) error {
	tx, err := d.db.Begin()
	if err != nil {
		return &database.Error{OrigErr: err, Err: "transaction start failed"}
	}
	if _, err := tx.Exec("DELETE FROM " + d.config.MigrationsTable); err != nil { //nolint:gosec // table name from trusted config
		if errRollback := tx.Rollback(); errRollback != nil {
			err = errors.Join(err, errRollback)
		}
		return &database.Error{OrigErr: err}
	}
	// Re-write the version even for dirty nil versions so a failed
	// down migration of the first migration leaves a row behind.
	// See golang-migrate issue 330.
	if version >= 0 || (version == database.NilVersion && dirty) {
		query := fmt.Sprintf("INSERT INTO %s (version, dirty) VALUES (?, ?)", d.config.MigrationsTable) //nolint:gosec // table name from trusted config
		if _, err := tx.Exec(query, version, dirty); err != nil {
			if errRollback := tx.Rollback(); errRollback != nil {
				err = errors.Join(err, errRollback)
			}
			return &database.Error{OrigErr: err, Query: []byte(query)}
		}
	}
	if err := tx.Commit(); err != nil {
		return &database.Error{OrigErr: err, Err: "transaction commit failed"}
	}
	return nil
}

// Version returns the current migration version.
func (d *sqliteDriver) Version() (int, bool, error) {
	var version int
	var dirty bool
	query := "SELECT version, dirty FROM " + d.config.MigrationsTable + " LIMIT 1"
	if err := d.db.QueryRow(query).Scan(&version, &dirty); err != nil {
		return database.NilVersion, false, nil
	}
	return version, dirty, nil
}

// Drop removes every table in the database.
func (d *sqliteDriver) Drop() (err error) {
	rows, err := d.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return &database.Error{OrigErr: err}
	}
	defer func() {
		if errClose := rows.Close(); errClose != nil {
			err = errors.Join(err, errClose)
		}
	}()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name != "" {
			tables = append(tables, name)
		}
	}
	if err := rows.Err(); err != nil {
		return &database.Error{OrigErr: err}
	}
	for _, t := range tables {
		if err := d.inTx("DROP TABLE " + t); err != nil {
			return err
		}
	}
	if len(tables) > 0 {
		if _, err := d.db.Exec("VACUUM"); err != nil {
			return &database.Error{OrigErr: err}
		}
	}
	return nil
}
