package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

// Migrate applies every pending migration for the connection's dialect.
// The migrate instance is not closed because that would close db as well.
func Migrate(db *DB) error {
	src, err := iofs.New(migrationFiles, "migrations/"+string(db.Dialect))
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	var driver database.Driver
	switch db.Dialect {
	case Postgres:
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	case SQLite:
		driver, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	default:
		return fmt.Errorf("no migrations for dialect %s", db.Dialect)
	}
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(db.Dialect), driver)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
