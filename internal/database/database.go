package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/learnloop/backend/internal/config"
)

// Dialect names the SQL flavour a DB speaks.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB wraps the connection pool with its dialect. Queries in this module are
// written with ? placeholders and passed through Rebind.
type DB struct {
	*sql.DB
	Dialect Dialect
}

func Connect(cfg config.DatabaseConfig) (*DB, error) {
	switch Dialect(cfg.Driver) {
	case Postgres:
		return open(Postgres, "postgres", cfg.DSN())
	case SQLite:
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000", path)
	return open(SQLite, "sqlite3", dsn)
}

func open(dialect Dialect, driver, dsn string) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	switch dialect {
	case Postgres:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	case SQLite:
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

var placeholder = regexp.MustCompile(`\?`)

// Rebind rewrites ? placeholders to $1, $2, ... for Postgres.
func (db *DB) Rebind(query string) string {
	if db.Dialect != Postgres {
		return query
	}
	n := 0
	return placeholder.ReplaceAllStringFunc(query, func(string) string {
		n++
		return "$" + strconv.Itoa(n)
	})
}

// ExecContext, QueryContext and QueryRowContext rebind before delegating.

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Rebind(query), args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Rebind(query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Rebind(query), args...)
}
