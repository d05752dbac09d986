package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	// Postgres driver registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store owns the database handle and the global sequence.
type Store struct {
	db      *sql.DB
	dialect string
	seq     *sequenceCounter
}

// Open connects to dsn and runs the schema migration. A postgres:// or
// postgresql:// DSN selects Postgres; anything else is a SQLite path or URI.
func Open(dsn string) (*Store, error) {
	ctx := context.Background()

	driverName, dialectName := "sqlite", dialect.SQLite
	if isPostgres(dsn) {
		driverName, dialectName = "pgx", dialect.Postgres
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialectName == dialect.SQLite {
		// One connection: SQLite serializes writers anyway, and an
		// in-memory database lives only as long as its connection.
		db.SetMaxOpenConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	if err := migrate(ctx, db, dialectName); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	seq, err := newSequenceCounter(ctx, db, dialectName)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, dialect: dialectName, seq: seq}, nil
}

func migrate(ctx context.Context, db *sql.DB, dialectName string) error {
	m, err := schema.NewMigrate(entsql.OpenDB(dialectName, db))
	if err != nil {
		return err
	}
	return m.Create(ctx, tables...)
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect in use.
func (s *Store) Dialect() string {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{db: s.db, dialect: s.dialect, seq: s.seq}
}

// applyPragmas configures SQLite for single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database location in priority order:
// 1. ATRISK_DB environment variable (a path or a postgres:// DSN)
// 2. $XDG_DATA_HOME/atrisk/atrisk.db
// 3. ~/.local/share/atrisk/atrisk.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("ATRISK_DB"); p != "" {
		if isPostgres(p) {
			return p, nil
		}
		return p, ensureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "atrisk", "atrisk.db")
	return p, ensureDir(p)
}

// EnsureDir creates the parent directory of a SQLite path. Postgres DSNs
// are left alone.
func EnsureDir(dsn string) error {
	if isPostgres(dsn) || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	return ensureDir(dsn)
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
