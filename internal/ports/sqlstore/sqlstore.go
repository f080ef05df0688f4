// Package sqlstore keeps player records in SQLite or Postgres through database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"blackjack/internal/ports"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Dialect selects the SQL flavour.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB is an open, migrated database shared by per-owner stores.
type DB struct {
	dialect Dialect
	db      *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	return open(ctx, DialectSQLite, "sqlite", path)
}

// OpenPostgres connects with the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	return open(ctx, DialectPostgres, "pgx", dsn)
}

func open(ctx context.Context, dialect Dialect, driverName, dsn string) (*DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	d := &DB{dialect: dialect, db: db}
	if err := d.applyMigrations(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the connection pool.
func (d *DB) Close() error { return d.db.Close() }

// Dialect reports the SQL flavour in use.
func (d *DB) Dialect() Dialect { return d.dialect }

// Store returns the record store of owner.
func (d *DB) Store(owner string) *Store {
	return &Store{db: d, owner: owner}
}

func (d *DB) bind(pos int) string {
	if d.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (d *DB) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := d.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := d.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	files, err := fs.Glob(migrationFS, fmt.Sprintf("migrations/%s/*.sql", d.dialect))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		sqlBytes, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := d.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		q := fmt.Sprintf("INSERT INTO schema_migrations (version, applied_at) VALUES (%s, %s)", d.bind(1), d.bind(2))
		if _, err := tx.ExecContext(ctx, q, base, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// Store is a ports.KVStore over the kv_records table scoped to one owner.
type Store struct {
	db    *DB
	owner string
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	q := fmt.Sprintf("SELECT record_value FROM kv_records WHERE owner = %s AND record_key = %s", s.db.bind(1), s.db.bind(2))
	var value string
	err := s.db.db.QueryRowContext(ctx, q, s.owner, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	q := fmt.Sprintf(`INSERT INTO kv_records (owner, record_key, record_value, updated_at) VALUES (%s, %s, %s, %s)
		ON CONFLICT (owner, record_key) DO UPDATE SET record_value = excluded.record_value, updated_at = excluded.updated_at`,
		s.db.bind(1), s.db.bind(2), s.db.bind(3), s.db.bind(4))
	if _, err := s.db.db.ExecContext(ctx, q, s.owner, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	q := fmt.Sprintf(`INSERT INTO kv_records (owner, record_key, record_value, updated_at) VALUES (%s, %s, %s, %s)
		ON CONFLICT (owner, record_key) DO NOTHING`,
		s.db.bind(1), s.db.bind(2), s.db.bind(3), s.db.bind(4))
	res, err := s.db.db.ExecContext(ctx, q, s.owner, key, value, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("set %s if absent: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set %s if absent: %w", key, err)
	}
	return n == 1, nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	q := fmt.Sprintf("DELETE FROM kv_records WHERE owner = %s AND record_key = %s", s.db.bind(1), s.db.bind(2))
	if _, err := s.db.db.ExecContext(ctx, q, s.owner, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

var _ ports.KVStore = (*Store)(nil)
