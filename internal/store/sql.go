package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var (
	_ Store    = (*SQLStore)(nil)
	_ Resetter = (*SQLStore)(nil)
	_ Setter   = (*SQLStore)(nil)
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS counters (
	id TEXT PRIMARY KEY,
	count BIGINT NOT NULL
)`
	selectSQL    = `SELECT count FROM counters WHERE id = ?`
	incrementSQL = `INSERT INTO counters (id, count) VALUES (?, 1)
ON CONFLICT (id) DO UPDATE SET count = counters.count + 1 WHERE counters.count >= 0
RETURNING count`
	setSQL = `INSERT INTO counters (id, count) VALUES (?, ?)
ON CONFLICT (id) DO UPDATE SET count = excluded.count`
)

// SQLStore keeps counters in a "counters" table. Increment is a single upsert
// statement, so the database applies it atomically.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLStore opens dsn with the driver of dialect and creates the table
// when missing.
func OpenSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	switch dialect {
	case DialectPostgres, DialectSQLite:
	default:
		return nil, fmt.Errorf("unknown sql dialect: %s", dialect)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if dialect == DialectSQLite {
		// sqlite allows one writer at a time.
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("db.ExecContext: create table, %w", err)
	}
	return nil
}

// rebind rewrites '?' placeholders to '$n' for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *SQLStore) Get(ctx context.Context, id string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, s.rebind(selectSQL), id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("db.QueryRowContext: id=%s, %w", id, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("id=%s, value=%d: %w", id, n, ErrMalformed)
	}
	return n, nil
}

func (s *SQLStore) Increment(ctx context.Context, id string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, s.rebind(incrementSQL), id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		// The upsert skips rows holding a negative count.
		return 0, fmt.Errorf("id=%s: %w", id, ErrMalformed)
	}
	if err != nil {
		return 0, fmt.Errorf("db.QueryRowContext: increment id=%s, %w", id, err)
	}
	return n, nil
}

func (s *SQLStore) Reset(ctx context.Context, id string) error {
	return s.Set(ctx, id, 0)
}

func (s *SQLStore) Set(ctx context.Context, id string, v int64) error {
	if _, err := checkValue(v); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(setSQL), id, v); err != nil {
		return fmt.Errorf("db.ExecContext: set id=%s, %w", id, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
