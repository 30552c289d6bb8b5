// Package sqldb stores data in a single key/value table of a SQL database.
// SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq) are supported.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/LeJamon/gorebase/internal/storage/database"
)

const sqliteFile = "rebased.sqlite"

func init() {
	database.Register("sqlite", func(path string) (database.DB, error) {
		return OpenSQLite(path)
	})
	database.Register("postgres", func(dsn string) (database.DB, error) {
		return OpenPostgres(dsn)
	})
}

// dialect holds the statements that differ between drivers.
type dialect struct {
	driver   string
	blobType string
	// placeholder returns the n-th (1-based) bind parameter.
	placeholder func(n int) string
}

var (
	sqlite = dialect{
		driver:      "sqlite",
		blobType:    "BLOB",
		placeholder: func(int) string { return "?" },
	}
	postgres = dialect{
		driver:      "postgres",
		blobType:    "BYTEA",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	}
)

type DB struct {
	db      *sql.DB
	dialect dialect
	closed  atomic.Bool

	readQuery   string
	upsertQuery string
	deleteQuery string
}

// OpenSQLite opens or creates the database file in dir. An empty dir opens a
// private in-memory database.
func OpenSQLite(dir string) (*DB, error) {
	dsn := ":memory:"
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
		dsn = filepath.Join(dir, sqliteFile)
	}

	db, err := sql.Open(sqlite.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", dsn, err)
	}
	// one connection: an in-memory database is per connection, and sqlite
	// serializes writers anyway
	db.SetMaxOpenConns(1)

	if dir != "" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set journal mode: %w", err)
		}
	}
	return newDB(db, sqlite)
}

// OpenPostgres connects with a lib/pq connection string.
func OpenPostgres(dsn string) (*DB, error) {
	db, err := sql.Open(postgres.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}
	return newDB(db, postgres)
}

func newDB(db *sql.DB, d dialect) (*DB, error) {
	schema := fmt.Sprintf("CREATE TABLE IF NOT EXISTS kv (k %s PRIMARY KEY, v %s)", d.blobType, d.blobType)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	p := d.placeholder
	return &DB{
		db:          db,
		dialect:     d,
		readQuery:   fmt.Sprintf("SELECT v FROM kv WHERE k = %s", p(1)),
		upsertQuery: fmt.Sprintf("INSERT INTO kv (k, v) VALUES (%s, %s) ON CONFLICT (k) DO UPDATE SET v = excluded.v", p(1), p(2)),
		deleteQuery: fmt.Sprintf("DELETE FROM kv WHERE k = %s", p(1)),
	}, nil
}

func (s *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if s.closed.Load() {
		return nil, database.ErrDBClosed
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, s.readQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (s *DB) Write(ctx context.Context, key, value []byte) error {
	if s.closed.Load() {
		return database.ErrDBClosed
	}
	_, err := s.db.ExecContext(ctx, s.upsertQuery, key, value)
	return err
}

func (s *DB) Delete(ctx context.Context, key []byte) error {
	if s.closed.Load() {
		return database.ErrDBClosed
	}
	_, err := s.db.ExecContext(ctx, s.deleteQuery, key)
	return err
}

func (s *DB) Batch(ctx context.Context, ops []database.BatchOperation) (err error) {
	if s.closed.Load() {
		return database.ErrDBClosed
	}
	for _, op := range ops {
		if op.Type != database.BatchPut && op.Type != database.BatchDelete {
			return fmt.Errorf("%w: %d", database.ErrUnknownBatchOp, op.Type)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, op := range ops {
		if op.Type == database.BatchPut {
			_, err = tx.ExecContext(ctx, s.upsertQuery, op.Key, op.Value)
		} else {
			_, err = tx.ExecContext(ctx, s.deleteQuery, op.Key)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Iterator reads the whole range up front so no connection stays checked out
// while the caller works through it.
func (s *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	if s.closed.Load() {
		return nil, database.ErrDBClosed
	}

	var (
		where []string
		args  []any
	)
	if start != nil {
		args = append(args, start)
		where = append(where, "k >= "+s.dialect.placeholder(len(args)))
	}
	if end != nil {
		args = append(args, end)
		where = append(where, "k < "+s.dialect.placeholder(len(args)))
	}
	query := "SELECT k, v FROM kv"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY k"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	it := &Iterator{pos: -1}
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		if v == nil {
			v = []byte{}
		}
		it.keys = append(it.keys, k)
		it.values = append(it.values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *DB) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

type Iterator struct {
	keys, values [][]byte
	pos          int
}

func (it *Iterator) Next() bool {
	if it.pos < len(it.keys) {
		it.pos++
	}
	return it.pos < len(it.keys)
}

func (it *Iterator) Key() []byte {
	if it.pos < 0 || it.pos >= len(it.keys) {
		return nil
	}
	return it.keys[it.pos]
}

func (it *Iterator) Value() []byte {
	if it.pos < 0 || it.pos >= len(it.values) {
		return nil
	}
	return it.values[it.pos]
}

func (it *Iterator) Error() error { return nil }

func (it *Iterator) Close() error {
	it.keys, it.values = nil, nil
	return nil
}
