package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hupe1980/vecscan/blobstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
	name       TEXT PRIMARY KEY,
	data       BLOB,
	updated_at INTEGER NOT NULL
)`

// Store implements blobstore.Store on a SQLite table.
type Store struct {
	db *sql.DB
}

var _ blobstore.Store = (*Store)(nil)

// Open opens (or creates) the database at path and ensures the blob table
// exists. Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New uses an open database handle. The caller keeps ownership of db
// unless Close is called.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create blob table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns a blob.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, blobstore.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Put inserts or replaces a blob.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("%w: %q", blobstore.ErrInvalidName, name)
	}
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, data, time.Now().Unix())
	return err
}

// Delete removes a blob.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE name = ?`, name)
	return err
}

// List returns the names of all blobs starting with prefix in byte order.
// The prefix is compared on the UTF-8 bytes of the name.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	query, args := `SELECT name FROM blobs ORDER BY name`, []any(nil)
	if prefix != "" {
		query = `SELECT name FROM blobs WHERE substr(CAST(name AS BLOB), 1, ?) = ? ORDER BY name`
		args = []any{len(prefix), []byte(prefix)}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// Size returns the total number of bytes stored under prefix.
func (s *Store) Size(ctx context.Context, prefix string) (int64, error) {
	query, args := `SELECT SUM(length(data)) FROM blobs`, []any(nil)
	if prefix != "" {
		query = `SELECT SUM(length(data)) FROM blobs WHERE substr(CAST(name AS BLOB), 1, ?) = ?`
		args = []any{len(prefix), []byte(prefix)}
	}

	var size sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&size)
	if err != nil {
		return 0, err
	}
	return size.Int64, nil
}
