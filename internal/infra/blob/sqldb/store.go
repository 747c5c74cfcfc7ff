// Package sqldb stores puzzle datasets and rule files in a single SQL table,
// on either SQLite (modernc.org/sqlite) or PostgreSQL (pgx).
package sqldb

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/EvalVis/chesscorner/internal/blob/core"
)

// Dialect captures the SQL differences between the supported engines.
type Dialect struct {
	Name       string
	DriverName string
	BlobType   string
	driver     core.Driver
	numbered   bool // $1, $2 placeholders instead of ?
}

var (
	// SQLite is the modernc.org/sqlite dialect.
	SQLite = Dialect{Name: "sqlite", DriverName: "sqlite", BlobType: "BLOB", driver: core.DriverSQLite}
	// Postgres is the pgx stdlib dialect.
	Postgres = Dialect{Name: "postgres", DriverName: "pgx", BlobType: "BYTEA", driver: core.DriverPostgres, numbered: true}
)

const defaultPostgresDSN = "postgres://localhost/chesscorner?sslmode=disable"

var sqlOpen = sql.Open

// Store implements core.Store on a `resources` table.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLite opens (or creates) a SQLite database file holding resources.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "chesscorner.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sqlOpen(SQLite.DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return New(ctx, db, SQLite)
}

// OpenPostgres connects to PostgreSQL using dsn (falls back to a localhost default).
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sqlOpen(Postgres.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(ctx, db, Postgres)
}

// New wraps an open database and ensures the resources table exists.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS resources (
		key          TEXT PRIMARY KEY,
		content_type TEXT NOT NULL DEFAULT '',
		metadata     TEXT,
		etag         TEXT NOT NULL,
		size         BIGINT NOT NULL,
		body         `+s.dialect.BlobType+` NOT NULL,
		updated_at   TEXT NOT NULL
	)`)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return s.dialect.driver }

// rebind rewrites ? placeholders for dialects with numbered parameters.
func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Put inserts a new resource; an existing key yields core.ErrExists.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	if strings.TrimSpace(key) == "" {
		return core.Info{}, fmt.Errorf("empty key")
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	var md *string
	if len(opts.Metadata) > 0 {
		b, err := json.Marshal(opts.Metadata)
		if err != nil {
			return core.Info{}, err
		}
		v := string(b)
		md = &v
	}
	sum := sha256.Sum256(body)
	now := time.Now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(
		`INSERT INTO resources (key, content_type, metadata, etag, size, body, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT (key) DO NOTHING`),
		key, opts.ContentType, md, hex.EncodeToString(sum[:]), int64(len(body)), body, now.Format(time.RFC3339))
	if err != nil {
		return core.Info{}, fmt.Errorf("insert resource: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Info{}, fmt.Errorf("blob %s: %w", key, core.ErrExists)
	}
	return s.Head(ctx, key)
}

// Get loads the full body of a resource.
func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT key, content_type, metadata, etag, size, updated_at, body FROM resources WHERE key = ?`), key)
	var body []byte
	info, err := scanInfo(row, &body)
	if err != nil {
		return core.Info{}, nil, notExist(key, err)
	}
	return info, io.NopCloser(bytes.NewReader(body)), nil
}

// Head returns metadata without the body.
func (s *Store) Head(ctx context.Context, key string) (core.Info, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT key, content_type, metadata, etag, size, updated_at FROM resources WHERE key = ?`), key)
	info, err := scanInfo(row)
	if err != nil {
		return core.Info{}, notExist(key, err)
	}
	return info, nil
}

// Delete removes a resource, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM resources WHERE key = ?`), key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns resources whose key has prefix, ordered by key.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, content_type, metadata, etag, size, updated_at FROM resources ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []core.Info
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if strings.HasPrefix(info.Key, prefix) {
			out = append(out, info)
		}
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner, extra ...any) (core.Info, error) {
	var (
		info    core.Info
		md      sql.NullString
		updated string
	)
	dest := append([]any{&info.Key, &info.ContentType, &md, &info.ETag, &info.Size, &updated}, extra...)
	if err := row.Scan(dest...); err != nil {
		return core.Info{}, err
	}
	if md.Valid && md.String != "" {
		if err := json.Unmarshal([]byte(md.String), &info.Metadata); err != nil {
			return core.Info{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if ts, err := time.Parse(time.RFC3339, updated); err == nil {
		info.LastModified = ts
	}
	return info, nil
}

func notExist(key string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("blob %s: %w", key, core.ErrNotExist)
	}
	return err
}
