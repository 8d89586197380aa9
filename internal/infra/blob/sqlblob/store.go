// Package sqlblob stores blobs as rows of a single SQL table. The sqlite and
// postgres backends differ only in their Dialect.
package sqlblob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"essaycore/internal/blob/core"
)

// Dialect captures the per-database differences.
type Dialect struct {
	Driver core.Driver
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// PayloadType is the column type used for blob bodies.
	PayloadType string
}

// SQLite binds with '?' and stores payloads as BLOB.
var SQLite = Dialect{
	Driver:      core.DriverSQLite,
	Placeholder: func(int) string { return "?" },
	PayloadType: "BLOB",
}

// Postgres binds with '$n' and stores payloads as BYTEA.
var Postgres = Dialect{
	Driver:      core.DriverPostgres,
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	PayloadType: "BYTEA",
}

// Store implements core.Store over the blobs table of db.
type Store struct {
	db      *sql.DB
	dialect Dialect
	nowFn   func() time.Time
}

// New ensures the blobs table exists and returns a store over it.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS blobs (
		name TEXT PRIMARY KEY,
		payload %s NOT NULL,
		content_type TEXT NOT NULL,
		metadata TEXT NOT NULL,
		etag TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`, dialect.PayloadType)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("ensure blobs table: %w", err)
	}
	return &Store{db: db, dialect: dialect, nowFn: func() time.Time { return time.Now().UTC() }}, nil
}

// DB exposes the underlying handle so owners can close it.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Driver() core.Driver { return s.dialect.Driver }

func (s *Store) ph(n int) string { return s.dialect.Placeholder(n) }

// Put upserts the row for key.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	if strings.TrimSpace(key) == "" {
		return core.Info{}, fmt.Errorf("empty key")
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	md, err := json.Marshal(opts.Metadata)
	if err != nil {
		return core.Info{}, err
	}
	sum := sha256.Sum256(body)
	info := core.Info{
		Key:          key,
		Size:         int64(len(body)),
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(sum[:]),
		Metadata:     core.CloneMetadata(opts.Metadata),
		LastModified: s.nowFn(),
	}
	query := fmt.Sprintf(`INSERT INTO blobs (name, payload, content_type, metadata, etag, updated_at) VALUES (%s,%s,%s,%s,%s,%s)
		ON CONFLICT (name) DO UPDATE SET payload=excluded.payload, content_type=excluded.content_type,
		metadata=excluded.metadata, etag=excluded.etag, updated_at=excluded.updated_at`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6))
	if _, err := s.db.ExecContext(ctx, query, key, body, info.ContentType, string(md), info.ETag, info.LastModified.UnixNano()); err != nil {
		return core.Info{}, fmt.Errorf("upsert blob %s: %w", key, err)
	}
	return info, nil
}

type row struct {
	info    core.Info
	payload []byte
}

func (s *Store) load(ctx context.Context, key string, withPayload bool) (row, error) {
	query := fmt.Sprintf(`SELECT name, payload, content_type, metadata, etag, updated_at FROM blobs WHERE name = %s`, s.ph(1))
	rows, err := s.db.QueryContext(ctx, query, key)
	if err != nil {
		return row{}, fmt.Errorf("select blob %s: %w", key, err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return row{}, err
		}
		if r.info.Key != key {
			continue
		}
		if !withPayload {
			r.payload = nil
		}
		return r, nil
	}
	if err := rows.Err(); err != nil {
		return row{}, err
	}
	return row{}, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
}

func scanRow(rows *sql.Rows) (row, error) {
	var (
		r         row
		metadata  string
		updatedAt int64
	)
	if err := rows.Scan(&r.info.Key, &r.payload, &r.info.ContentType, &metadata, &r.info.ETag, &updatedAt); err != nil {
		return row{}, fmt.Errorf("scan blob: %w", err)
	}
	if metadata != "" && metadata != "null" {
		if err := json.Unmarshal([]byte(metadata), &r.info.Metadata); err != nil {
			return row{}, fmt.Errorf("decode metadata for %s: %w", r.info.Key, err)
		}
	}
	r.info.Size = int64(len(r.payload))
	r.info.LastModified = time.Unix(0, updatedAt).UTC()
	return r, nil
}

func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	r, err := s.load(ctx, key, true)
	if err != nil {
		return core.Info{}, nil, err
	}
	return r.info, io.NopCloser(bytes.NewReader(r.payload)), nil
}

func (s *Store) Head(ctx context.Context, key string) (core.Info, error) {
	r, err := s.load(ctx, key, false)
	if err != nil {
		return core.Info{}, err
	}
	return r.info, nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM blobs WHERE name = %s`, s.ph(1)), key)
	if err != nil {
		return false, fmt.Errorf("delete blob %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List filters keys by prefix client-side; the table holds a handful of rows.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, payload, content_type, metadata, etag, updated_at FROM blobs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var infos []core.Info
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(r.info.Key, prefix) {
			infos = append(infos, r.info)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
