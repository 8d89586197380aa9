// Package sqlite stores blobs as rows of an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"essaycore/internal/infra/blob/sqlblob"
)

// Store is a sqlblob.Store bound to a SQLite file.
type Store struct {
	*sqlblob.Store
	path string
}

// New opens (creating if needed) the database at path.
func New(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "essaycore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc serializes writers per connection; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	inner, err := sqlblob.New(ctx, db, sqlblob.SQLite)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner, path: path}, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }
