// Package postgres stores blobs as rows of a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"essaycore/internal/infra/blob/sqlblob"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/essaycore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store is a sqlblob.Store bound to PostgreSQL.
type Store struct {
	*sqlblob.Store
}

// New opens dsn (falls back to defaultDSN), verifies connectivity and ensures
// the blobs table exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	inner, err := sqlblob.New(ctx, db, sqlblob.Postgres)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner}, nil
}
