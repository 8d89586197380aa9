package sqlite

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"essaycore/internal/blob/blobtest"
	"essaycore/internal/blob/core"
)

func TestStoreConformance(t *testing.T) {
	blobtest.Run(t, func(t *testing.T) core.Store {
		s, err := New(context.Background(), filepath.Join(t.TempDir(), "blobs.db"))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "blobs.db")
	ctx := context.Background()
	s, err := New(ctx, path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Path() != path || s.Driver() != core.DriverSQLite {
		t.Fatalf("unexpected store %s %s", s.Path(), s.Driver())
	}
	if _, err := s.Put(ctx, "institutions", bytes.NewReader([]byte(`[{"id":"c1"}]`)), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"collection": "institutions"},
	}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := New(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	info, rc, err := reopened.Get(ctx, "institutions")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `[{"id":"c1"}]` || info.ContentType != "application/json" || info.Metadata["collection"] != "institutions" {
		t.Fatalf("unexpected blob after reopen: %s %+v", body, info)
	}
}
