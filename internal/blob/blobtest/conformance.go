// Package blobtest holds the behavioral contract every blob backend must meet.
package blobtest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"essaycore/internal/blob/core"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) core.Store

// Run exercises put/overwrite/get/head/list/delete semantics against stores
// produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("missing key", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound from get, got %v", err)
		}
		if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound from head, got %v", err)
		}
		if ok, err := store.Delete(ctx, "missing"); err != nil || ok {
			t.Fatalf("expected delete of missing key to report false, got %v %v", ok, err)
		}
	})

	t.Run("put get overwrite", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		info, err := store.Put(ctx, "essays", bytes.NewReader([]byte(`[]`)), core.PutOptions{ContentType: "application/json"})
		if err != nil {
			t.Fatalf("put: %v", err)
		}
		if info.Key != "essays" || info.Size != 2 {
			t.Fatalf("unexpected info %+v", info)
		}
		if _, err := store.Put(ctx, "essays", bytes.NewReader([]byte(`[{"id":"1"}]`)), core.PutOptions{ContentType: "application/json"}); err != nil {
			t.Fatalf("overwrite: %v", err)
		}
		got, rc, err := store.Get(ctx, "essays")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		body, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(body) != `[{"id":"1"}]` {
			t.Fatalf("expected overwritten payload, got %s", body)
		}
		if got.Size != int64(len(body)) {
			t.Fatalf("size mismatch: %d vs %d", got.Size, len(body))
		}
		head, err := store.Head(ctx, "essays")
		if err != nil {
			t.Fatalf("head: %v", err)
		}
		if head.Size != got.Size {
			t.Fatalf("head size %d, get size %d", head.Size, got.Size)
		}
	})

	t.Run("list and delete", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		for _, key := range []string{"backups/b", "backups/a", "essays"} {
			if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
				t.Fatalf("put %s: %v", key, err)
			}
		}
		list, err := store.List(ctx, "backups/")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 2 || list[0].Key != "backups/a" || list[1].Key != "backups/b" {
			t.Fatalf("expected sorted prefix listing, got %+v", list)
		}
		all, err := store.List(ctx, "")
		if err != nil || len(all) != 3 {
			t.Fatalf("list all: %v %d", err, len(all))
		}
		ok, err := store.Delete(ctx, "backups/a")
		if err != nil || !ok {
			t.Fatalf("delete: %v %v", ok, err)
		}
		if _, err := store.Head(ctx, "backups/a"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected deleted key to be missing, got %v", err)
		}
	})
}
