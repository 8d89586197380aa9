package blobstate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"essaycore/internal/blob"
	"essaycore/internal/infra/persistence/memory"
	"essaycore/pkg/domain"
)

func put(t *testing.T, store blob.Store, key, body string) {
	t.Helper()
	if _, err := store.Put(context.Background(), key, bytes.NewReader([]byte(body)), blob.PutOptions{}); err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
}

func read(t *testing.T, store blob.Store, key string) string {
	t.Helper()
	_, rc, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer func() { _ = rc.Close() }()
	data, _ := io.ReadAll(rc)
	return string(data)
}

func TestLoadMissingKeysYieldsEmptyState(t *testing.T) {
	p := New(blob.NewMemory(), "")
	snap, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Essays) != 0 || len(snap.Institutions) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestLoadFallsBackToLegacyKeys(t *testing.T) {
	store := blob.NewMemory()
	put(t, store, LegacyKeyEssays, `[{"id":"e1","title":"T","content":"c","collegeId":"c1"}]`)
	put(t, store, LegacyKeyInstitutions, `[{"id":"c1","name":"MIT","status":"submitted"}]`)
	snap, err := New(store, "").Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Essays) != 1 || snap.Essays[0].InstitutionRef != "c1" {
		t.Fatalf("expected legacy essay with reference, got %+v", snap.Essays)
	}
	if len(snap.Institutions) != 1 || snap.Institutions[0].Status != domain.StatusSubmitted {
		t.Fatalf("expected legacy institution, got %+v", snap.Institutions)
	}
}

func TestLoadPrefersCurrentKeys(t *testing.T) {
	store := blob.NewMemory()
	put(t, store, KeyEssays, `[{"id":"new"}]`)
	put(t, store, LegacyKeyEssays, `[{"id":"old"}]`)
	snap, err := New(store, "").Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Essays) != 1 || snap.Essays[0].ID != "new" {
		t.Fatalf("expected current key to win, got %+v", snap.Essays)
	}
}

func TestLoadReportsPerCollectionErrors(t *testing.T) {
	store := blob.NewMemory()
	put(t, store, KeyEssays, `{not json`)
	put(t, store, KeyInstitutions, `[{"id":"c1","name":"MIT"}]`)
	snap, err := New(store, "").Load(context.Background())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if loadErr.Collection != domain.EntityEssay || loadErr.Key != KeyEssays {
		t.Fatalf("unexpected load error %+v", loadErr)
	}
	if len(snap.Essays) != 0 {
		t.Fatalf("expected essays left empty, got %+v", snap.Essays)
	}
	if len(snap.Institutions) != 1 {
		t.Fatalf("expected institutions to still load, got %+v", snap.Institutions)
	}
}

type failingGetStore struct {
	blob.Store
	key string
	err error
}

func (f failingGetStore) Get(ctx context.Context, key string) (blob.Info, io.ReadCloser, error) {
	if key == f.key {
		return blob.Info{}, nil, f.err
	}
	return f.Store.Get(ctx, key)
}

func TestLoadAbortsOnReadFailure(t *testing.T) {
	reset := errors.New("connection reset")
	store := blob.NewMemory()
	put(t, store, KeyEssays, `[{"id":"e1","title":"T","category":"personal","content":"c"}]`)
	_, err := New(failingGetStore{Store: store, key: KeyEssays, err: reset}, "").Load(context.Background())
	if !errors.Is(err, reset) {
		t.Fatalf("expected read failure, got %v", err)
	}
	var loadErrs LoadErrors
	if errors.As(err, &loadErrs) {
		t.Fatalf("read failure must not be reported as a decode failure: %v", err)
	}
}

func TestSaveRefusesCollectionThatFailedToLoad(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	put(t, store, KeyEssays, `{not json`)
	p := New(store, "")
	if _, err := p.Load(ctx); err == nil {
		t.Fatalf("expected load error")
	}

	snap := memory.Snapshot{
		Essays:       []domain.Essay{{Base: domain.Base{ID: "e1"}, Title: "T"}},
		Institutions: []domain.Institution{{Base: domain.Base{ID: "c1"}, Name: "MIT"}},
	}
	if err := p.Save(ctx, snap, true, false); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if got := read(t, store, KeyEssays); got != `{not json` {
		t.Fatalf("stored essays overwritten: %q", got)
	}
	if err := p.Save(ctx, snap, false, true); err != nil {
		t.Fatalf("institutions should still save: %v", err)
	}
}

func TestHookWritesOnlyTouchedCollections(t *testing.T) {
	store := blob.NewMemory()
	p := New(store, "app/")
	mem := memory.NewStore(nil, memory.WithCommitHook(p.Hook()))
	ctx := context.Background()

	if _, err := mem.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateInstitution(domain.Institution{Name: "MIT", Status: domain.StatusNotStarted})
		return err
	}); err != nil {
		t.Fatalf("create institution: %v", err)
	}
	if _, err := store.Head(ctx, "app/"+KeyEssays); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("essays should not be written by an institution-only change, got %v", err)
	}
	var insts []domain.Institution
	if err := json.Unmarshal([]byte(read(t, store, "app/"+KeyInstitutions)), &insts); err != nil || len(insts) != 1 {
		t.Fatalf("expected one persisted institution, got %v %+v", err, insts)
	}
	info, err := store.Head(ctx, "app/"+KeyInstitutions)
	if err != nil || info.Metadata["collection"] != string(domain.EntityInstitution) {
		t.Fatalf("unexpected metadata %v %+v", err, info)
	}

	if _, err := mem.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateEssay(domain.Essay{Title: "T", Content: "one two", Category: domain.CategoryPersonal})
		return err
	}); err != nil {
		t.Fatalf("create essay: %v", err)
	}
	var essays []domain.Essay
	if err := json.Unmarshal([]byte(read(t, store, "app/"+KeyEssays)), &essays); err != nil || len(essays) != 1 || essays[0].WordCount != 2 {
		t.Fatalf("expected persisted essay, got %v %+v", err, essays)
	}
}

func TestSaveWritesEmptyArrays(t *testing.T) {
	store := blob.NewMemory()
	if err := New(store, "").Save(context.Background(), memory.Snapshot{}, true, true); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := read(t, store, KeyEssays); got != "[]" {
		t.Fatalf("expected empty array, got %s", got)
	}
	if got := read(t, store, KeyInstitutions); got != "[]" {
		t.Fatalf("expected empty array, got %s", got)
	}
}

func TestLoadErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")
	errs := LoadErrors{{Collection: domain.EntityEssay, Key: "essays", Err: cause}}
	if !errors.Is(errs, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if errs.Error() == "" {
		t.Fatalf("expected message")
	}
}
