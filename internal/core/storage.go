package core

import (
	"context"
	"errors"

	"essaycore/internal/blob"
	"essaycore/internal/infra/persistence/blobstate"
	"essaycore/internal/infra/persistence/memory"
)

// StorageConfig selects the blob backend that holds the collections.
type StorageConfig struct {
	Blob blob.Config
	// Prefix is prepended to every key the service reads or writes.
	Prefix string
}

// OpenService opens the configured blob store, loads both collections and
// returns a service whose commits write back to the store. Collections that
// fail to decode start empty and read-only: the failure is logged and kept in
// LoadError, and commits touching them fail with blobstate.ErrNotLoaded. A
// read failure aborts.
func OpenService(ctx context.Context, cfg StorageConfig, opts ...ServiceOption) (*Service, error) {
	store, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return nil, err
	}
	svc, err := OpenServiceWithStore(ctx, store, cfg.Prefix, opts...)
	if err != nil {
		if c, ok := store.(interface{ Close() error }); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return svc, nil
}

// OpenServiceWithStore is OpenService over an already constructed store.
func OpenServiceWithStore(ctx context.Context, store blob.Store, prefix string, opts ...ServiceOption) (*Service, error) {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	persister := blobstate.New(store, prefix)
	snapshot, loadErr := persister.Load(ctx)
	var partial blobstate.LoadErrors
	if loadErr != nil && !errors.As(loadErr, &partial) {
		return nil, loadErr
	}
	if loadErr != nil {
		o.logger.Warn("collections failed to load", "driver", store.Driver(), "error", loadErr)
	}

	mem := NewMemoryStore(NewDefaultRulesEngine(),
		memory.WithClock(o.clock.Now),
		memory.WithCommitHook(persister.Hook()),
	)
	mem.ImportState(snapshot)

	all := append(append([]ServiceOption{}, opts...), WithBlobStore(store, prefix))
	svc := NewService(mem, all...)
	svc.loadErr = loadErr
	o.logger.Info("storage opened", "driver", store.Driver(), "essays", len(snapshot.Essays), "institutions", len(snapshot.Institutions))
	return svc, nil
}
