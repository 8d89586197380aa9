// Package blobstate persists the essay and institution collections as JSON
// arrays under fixed keys of a blob.Store.
package blobstate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"essaycore/internal/blob"
	"essaycore/internal/infra/persistence/memory"
	"essaycore/pkg/domain"
)

// Storage keys. Legacy keys are read when the current key is absent and are
// never written.
const (
	KeyEssays             = "essays"
	KeyInstitutions       = "institutions"
	LegacyKeyEssays       = "collegeEssays"
	LegacyKeyInstitutions = "collegeColleges"
)

const contentType = "application/json"

// ErrNotLoaded is returned by Save for a collection whose stored payload could
// not be decoded. The payload is left untouched until it is repaired.
var ErrNotLoaded = errors.New("collection failed to load")

// LoadError reports a collection that could not be decoded.
type LoadError struct {
	Collection domain.EntityType
	Key        string
	Err        error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s from %q: %v", e.Collection, e.Key, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *LoadError) Unwrap() error { return e.Err }

// LoadErrors collects the per-collection failures of one Load.
type LoadErrors []*LoadError

func (e LoadErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, le := range e {
		parts = append(parts, le.Error())
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes each LoadError to errors.Is and errors.As.
func (e LoadErrors) Unwrap() []error {
	out := make([]error, 0, len(e))
	for _, le := range e {
		out = append(out, le)
	}
	return out
}

// Persister reads and writes the collections. Prefix is prepended to every key.
type Persister struct {
	store  blob.Store
	prefix string

	mu     sync.RWMutex
	failed map[domain.EntityType]*LoadError
}

// New returns a persister over store.
func New(store blob.Store, prefix string) *Persister {
	return &Persister{store: store, prefix: prefix}
}

// Store returns the underlying blob store.
func (p *Persister) Store() blob.Store { return p.store }

// Load reads both collections. A missing key yields an empty collection. A
// collection that fails to decode is left empty and reported through
// LoadErrors while the other still loads; later saves of it fail with
// ErrNotLoaded. A read failure aborts the whole load.
func (p *Persister) Load(ctx context.Context) (memory.Snapshot, error) {
	var (
		snapshot memory.Snapshot
		failures LoadErrors
	)
	collections := []struct {
		entity      domain.EntityType
		key, legacy string
		dst         any
	}{
		{domain.EntityEssay, KeyEssays, LegacyKeyEssays, &snapshot.Essays},
		{domain.EntityInstitution, KeyInstitutions, LegacyKeyInstitutions, &snapshot.Institutions},
	}
	failed := make(map[domain.EntityType]*LoadError)
	for _, c := range collections {
		loadErr, err := p.loadCollection(ctx, c.entity, c.key, c.legacy, c.dst)
		if err != nil {
			return memory.Snapshot{}, err
		}
		if loadErr != nil {
			failures = append(failures, loadErr)
			failed[c.entity] = loadErr
		}
	}
	if failed[domain.EntityEssay] != nil {
		snapshot.Essays = nil
	}
	if failed[domain.EntityInstitution] != nil {
		snapshot.Institutions = nil
	}

	p.mu.Lock()
	p.failed = failed
	p.mu.Unlock()

	if len(failures) > 0 {
		return snapshot, failures
	}
	return snapshot, nil
}

// loadCollection returns a LoadError for an undecodable payload and a plain
// error when the store itself could not be read.
func (p *Persister) loadCollection(ctx context.Context, entity domain.EntityType, key, legacy string, dst any) (*LoadError, error) {
	for _, candidate := range []string{key, legacy} {
		data, err := p.read(ctx, candidate)
		if errors.Is(err, blob.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "load %s from %q", entity, p.prefix+candidate)
		}
		if err := json.Unmarshal(data, dst); err != nil {
			return &LoadError{Collection: entity, Key: p.prefix + candidate, Err: errors.Wrap(err, "decode")}, nil
		}
		return nil, nil
	}
	return nil, nil
}

func (p *Persister) read(ctx context.Context, key string) ([]byte, error) {
	_, rc, err := p.store.Get(ctx, p.prefix+key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", key)
	}
	return data, nil
}

// Save writes the selected collections of snapshot. Selecting a collection
// that failed to load returns ErrNotLoaded and writes nothing.
func (p *Persister) Save(ctx context.Context, snapshot memory.Snapshot, essays, institutions bool) error {
	if err := p.checkLoaded(essays, institutions); err != nil {
		return err
	}
	if essays {
		if err := p.write(ctx, KeyEssays, domain.EntityEssay, nonNil(snapshot.Essays)); err != nil {
			return err
		}
	}
	if institutions {
		if err := p.write(ctx, KeyInstitutions, domain.EntityInstitution, nonNil(snapshot.Institutions)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Persister) checkLoaded(essays, institutions bool) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for entity, selected := range map[domain.EntityType]bool{domain.EntityEssay: essays, domain.EntityInstitution: institutions} {
		if le := p.failed[entity]; selected && le != nil {
			return errors.Wrapf(ErrNotLoaded, "refusing to overwrite %s", le.Key)
		}
	}
	return nil
}

func (p *Persister) write(ctx context.Context, key string, entity domain.EntityType, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", entity)
	}
	opts := blob.PutOptions{ContentType: contentType, Metadata: map[string]string{"collection": string(entity)}}
	if _, err := p.store.Put(ctx, p.prefix+key, bytes.NewReader(data), opts); err != nil {
		return errors.Wrapf(err, "write %s", p.prefix+key)
	}
	return nil
}

// Hook returns a commit hook that writes only the collections named by the
// transaction's changes.
func (p *Persister) Hook() memory.CommitHook {
	return func(ctx context.Context, snapshot memory.Snapshot, changes []memory.Change) error {
		essays, institutions := touched(changes)
		return p.Save(ctx, snapshot, essays, institutions)
	}
}

func touched(changes []memory.Change) (essays, institutions bool) {
	for _, c := range changes {
		switch c.Entity {
		case domain.EntityEssay:
			essays = true
		case domain.EntityInstitution:
			institutions = true
		}
	}
	return essays, institutions
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
