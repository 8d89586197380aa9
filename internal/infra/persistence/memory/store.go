// Package memory provides the in-memory transactional store that owns the
// essay and institution collections.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"essaycore/pkg/domain"

	"github.com/google/uuid"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Essay aliases domain.Essay for in-memory persistence operations.
	Essay = domain.Essay
	// Institution aliases domain.Institution.
	Institution = domain.Institution
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// CommitHook runs after rules pass and before the new state becomes visible.
// Returning an error aborts the commit and leaves the previous state in place.
type CommitHook func(ctx context.Context, snapshot Snapshot, changes []Change) error

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithIDGenerator overrides id assignment for new records.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.idFn = gen
		}
	}
}

// WithCommitHook registers a hook invoked on every committing transaction.
func WithCommitHook(hook CommitHook) Option {
	return func(s *Store) { s.hook = hook }
}

// memoryState keeps both collections in insertion order.
type memoryState struct {
	essays       []Essay
	institutions []Institution
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Essays       []Essay       `json:"essays"`
	Institutions []Institution `json:"institutions"`
}

func (s memoryState) clone() memoryState {
	return memoryState{
		essays:       append(make([]Essay, 0, len(s.essays)), s.essays...),
		institutions: append(make([]Institution, 0, len(s.institutions)), s.institutions...),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	c := state.clone()
	return Snapshot{Essays: c.essays, Institutions: c.institutions}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	return memoryState{essays: s.Essays, institutions: s.Institutions}.clone()
}

// migrateSnapshot fills in defaults for records written by older versions.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	out := Snapshot{
		Essays:       make([]Essay, 0, len(snapshot.Essays)),
		Institutions: make([]Institution, 0, len(snapshot.Institutions)),
	}
	out.Essays = append(out.Essays, snapshot.Essays...)
	for _, inst := range snapshot.Institutions {
		inst.Status = inst.Status.Normalize()
		out.Institutions = append(out.Institutions, inst)
	}
	return out
}

// Store provides an in-memory transactional store for essays and institutions.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
	idFn   func() string
	hook   CommitHook
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
		idFn:   newID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newID returns a time-ordered UUIDv7 so ids sort by creation.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return id.String()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// SetCommitHook replaces the commit hook after construction.
func (s *Store) SetCommitHook(hook CommitHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.hook != nil && len(tx.changes) > 0 {
		if err := s.hook(ctx, snapshotFromMemoryState(tx.state), tx.changes); err != nil {
			return result, err
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(newTransactionView(&snapshot))
}

func (v transactionView) ListEssays() []Essay {
	return append(make([]Essay, 0, len(v.state.essays)), v.state.essays...)
}

func (v transactionView) ListInstitutions() []Institution {
	return append(make([]Institution, 0, len(v.state.institutions)), v.state.institutions...)
}

func (v transactionView) FindEssay(id string) (Essay, bool) {
	if i := v.state.essayIndex(id); i >= 0 {
		return v.state.essays[i], true
	}
	return Essay{}, false
}

func (v transactionView) FindInstitution(id string) (Institution, bool) {
	if i := v.state.institutionIndex(id); i >= 0 {
		return v.state.institutions[i], true
	}
	return Institution{}, false
}

// EssaysFor returns the essays referencing institutionID in store order.
func (v transactionView) EssaysFor(institutionID string) []Essay {
	var out []Essay
	for _, e := range v.state.essays {
		if institutionID != "" && e.InstitutionRef == institutionID {
			out = append(out, e)
		}
	}
	return out
}

// essayIndex returns the first position holding id. Imported collections may
// contain duplicate ids; lookups resolve to the earliest record.
func (s *memoryState) essayIndex(id string) int {
	for i := range s.essays {
		if s.essays[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *memoryState) institutionIndex(id string) int {
	for i := range s.institutions {
		if s.institutions[i].ID == id {
			return i
		}
	}
	return -1
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindEssay exposes essay lookup within the transaction scope.
func (tx *transaction) FindEssay(id string) (Essay, bool) {
	return transactionView{state: &tx.state}.FindEssay(id)
}

// FindInstitution exposes institution lookup within the transaction scope.
func (tx *transaction) FindInstitution(id string) (Institution, bool) {
	return transactionView{state: &tx.state}.FindInstitution(id)
}

// CreateEssay stores a new essay, assigning an id when none is supplied.
func (tx *transaction) CreateEssay(e Essay) (Essay, error) {
	if e.ID == "" {
		e.ID = tx.store.idFn()
	}
	if tx.state.essayIndex(e.ID) >= 0 {
		return Essay{}, fmt.Errorf("essay %q already exists", e.ID)
	}
	e.CreatedAt = tx.now
	e.UpdatedAt = tx.now
	e.WordCount = domain.CountWords(e.Content)
	tx.state.essays = append(tx.state.essays, e)
	tx.recordChange(Change{Entity: domain.EntityEssay, Action: domain.ActionCreate, After: e})
	return e, nil
}

// UpdateEssay mutates an essay in place. Id and createdAt are preserved.
func (tx *transaction) UpdateEssay(id string, mutator func(*Essay) error) (Essay, error) {
	i := tx.state.essayIndex(id)
	if i < 0 {
		return Essay{}, domain.NotFoundError{Entity: domain.EntityEssay, ID: id}
	}
	before := tx.state.essays[i]
	current := before
	if err := mutator(&current); err != nil {
		return Essay{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	current.WordCount = domain.CountWords(current.Content)
	tx.state.essays[i] = current
	tx.recordChange(Change{Entity: domain.EntityEssay, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteEssay removes every essay carrying id.
func (tx *transaction) DeleteEssay(id string) error {
	kept := tx.state.essays[:0:0]
	var removed []Essay
	for _, e := range tx.state.essays {
		if e.ID == id {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	if len(removed) == 0 {
		return domain.NotFoundError{Entity: domain.EntityEssay, ID: id}
	}
	tx.state.essays = kept
	for _, e := range removed {
		tx.recordChange(Change{Entity: domain.EntityEssay, Action: domain.ActionDelete, Before: e})
	}
	return nil
}

// AppendEssays adds records verbatim. Ids and timestamps are trusted and no
// collision check is made.
func (tx *transaction) AppendEssays(essays []Essay) error {
	for _, e := range essays {
		tx.state.essays = append(tx.state.essays, e)
		tx.recordChange(Change{Entity: domain.EntityEssay, Action: domain.ActionCreate, After: e})
	}
	return nil
}

// DetachEssays clears the reference on every essay pointing at
// institutionID and returns the detached records.
func (tx *transaction) DetachEssays(institutionID string) ([]Essay, error) {
	if institutionID == "" {
		return nil, nil
	}
	var detached []Essay
	for i, e := range tx.state.essays {
		if e.InstitutionRef != institutionID {
			continue
		}
		before := e
		e.InstitutionRef = ""
		e.UpdatedAt = tx.now
		tx.state.essays[i] = e
		tx.recordChange(Change{Entity: domain.EntityEssay, Action: domain.ActionUpdate, Before: before, After: e})
		detached = append(detached, e)
	}
	return detached, nil
}

// CreateInstitution stores a new institution.
func (tx *transaction) CreateInstitution(inst Institution) (Institution, error) {
	if inst.ID == "" {
		inst.ID = tx.store.idFn()
	}
	if tx.state.institutionIndex(inst.ID) >= 0 {
		return Institution{}, fmt.Errorf("institution %q already exists", inst.ID)
	}
	inst.CreatedAt = tx.now
	inst.UpdatedAt = tx.now
	tx.state.institutions = append(tx.state.institutions, inst)
	tx.recordChange(Change{Entity: domain.EntityInstitution, Action: domain.ActionCreate, After: inst})
	return inst, nil
}

// UpdateInstitution mutates an institution in place.
func (tx *transaction) UpdateInstitution(id string, mutator func(*Institution) error) (Institution, error) {
	i := tx.state.institutionIndex(id)
	if i < 0 {
		return Institution{}, domain.NotFoundError{Entity: domain.EntityInstitution, ID: id}
	}
	before := tx.state.institutions[i]
	current := before
	if err := mutator(&current); err != nil {
		return Institution{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.institutions[i] = current
	tx.recordChange(Change{Entity: domain.EntityInstitution, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteInstitution removes an institution. Essays must be detached first.
func (tx *transaction) DeleteInstitution(id string) error {
	i := tx.state.institutionIndex(id)
	if i < 0 {
		return domain.NotFoundError{Entity: domain.EntityInstitution, ID: id}
	}
	for _, e := range tx.state.essays {
		if e.InstitutionRef == id {
			return fmt.Errorf("institution %q still referenced by essay %q", id, e.ID)
		}
	}
	current := tx.state.institutions[i]
	tx.state.institutions = append(tx.state.institutions[:i:i], tx.state.institutions[i+1:]...)
	tx.recordChange(Change{Entity: domain.EntityInstitution, Action: domain.ActionDelete, Before: current})
	return nil
}

// GetEssay returns an essay by id.
func (s *Store) GetEssay(id string) (Essay, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.state.essayIndex(id); i >= 0 {
		return s.state.essays[i], true
	}
	return Essay{}, false
}

// ListEssays returns all essays in store order.
func (s *Store) ListEssays() []Essay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]Essay, 0, len(s.state.essays)), s.state.essays...)
}

// GetInstitution returns an institution by id.
func (s *Store) GetInstitution(id string) (Institution, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.state.institutionIndex(id); i >= 0 {
		return s.state.institutions[i], true
	}
	return Institution{}, false
}

// ListInstitutions returns all institutions in store order.
func (s *Store) ListInstitutions() []Institution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]Institution, 0, len(s.state.institutions)), s.state.institutions...)
}
