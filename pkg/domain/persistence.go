package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateEssay(Essay) (Essay, error)
	UpdateEssay(id string, mutator func(*Essay) error) (Essay, error)
	DeleteEssay(id string) error
	AppendEssays([]Essay) error
	DetachEssays(institutionID string) ([]Essay, error)
	CreateInstitution(Institution) (Institution, error)
	UpdateInstitution(id string, mutator func(*Institution) error) (Institution, error)
	DeleteInstitution(id string) error
	FindEssay(id string) (Essay, bool)
	FindInstitution(id string) (Institution, bool)
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
	EssaysFor(institutionID string) []Essay
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetEssay(id string) (Essay, bool)
	ListEssays() []Essay
	GetInstitution(id string) (Institution, bool)
	ListInstitutions() []Institution
}
