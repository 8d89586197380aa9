package core

import (
	"essaycore/internal/infra/persistence/memory"
	"essaycore/pkg/domain"
)

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Base               = domain.Base
	Essay              = domain.Essay
	Institution        = domain.Institution
	Category           = domain.Category
	ApplicationStatus  = domain.ApplicationStatus
	Date               = domain.Date
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	MemoryStore        = memory.Store
)

const (
	EntityEssay       = domain.EntityEssay
	EntityInstitution = domain.EntityInstitution
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }

// NewMemoryStore constructs an in-memory store using the provided rules engine.
func NewMemoryStore(engine *RulesEngine, opts ...memory.Option) *MemoryStore {
	return memory.NewStore(engine, opts...)
}
