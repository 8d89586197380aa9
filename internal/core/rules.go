package core

import (
	"context"
	"fmt"

	"essaycore/pkg/domain"
)

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(ApplicationStatusRule())
	engine.Register(EssayReferenceRule())
	return engine
}

// ApplicationStatusRule blocks any institution write whose status falls
// outside the enumeration, whichever path produced it.
func ApplicationStatusRule() domain.Rule {
	return applicationStatusRule{}
}

type applicationStatusRule struct{}

func (applicationStatusRule) Name() string { return "application_status" }

func (r applicationStatusRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityInstitution || change.After == nil {
			continue
		}
		inst, ok := change.After.(domain.Institution)
		if !ok || inst.Status.Valid() {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("institution %s has unknown status %q", inst.ID, inst.Status),
			Entity:   domain.EntityInstitution,
			EntityID: inst.ID,
		})
	}
	return res, nil
}

// EssayReferenceRule warns when a written essay points at an institution that
// does not exist. Imports may carry such references, so this never blocks.
func EssayReferenceRule() domain.Rule {
	return essayReferenceRule{}
}

type essayReferenceRule struct{}

func (essayReferenceRule) Name() string { return "essay_reference" }

func (r essayReferenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityEssay || change.After == nil {
			continue
		}
		essay, ok := change.After.(domain.Essay)
		if !ok || !essay.Assigned() {
			continue
		}
		if _, found := view.FindInstitution(essay.InstitutionRef); found {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("essay %s references missing institution %s", essay.ID, essay.InstitutionRef),
			Entity:   domain.EntityEssay,
			EntityID: essay.ID,
		})
	}
	return res, nil
}
