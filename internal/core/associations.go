package core

import (
	"context"

	"essaycore/pkg/domain"
)

// Assign points an essay at an institution. Reassigning to the same
// institution only moves updatedAt.
func (s *Service) Assign(ctx context.Context, essayID, institutionID string) (Essay, Result, error) {
	var updated Essay
	res, err := s.observe(ctx, opAssignEssay, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindEssay(essayID); !ok {
				return domain.NotFoundError{Entity: EntityEssay, ID: essayID}
			}
			if _, ok := tx.FindInstitution(institutionID); !ok {
				return domain.NotFoundError{Entity: EntityInstitution, ID: institutionID}
			}
			var err error
			updated, err = tx.UpdateEssay(essayID, func(e *Essay) error {
				e.InstitutionRef = institutionID
				return nil
			})
			return err
		})
		return essayID, res, err
	})
	return updated, res, err
}

// Unassign clears an essay's institution reference. An essay that is already
// unassigned is returned unchanged.
func (s *Service) Unassign(ctx context.Context, essayID string) (Essay, Result, error) {
	var updated Essay
	res, err := s.observe(ctx, opUnassignEssay, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			current, ok := tx.FindEssay(essayID)
			if !ok {
				return domain.NotFoundError{Entity: EntityEssay, ID: essayID}
			}
			if !current.Assigned() {
				updated = current
				return nil
			}
			var err error
			updated, err = tx.UpdateEssay(essayID, func(e *Essay) error {
				e.InstitutionRef = ""
				return nil
			})
			return err
		})
		return essayID, res, err
	})
	return updated, res, err
}

// EssaysFor lists the essays assigned to institutionID in store order.
func (s *Service) EssaysFor(ctx context.Context, institutionID string) []Essay {
	var out []Essay
	_ = s.store.View(ctx, func(v TransactionView) error {
		out = v.EssaysFor(institutionID)
		return nil
	})
	return out
}

// InstitutionFor resolves an essay's institution. ok is false when the essay
// is unassigned or its reference dangles; err is set only for unknown essays.
func (s *Service) InstitutionFor(ctx context.Context, essayID string) (Institution, bool, error) {
	var (
		inst  Institution
		found bool
	)
	err := s.store.View(ctx, func(v TransactionView) error {
		e, ok := v.FindEssay(essayID)
		if !ok {
			return domain.NotFoundError{Entity: EntityEssay, ID: essayID}
		}
		if !e.Assigned() {
			return nil
		}
		inst, found = v.FindInstitution(e.InstitutionRef)
		return nil
	})
	return inst, found, err
}
