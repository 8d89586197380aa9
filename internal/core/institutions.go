package core

import (
	"context"
	"fmt"

	"essaycore/pkg/domain"
)

// UpsertInstitution creates or replaces an institution. This is the edit
// path: any enumerated status is accepted. SetStatus enforces transitions.
func (s *Service) UpsertInstitution(ctx context.Context, draft Institution) (Institution, Result, error) {
	op := opCreateInstitution
	_, exists := s.store.GetInstitution(draft.ID)
	if draft.ID != "" && exists {
		op = opUpdateInstitution
	} else {
		draft.ID = ""
	}
	var saved Institution
	res, err := s.observe(ctx, op, func(ctx context.Context) (string, Result, error) {
		if err := domain.ValidateInstitution(draft); err != nil {
			return draft.ID, Result{}, err
		}
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			if op == opUpdateInstitution {
				saved, err = tx.UpdateInstitution(draft.ID, func(i *Institution) error {
					i.Name = draft.Name
					i.Location = draft.Location
					i.Notes = draft.Notes
					i.Deadline = draft.Deadline
					i.Status = draft.Status
					return nil
				})
				return err
			}
			saved, err = tx.CreateInstitution(draft)
			return err
		})
		return saved.ID, res, err
	})
	return saved, res, err
}

// DeleteInstitution detaches every essay referencing id and removes the
// institution in one transaction. When essays are attached the caller must
// pass confirm; otherwise ErrConfirmationRequired is returned and nothing
// changes.
func (s *Service) DeleteInstitution(ctx context.Context, id string, confirm bool) (Result, error) {
	return s.observe(ctx, opDeleteInstitution, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindInstitution(id); !ok {
				return domain.NotFoundError{Entity: EntityInstitution, ID: id}
			}
			if n := len(tx.Snapshot().EssaysFor(id)); n > 0 && !confirm {
				return fmt.Errorf("institution %s has %d attached essays: %w", id, n, domain.ErrConfirmationRequired)
			}
			if _, err := tx.DetachEssays(id); err != nil {
				return err
			}
			return tx.DeleteInstitution(id)
		})
		return id, res, err
	})
}

// SetStatus moves an institution to next when the transition table allows it.
func (s *Service) SetStatus(ctx context.Context, id string, next ApplicationStatus) (Institution, Result, error) {
	var updated Institution
	res, err := s.observe(ctx, opSetStatus, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			current, ok := tx.FindInstitution(id)
			if !ok {
				return domain.NotFoundError{Entity: EntityInstitution, ID: id}
			}
			from := current.Status.Normalize()
			if !from.CanTransition(next) {
				return domain.InvalidTransitionError{InstitutionID: id, From: from, To: next}
			}
			var err error
			updated, err = tx.UpdateInstitution(id, func(i *Institution) error {
				i.Status = next
				return nil
			})
			return err
		})
		return id, res, err
	})
	return updated, res, err
}

// GetInstitution returns the institution with id.
func (s *Service) GetInstitution(_ context.Context, id string) (Institution, error) {
	inst, ok := s.store.GetInstitution(id)
	if !ok {
		return Institution{}, domain.NotFoundError{Entity: EntityInstitution, ID: id}
	}
	return inst, nil
}

// ListInstitutions returns every institution in store order.
func (s *Service) ListInstitutions(_ context.Context) []Institution {
	return s.store.ListInstitutions()
}
