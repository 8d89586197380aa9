package core

import (
	"context"

	"essaycore/pkg/domain"
)

// UpsertEssay creates or replaces an essay. An id that resolves to a stored
// essay updates it in place and keeps its createdAt; any other draft is
// created under a fresh id. The word count is always recomputed.
func (s *Service) UpsertEssay(ctx context.Context, draft Essay) (Essay, Result, error) {
	if draft.IsDraft && draft.Category == "" {
		draft.Category = domain.CategoryOther
	}
	op := opCreateEssay
	_, exists := s.store.GetEssay(draft.ID)
	if draft.ID != "" && exists {
		op = opUpdateEssay
	} else {
		draft.ID = ""
	}
	var saved Essay
	res, err := s.observe(ctx, op, func(ctx context.Context) (string, Result, error) {
		if err := domain.ValidateEssay(draft); err != nil {
			return draft.ID, Result{}, err
		}
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			if op == opUpdateEssay {
				saved, err = tx.UpdateEssay(draft.ID, func(e *Essay) error {
					e.Title = draft.Title
					e.Category = draft.Category
					e.Content = draft.Content
					e.Deadline = draft.Deadline
					e.InstitutionRef = draft.InstitutionRef
					e.IsDraft = draft.IsDraft
					return nil
				})
				return err
			}
			saved, err = tx.CreateEssay(draft)
			return err
		})
		return saved.ID, res, err
	})
	return saved, res, err
}

// DeleteEssay removes an essay.
func (s *Service) DeleteEssay(ctx context.Context, id string) (Result, error) {
	return s.observe(ctx, opDeleteEssay, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteEssay(id)
		})
		return id, res, err
	})
}

// GetEssay returns the essay with id.
func (s *Service) GetEssay(_ context.Context, id string) (Essay, error) {
	e, ok := s.store.GetEssay(id)
	if !ok {
		return Essay{}, domain.NotFoundError{Entity: EntityEssay, ID: id}
	}
	return e, nil
}

// ListEssays returns every essay in store order.
func (s *Service) ListEssays(_ context.Context) []Essay {
	return s.store.ListEssays()
}
