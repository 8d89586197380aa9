package core

import (
	"context"

	"essaycore/internal/query"
)

// StatsReport combines the headline statistics with both breakdowns, all
// computed from one snapshot.
type StatsReport struct {
	query.Stats
	Categories   []query.Bucket `json:"categories"`
	Institutions []query.Bucket `json:"institutions"`
}

// EssayFilter selects and orders essays. Empty fields match everything.
type EssayFilter struct {
	Search      string
	Category    Category
	Institution string
	Sort        query.Criterion
}

// Stats computes statistics and breakdowns over the current collections.
func (s *Service) Stats(ctx context.Context) StatsReport {
	var report StatsReport
	_ = s.store.View(ctx, func(v TransactionView) error {
		essays := v.ListEssays()
		report = StatsReport{
			Stats:        query.Statistics(essays),
			Categories:   query.CategoryBreakdown(essays),
			Institutions: query.InstitutionBreakdown(essays, v.ListInstitutions()),
		}
		return nil
	})
	return report
}

// Filter returns the essays matching f, ordered by f.Sort.
func (s *Service) Filter(ctx context.Context, f EssayFilter) []Essay {
	var out []Essay
	_ = s.store.View(ctx, func(v TransactionView) error {
		matched := query.FilterEssays(v.ListEssays(), f.Search, f.Category, f.Institution)
		out = query.SortEssays(matched, f.Sort)
		return nil
	})
	return out
}

// Sorted returns every essay ordered by criterion.
func (s *Service) Sorted(ctx context.Context, criterion query.Criterion) []Essay {
	return s.Filter(ctx, EssayFilter{Sort: criterion})
}

// InstitutionsByStatus lists institutions with the given status. An empty
// status returns all of them.
func (s *Service) InstitutionsByStatus(ctx context.Context, status ApplicationStatus) []Institution {
	var out []Institution
	_ = s.store.View(ctx, func(v TransactionView) error {
		out = query.FilterInstitutionsByStatus(v.ListInstitutions(), status)
		return nil
	})
	return out
}
