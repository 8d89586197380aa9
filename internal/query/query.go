// Package query holds read-only projections over essay and institution
// collections. Nothing here mutates its input.
package query

import (
	"sort"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"essaycore/pkg/domain"
)

// Criterion names an essay ordering.
type Criterion string

// Sort criteria. Unknown values fall back to SortUpdatedAt.
const (
	SortTitle     Criterion = "title"
	SortWordCount Criterion = "wordCount"
	SortUpdatedAt Criterion = "updatedAt"
)

// UnknownInstitution labels essays whose reference does not resolve.
const UnknownInstitution = "Unknown Institution"

// completedThreshold is the content length, in UTF-16 code units, above which
// an essay counts as completed.
const completedThreshold = 100

// FilterEssays keeps essays whose title or content contains search
// (case-insensitive) and whose category and institution match when given.
func FilterEssays(essays []domain.Essay, search string, category domain.Category, institution string) []domain.Essay {
	needle := strings.ToLower(search)
	out := make([]domain.Essay, 0, len(essays))
	for _, e := range essays {
		if needle != "" && !strings.Contains(strings.ToLower(e.Title), needle) && !strings.Contains(strings.ToLower(e.Content), needle) {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}
		if institution != "" && e.InstitutionRef != institution {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SortEssays returns a stably sorted copy.
func SortEssays(essays []domain.Essay, criterion Criterion) []domain.Essay {
	out := append([]domain.Essay(nil), essays...)
	switch criterion {
	case SortTitle:
		c := collate.New(language.Und)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Title, out[j].Title) < 0
		})
	case SortWordCount:
		sort.SliceStable(out, func(i, j int) bool { return out[i].WordCount > out[j].WordCount })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	}
	return out
}

// FilterInstitutionsByStatus keeps institutions in status; empty matches all.
func FilterInstitutionsByStatus(institutions []domain.Institution, status domain.ApplicationStatus) []domain.Institution {
	out := make([]domain.Institution, 0, len(institutions))
	for _, inst := range institutions {
		if status == "" || inst.Status.Normalize() == status {
			out = append(out, inst)
		}
	}
	return out
}

// Stats summarizes an essay collection.
type Stats struct {
	TotalEssays     int `json:"totalEssays"`
	TotalWords      int `json:"totalWords"`
	CompletedEssays int `json:"completedEssays"`
	AverageWords    int `json:"averageWords"`
}

// Statistics computes totals from the stored word counts.
func Statistics(essays []domain.Essay) Stats {
	var s Stats
	s.TotalEssays = len(essays)
	for _, e := range essays {
		s.TotalWords += e.WordCount
		if utf16Len(e.Content) > completedThreshold {
			s.CompletedEssays++
		}
	}
	if s.TotalEssays > 0 {
		// round half up
		s.AverageWords = (2*s.TotalWords + s.TotalEssays) / (2 * s.TotalEssays)
	}
	return s
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// Bucket is one row of a breakdown.
type Bucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CategoryBreakdown counts essays per category in order of first appearance.
func CategoryBreakdown(essays []domain.Essay) []Bucket {
	var b breakdown
	for _, e := range essays {
		b.add(string(e.Category), e.Category.Label())
	}
	return b.buckets
}

// InstitutionBreakdown counts assigned essays per institution name in order
// of first appearance. Unresolvable references group under UnknownInstitution.
func InstitutionBreakdown(essays []domain.Essay, institutions []domain.Institution) []Bucket {
	names := make(map[string]string, len(institutions))
	for _, inst := range institutions {
		if _, seen := names[inst.ID]; !seen {
			names[inst.ID] = inst.Name
		}
	}
	var b breakdown
	for _, e := range essays {
		if !e.Assigned() {
			continue
		}
		name, ok := names[e.InstitutionRef]
		if !ok {
			name = UnknownInstitution
		}
		b.add(name, name)
	}
	return b.buckets
}

type breakdown struct {
	index   map[string]int
	buckets []Bucket
}

func (b *breakdown) add(key, label string) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[key]; ok {
		b.buckets[i].Count++
		return
	}
	b.index[key] = len(b.buckets)
	b.buckets = append(b.buckets, Bucket{Key: key, Label: label, Count: 1})
}
