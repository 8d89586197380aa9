package query

import (
	"strings"
	"testing"
	"time"

	"essaycore/pkg/domain"
)

func essay(id, title, content string, cat domain.Category, inst string) domain.Essay {
	return domain.Essay{
		Base:           domain.Base{ID: id},
		Title:          title,
		Content:        content,
		Category:       cat,
		InstitutionRef: inst,
		WordCount:      domain.CountWords(content),
	}
}

func ids(essays []domain.Essay) string {
	parts := make([]string, 0, len(essays))
	for _, e := range essays {
		parts = append(parts, e.ID)
	}
	return strings.Join(parts, ",")
}

func TestFilterEssays(t *testing.T) {
	essays := []domain.Essay{
		essay("1", "History of Me", "text", domain.CategoryPersonal, "c1"),
		essay("2", "Why MIT", "my history with robots", domain.CategorySupplemental, "c1"),
		essay("3", "Scholarship", "HISTORY repeats", domain.CategoryPersonal, ""),
		essay("4", "Unrelated", "nothing", domain.CategoryPersonal, ""),
	}
	cases := []struct {
		name        string
		search      string
		category    domain.Category
		institution string
		want        string
	}{
		{"search title or content case-insensitively", "history", "", "", "1,2,3"},
		{"search and category", "history", domain.CategoryPersonal, "", "1,3"},
		{"institution only", "", "", "c1", "1,2"},
		{"all predicates", "history", domain.CategoryPersonal, "c1", "1"},
		{"no filters", "", "", "", "1,2,3,4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(FilterEssays(essays, tc.search, tc.category, tc.institution))
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestSortEssays(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	essays := []domain.Essay{
		{Base: domain.Base{ID: "a", UpdatedAt: base}, Title: "banana", WordCount: 5},
		{Base: domain.Base{ID: "b", UpdatedAt: base.Add(2 * time.Hour)}, Title: "Apple", WordCount: 10},
		{Base: domain.Base{ID: "c", UpdatedAt: base.Add(time.Hour)}, Title: "cherry", WordCount: 5},
	}
	cases := []struct {
		criterion Criterion
		want      string
	}{
		{SortTitle, "b,a,c"},
		{SortWordCount, "b,a,c"},
		{SortUpdatedAt, "b,c,a"},
		{Criterion("bogus"), "b,c,a"},
	}
	for _, tc := range cases {
		if got := ids(SortEssays(essays, tc.criterion)); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.criterion, tc.want, got)
		}
	}
	if ids(essays) != "a,b,c" {
		t.Fatalf("input mutated: %s", ids(essays))
	}
}

func TestFilterInstitutionsByStatus(t *testing.T) {
	insts := []domain.Institution{
		{Base: domain.Base{ID: "1"}, Status: domain.StatusSubmitted},
		{Base: domain.Base{ID: "2"}, Status: ""},
		{Base: domain.Base{ID: "3"}, Status: domain.StatusNotStarted},
	}
	if got := FilterInstitutionsByStatus(insts, domain.StatusNotStarted); len(got) != 2 {
		t.Fatalf("expected unset status to read as not-started, got %+v", got)
	}
	if got := FilterInstitutionsByStatus(insts, ""); len(got) != 3 {
		t.Fatalf("expected empty status to match all, got %d", len(got))
	}
}

func TestStatistics(t *testing.T) {
	if got := Statistics(nil); got != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", got)
	}
	long := strings.Repeat("word ", 21) // 105 chars
	essays := []domain.Essay{
		essay("1", "t", long, domain.CategoryPersonal, ""),
		essay("2", "t", "one two", domain.CategoryPersonal, ""),
	}
	got := Statistics(essays)
	want := Stats{TotalEssays: 2, TotalWords: 23, CompletedEssays: 1, AverageWords: 12}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestStatisticsCountsUTF16Units(t *testing.T) {
	// 50 emoji are 200 UTF-8 bytes but 100 UTF-16 units: not completed.
	content := strings.Repeat("\U0001F600", 50)
	if got := Statistics([]domain.Essay{{Content: content}}); got.CompletedEssays != 0 {
		t.Fatalf("expected 100 code units to be incomplete, got %+v", got)
	}
	if got := Statistics([]domain.Essay{{Content: content + "x"}}); got.CompletedEssays != 1 {
		t.Fatalf("expected 101 code units to be complete, got %+v", got)
	}
}

func TestBreakdowns(t *testing.T) {
	essays := []domain.Essay{
		essay("1", "t", "c", domain.CategorySupplemental, "c2"),
		essay("2", "t", "c", domain.CategoryPersonal, "c1"),
		essay("3", "t", "c", domain.CategorySupplemental, "gone"),
		essay("4", "t", "c", domain.CategorySupplemental, ""),
		essay("5", "t", "c", domain.CategoryPersonal, "c2"),
	}
	insts := []domain.Institution{
		{Base: domain.Base{ID: "c1"}, Name: "MIT"},
		{Base: domain.Base{ID: "c2"}, Name: "Stanford"},
	}
	cats := CategoryBreakdown(essays)
	if len(cats) != 2 || cats[0].Key != "supplemental" || cats[0].Count != 3 || cats[1].Label != "Personal Statement" || cats[1].Count != 2 {
		t.Fatalf("unexpected category breakdown %+v", cats)
	}
	byInst := InstitutionBreakdown(essays, insts)
	want := []Bucket{
		{Key: "Stanford", Label: "Stanford", Count: 2},
		{Key: "MIT", Label: "MIT", Count: 1},
		{Key: UnknownInstitution, Label: UnknownInstitution, Count: 1},
	}
	if len(byInst) != len(want) {
		t.Fatalf("unexpected institution breakdown %+v", byInst)
	}
	for i := range want {
		if byInst[i] != want[i] {
			t.Fatalf("bucket %d: expected %+v, got %+v", i, want[i], byInst[i])
		}
	}
	if CategoryBreakdown(nil) != nil {
		t.Fatalf("expected nil breakdown for no essays")
	}
}
