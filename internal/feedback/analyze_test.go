package feedback

import (
	"strings"
	"testing"

	"essaycore/pkg/domain"
)

const sampleEssay = "I was very nervous. I felt the crowd. I heard them cheer. it failed.\n\nThen I saw the stage and walked up to it calmly and slowly."

func TestAnalyzeStats(t *testing.T) {
	r := Analyze(sampleEssay, domain.CategoryPersonal)
	want := TextStats{Words: 27, Sentences: 5, Paragraphs: 2, AvgWordsPerSentence: 5}
	if r.Stats != want {
		t.Fatalf("unexpected stats: %+v", r.Stats)
	}
	if r.TooShort {
		t.Fatalf("sample should be long enough")
	}
	if len(r.Tips) == 0 || r.Tips[0] != "A compelling opening that draws readers in" {
		t.Fatalf("expected personal tips, got %v", r.Tips)
	}
}

func TestAnalyzeSuggestions(t *testing.T) {
	r := Analyze(sampleEssay, domain.CategoryPersonal)
	var kinds []Kind
	for _, s := range r.Suggestions {
		kinds = append(kinds, s.Kind)
	}
	if len(kinds) != 3 || kinds[0] != KindStyle || kinds[1] != KindFlow || kinds[2] != KindDetail {
		t.Fatalf("unexpected suggestions: %+v", r.Suggestions)
	}
	if !strings.Contains(r.Suggestions[0].Detail, "very") {
		t.Fatalf("weak word not named: %s", r.Suggestions[0].Detail)
	}
	if !strings.Contains(r.Suggestions[1].Detail, `"i"`) {
		t.Fatalf("repeated opening not named: %s", r.Suggestions[1].Detail)
	}
}

func TestAnalyzeGrammarAndEnhancements(t *testing.T) {
	r := Analyze(sampleEssay, domain.CategoryPersonal)
	if len(r.GrammarIssues) != 1 || r.GrammarIssues[0].Kind != KindGrammar || !strings.Contains(r.GrammarIssues[0].Detail, "1 potential sentence fragment") {
		t.Fatalf("unexpected grammar issues: %+v", r.GrammarIssues)
	}
	if len(r.Enhancements) != 1 || r.Enhancements[0].Title != "Use Active Voice" {
		t.Fatalf("unexpected enhancements: %+v", r.Enhancements)
	}
}

func TestAnalyzeGrammarChecks(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		kinds []Kind
	}{
		{
			name:  "homophones",
			text:  "its tail wagged and it's late. there was their dog waiting near the barn door today.",
			kinds: []Kind{KindGrammar, KindGrammar},
		},
		{
			name:  "long sentence",
			text:  strings.Repeat("Word ", 31) + ".",
			kinds: []Kind{KindStyle},
		},
		{
			name:  "clean",
			text:  "My grandmother taught me to bake bread every Sunday morning. She laughed often.",
			kinds: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Analyze(tc.text, domain.CategoryOther)
			if len(r.GrammarIssues) != len(tc.kinds) {
				t.Fatalf("expected %d issues, got %+v", len(tc.kinds), r.GrammarIssues)
			}
			for i, k := range tc.kinds {
				if r.GrammarIssues[i].Kind != k {
					t.Fatalf("issue %d: expected %s, got %s", i, k, r.GrammarIssues[i].Kind)
				}
			}
		})
	}
}

func TestAnalyzeTooShort(t *testing.T) {
	r := Analyze("Short text.", domain.CategoryScholarship)
	if !r.TooShort {
		t.Fatalf("expected TooShort")
	}
	if r.Stats.Words != 2 || r.Stats.Sentences != 1 {
		t.Fatalf("stats should still be computed: %+v", r.Stats)
	}
	if r.Suggestions != nil || r.GrammarIssues != nil || r.Enhancements != nil {
		t.Fatalf("short text should not be analyzed: %+v", r)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	r := Analyze("", "")
	if r.Stats != (TextStats{}) || !r.TooShort {
		t.Fatalf("unexpected report for empty text: %+v", r)
	}
	if len(r.Tips) != 7 {
		t.Fatalf("expected general tips, got %d", len(r.Tips))
	}
}

func TestIdeasPerCategory(t *testing.T) {
	for _, c := range domain.Categories() {
		if len(Ideas(c)) == 0 || len(Tips(c)) == 0 {
			t.Fatalf("missing guidance for %s", c)
		}
	}
	if Ideas("unknown")[0] != Ideas(domain.CategoryOther)[0] {
		t.Fatalf("unknown category should fall back to general ideas")
	}
}
