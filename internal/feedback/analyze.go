// Package feedback produces writing feedback for essays. Analyze is pure;
// Assistant layers intent routing and an injectable response delay on top.
package feedback

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"

	"essaycore/pkg/domain"
)

// MinContentLength is the content length, in UTF-16 code units, below which
// there is too little text to analyze.
const MinContentLength = 50

// Kind classifies a suggestion or issue.
type Kind string

const (
	KindStyle   Kind = "Style"
	KindFlow    Kind = "Flow"
	KindDetail  Kind = "Detail"
	KindVoice   Kind = "Voice"
	KindGrammar Kind = "Grammar"
)

// Suggestion is a content-level recommendation.
type Suggestion struct {
	Kind   Kind   `json:"kind"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Hint   string `json:"hint,omitempty"`
}

// Issue is a grammar or style problem.
type Issue struct {
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail"`
	Hint   string `json:"hint,omitempty"`
}

// Enhancement is a way to make the writing more vivid.
type Enhancement struct {
	Title   string `json:"title"`
	Detail  string `json:"detail"`
	Example string `json:"example,omitempty"`
}

// TextStats counts the structure of a text.
type TextStats struct {
	Words               int `json:"words"`
	Sentences           int `json:"sentences"`
	Paragraphs          int `json:"paragraphs"`
	AvgWordsPerSentence int `json:"avgWordsPerSentence"`
}

// Report is the full analysis of one text. When TooShort is set only Stats
// and Tips are filled.
type Report struct {
	Stats         TextStats     `json:"stats"`
	Suggestions   []Suggestion  `json:"suggestions"`
	GrammarIssues []Issue       `json:"grammarIssues"`
	Enhancements  []Enhancement `json:"enhancements"`
	Tips          []string      `json:"tips"`
	TooShort      bool          `json:"tooShort"`
}

var (
	sentenceSep = regexp.MustCompile(`[.!?]+`)

	weakWords       = []string{"very", "really", "quite", "somewhat", "rather", "pretty"}
	emotionalWords  = []string{"felt", "emotion", "excited", "nervous", "proud", "disappointed", "happy", "sad"}
	vagueWords      = []string{"thing", "stuff", "something", "anything", "everything"}
	passiveMarkers  = []string{"was", "were", "been", "being"}
	sensoryWords    = []string{"saw", "heard", "felt", "smelled", "tasted"}
	longSentenceLen = 30
	fragmentLen     = 5
)

// Analyze inspects text written for category. Word lists match by substring
// of the lowercased text.
func Analyze(text string, category domain.Category) Report {
	sentences := splitSentences(text)
	report := Report{
		Stats: TextStats{
			Words:      domain.CountWords(text),
			Sentences:  len(sentences),
			Paragraphs: countParagraphs(text),
		},
		Tips: Tips(category),
	}
	if report.Stats.Sentences > 0 {
		report.Stats.AvgWordsPerSentence = (2*report.Stats.Words + report.Stats.Sentences) / (2 * report.Stats.Sentences)
	}
	if utf16Len(text) < MinContentLength {
		report.TooShort = true
		return report
	}
	lower := strings.ToLower(text)
	report.Suggestions = suggestions(text, lower, sentences)
	report.GrammarIssues = grammarIssues(text, sentences)
	report.Enhancements = enhancements(lower)
	return report
}

func suggestions(text, lower string, sentences []string) []Suggestion {
	var out []Suggestion
	if found := containsAny(lower, weakWords); len(found) > 0 {
		out = append(out, Suggestion{
			Kind:   KindStyle,
			Title:  "Replace Weak Words",
			Detail: fmt.Sprintf("Consider replacing weak words like %q with stronger, more specific alternatives.", strings.Join(found, ", ")),
			Hint:   `Instead of "very good," try "excellent" or "outstanding".`,
		})
	}
	if word, ok := repeatedOpening(sentences); ok {
		out = append(out, Suggestion{
			Kind:   KindFlow,
			Title:  "Vary Sentence Beginnings",
			Detail: fmt.Sprintf("You start multiple sentences with %q. Try varying your sentence openings for better flow.", word),
			Hint:   `Use different sentence starters like "Additionally," "Furthermore," or "However,".`,
		})
	}
	if !strings.ContainsAny(text, `"'`) {
		out = append(out, Suggestion{
			Kind:   KindDetail,
			Title:  "Add Specific Details",
			Detail: "Your essay could benefit from more specific examples, dialogue, or concrete details.",
			Hint:   "Include quotes, specific names, dates, or sensory details to bring your story to life.",
		})
	}
	if len(containsAny(lower, emotionalWords)) == 0 {
		out = append(out, Suggestion{
			Kind:   KindVoice,
			Title:  "Add Emotional Depth",
			Detail: "Consider adding more emotional content to help readers connect with your experiences.",
			Hint:   "Describe how you felt, what you learned, or how the experience changed you.",
		})
	}
	return out
}

func grammarIssues(text string, sentences []string) []Issue {
	var out []Issue
	if strings.Contains(text, "its ") && strings.Contains(text, "it's") {
		out = append(out, Issue{
			Kind:   KindGrammar,
			Detail: `Check usage of "its" vs "it's": "its" is possessive, "it's" means "it is".`,
			Hint:   "Review each instance to ensure correct usage.",
		})
	}
	if strings.Contains(text, "there ") && strings.Contains(text, "their") {
		out = append(out, Issue{
			Kind:   KindGrammar,
			Detail: `Check usage of "there" vs "their": "there" indicates location, "their" is possessive.`,
			Hint:   "Review each instance to ensure correct usage.",
		})
	}
	var long, fragments int
	for _, s := range sentences {
		words := strings.Fields(s)
		if len(words) > longSentenceLen {
			long++
		}
		if len(words) < fragmentLen && !startsUpper(words[0]) {
			fragments++
		}
	}
	if long > 0 {
		out = append(out, Issue{
			Kind:   KindStyle,
			Detail: fmt.Sprintf("You have %d sentence(s) that might be too long and could be split for clarity.", long),
			Hint:   "Consider breaking long sentences into shorter, clearer ones.",
		})
	}
	if fragments > 0 {
		out = append(out, Issue{
			Kind:   KindGrammar,
			Detail: fmt.Sprintf("You have %d potential sentence fragment(s).", fragments),
			Hint:   "Make sure each sentence is complete with a subject and verb.",
		})
	}
	return out
}

func enhancements(lower string) []Enhancement {
	var out []Enhancement
	if found := containsAny(lower, vagueWords); len(found) > 0 {
		out = append(out, Enhancement{
			Title:   "Replace Vague Language",
			Detail:  fmt.Sprintf("Replace vague words like %q with specific, concrete terms.", strings.Join(found, ", ")),
			Example: `Instead of "I learned many things," try "I learned problem-solving, teamwork, and leadership skills".`,
		})
	}
	if len(containsAny(lower, passiveMarkers)) > 0 {
		out = append(out, Enhancement{
			Title:   "Use Active Voice",
			Detail:  "Try to use active voice instead of passive voice for stronger, more direct writing.",
			Example: `Instead of "The project was completed by me," try "I completed the project".`,
		})
	}
	if len(containsAny(lower, sensoryWords)) == 0 {
		out = append(out, Enhancement{
			Title:   "Add Sensory Details",
			Detail:  "Include sensory details to help readers visualize and connect with your experiences.",
			Example: "Describe what you saw, heard, felt, smelled, or tasted in key moments.",
		})
	}
	return out
}

// splitSentences splits on runs of terminal punctuation and drops blank
// pieces.
func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceSep.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func countParagraphs(text string) int {
	n := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

// repeatedOpening returns the first sentence-opening word, in order of first
// appearance, that starts more than two sentences.
func repeatedOpening(sentences []string) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, s := range sentences {
		word := strings.ToLower(strings.Fields(s)[0])
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}
	for _, word := range order {
		if counts[word] > 2 {
			return word, true
		}
	}
	return "", false
}

func containsAny(lower string, words []string) []string {
	var found []string
	for _, w := range words {
		if strings.Contains(lower, w) {
			found = append(found, w)
		}
	}
	return found
}

func startsUpper(word string) bool {
	return word != "" && word[0] >= 'A' && word[0] <= 'Z'
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
