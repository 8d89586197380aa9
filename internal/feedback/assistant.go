package feedback

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"essaycore/pkg/domain"
)

// Intent is what a message asks the assistant for.
type Intent string

const (
	IntentAnalyze    Intent = "analyze"
	IntentGrammar    Intent = "grammar"
	IntentEnhance    Intent = "enhance"
	IntentBrainstorm Intent = "brainstorm"
	IntentImprove    Intent = "improve"
	IntentTips       Intent = "tips"
	IntentOpening    Intent = "opening"
	IntentConclusion Intent = "conclusion"
	IntentReview     Intent = "review"
	IntentHelp       Intent = "help"
	IntentFallback   Intent = "fallback"
)

// intentKeywords is checked in order; the first intent with a matching
// keyword wins.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentAnalyze, []string{"analyze", "analysis"}},
	{IntentGrammar, []string{"grammar", "style", "check"}},
	{IntentEnhance, []string{"enhance", "engaging", "specific"}},
	{IntentBrainstorm, []string{"brainstorm", "ideas"}},
	{IntentImprove, []string{"improve", "better"}},
	{IntentTips, []string{"tips", "strong", "good"}},
	{IntentOpening, []string{"opening", "beginning", "start"}},
	{IntentConclusion, []string{"conclusion", "ending", "conclude"}},
	{IntentReview, []string{"review", "clarity"}},
	{IntentHelp, []string{"help", "what", "how"}},
}

var fallbackReplies = []string{
	"That's an interesting question! Could you tell me more about what specific aspect of essay writing you'd like help with?",
	"I'd be happy to help! What part of your essay are you working on right now?",
	"Great question! Are you looking for help with brainstorming, writing, or reviewing your essay?",
	"I'm here to help with your college essays! What would you like to focus on today?",
	"That's a good point! Could you be more specific about what you'd like assistance with?",
}

// Classify maps a message to an intent by case-insensitive keyword match.
func Classify(message string) Intent {
	lower := strings.ToLower(message)
	for _, entry := range intentKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.intent
			}
		}
	}
	return IntentFallback
}

// Reply is the assistant's answer. Report is set for intents that analyze
// the essay.
type Reply struct {
	Intent Intent
	Text   string
	Report *Report
}

// Assistant answers writing questions about an essay.
type Assistant struct {
	// Delay is waited before each reply. The wait ends early when the
	// context is cancelled.
	Delay time.Duration

	mu       sync.Mutex
	inflight uint64
	cancel   context.CancelFunc
}

// NewAssistant returns an assistant that waits delay before replying.
func NewAssistant(delay time.Duration) *Assistant {
	return &Assistant{Delay: delay}
}

// Ask is Respond with supersession: a new Ask cancels the one still in
// flight, which then returns context.Canceled.
func (a *Assistant) Ask(ctx context.Context, message string, essay *domain.Essay) (Reply, error) {
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.inflight++
	id := a.inflight
	a.cancel = cancel
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		if a.inflight == id {
			a.cancel = nil
		}
		a.mu.Unlock()
		cancel()
	}()
	return a.Respond(ctx, message, essay)
}

// Respond waits Delay and answers message. A nil essay is treated as empty.
func (a *Assistant) Respond(ctx context.Context, message string, essay *domain.Essay) (Reply, error) {
	if err := a.wait(ctx); err != nil {
		return Reply{}, err
	}
	var (
		content  string
		category = domain.CategoryOther
	)
	if essay != nil {
		content = essay.Content
		if essay.Category != "" {
			category = essay.Category
		}
	}
	intent := Classify(message)
	reply := Reply{Intent: intent}
	switch intent {
	case IntentAnalyze, IntentGrammar, IntentEnhance, IntentImprove, IntentReview:
		report := Analyze(content, category)
		reply.Report = &report
		reply.Text = renderAnalysis(intent, report)
	case IntentBrainstorm:
		reply.Text = bullets(fmt.Sprintf("Brainstorming ideas for a %s essay:", category.Label()), Ideas(category))
	case IntentTips:
		reply.Text = bullets(fmt.Sprintf("Strong %s essays include:", category.Label()), Tips(category))
	case IntentOpening:
		reply.Text = bullets(fmt.Sprintf("Strategies for opening a %s essay:", category.Label()), []string{
			"Start with a specific moment or scene",
			"Use dialogue or a quote",
			"Begin with a surprising statement or fact",
			"Describe a sensory detail",
			"Ask a thought-provoking question",
			"Start in the middle of action",
		})
	case IntentConclusion:
		reply.Text = bullets(fmt.Sprintf("Ways to conclude a %s essay:", category.Label()), []string{
			"Circle back to your opening",
			"Reflect on what you learned or how you grew",
			"Connect to your future goals",
			"End with a powerful image or metaphor",
			"Avoid summarizing the whole essay or introducing new information",
		})
	case IntentHelp:
		reply.Text = bullets("I can help with:", []string{
			"Brainstorming topics and outlining structure",
			"Improving clarity, flow and voice",
			"Crafting openings and conclusions",
			"Reviewing grammar, style and detail",
		})
	default:
		reply.Text = fallback(message)
	}
	return reply, nil
}

func (a *Assistant) wait(ctx context.Context) error {
	if a.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(a.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// fallback picks a reply by hashing the message so equal messages get equal
// replies.
func fallback(message string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(message))
	return fallbackReplies[h.Sum32()%uint32(len(fallbackReplies))]
}

func renderAnalysis(intent Intent, r Report) string {
	if r.TooShort {
		return "There isn't much content yet. Write a few paragraphs first, then ask again."
	}
	var b strings.Builder
	switch intent {
	case IntentGrammar:
		if len(r.GrammarIssues) == 0 {
			return "No major grammar or style issues found."
		}
		fmt.Fprintf(&b, "Found %d area(s) to improve:\n", len(r.GrammarIssues))
		for i, issue := range r.GrammarIssues {
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, issue.Kind, issue.Detail)
		}
	case IntentEnhance:
		fmt.Fprintf(&b, "Ways to make the essay more engaging:\n")
		for i, e := range r.Enhancements {
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, e.Title, e.Detail)
		}
	default:
		fmt.Fprintf(&b, "%d words, %d sentences, %d paragraphs, %d words per sentence.\n",
			r.Stats.Words, r.Stats.Sentences, r.Stats.Paragraphs, r.Stats.AvgWordsPerSentence)
		for _, s := range r.Suggestions {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", s.Kind, s.Title, s.Detail)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func bullets(heading string, items []string) string {
	var b strings.Builder
	b.WriteString(heading)
	for _, item := range items {
		b.WriteString("\n- ")
		b.WriteString(item)
	}
	return b.String()
}
