package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"essaycore/internal/core"
	"essaycore/internal/feedback"
	"essaycore/internal/query"
	"essaycore/pkg/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))

	toneStyles = map[domain.Tone]lipgloss.Style{
		domain.ToneNeutral: lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")),
		domain.ToneSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
		domain.ToneWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true),
		domain.ToneDanger:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// statusTone picks the color of a status badge.
func statusTone(s domain.ApplicationStatus) domain.Tone {
	switch s.Normalize() {
	case domain.StatusAccepted, domain.StatusSubmitted:
		return domain.ToneSuccess
	case domain.StatusInProgress, domain.StatusWaitlisted:
		return domain.ToneWarning
	case domain.StatusRejected:
		return domain.ToneDanger
	}
	return domain.ToneNeutral
}

func statusBadge(s domain.ApplicationStatus) string {
	return toneStyles[statusTone(s)].Render(s.Label())
}

func renderStats(r core.StatsReport) string {
	totals := newTable("Metric", "Value").
		Row("Total essays", strconv.Itoa(r.TotalEssays)).
		Row("Total words", strconv.Itoa(r.TotalWords)).
		Row("Completed", strconv.Itoa(r.CompletedEssays)).
		Row("Average words", strconv.Itoa(r.AverageWords))

	sections := []string{titleStyle.Render("Statistics"), totals.String()}
	sections = append(sections, renderBuckets("By category", r.Categories)...)
	sections = append(sections, renderBuckets("By college", r.Institutions)...)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderBuckets(title string, buckets []query.Bucket) []string {
	if len(buckets) == 0 {
		return nil
	}
	t := newTable("Name", "Essays")
	for _, b := range buckets {
		t.Row(b.Label, strconv.Itoa(b.Count))
	}
	return []string{titleStyle.Render(title), t.String()}
}

func renderEssays(essays []core.Essay, names map[string]string) string {
	if len(essays) == 0 {
		return mutedStyle.Render("No essays yet.")
	}
	t := newTable("ID", "Title", "Category", "Words", "College", "Deadline", "Updated")
	for _, e := range essays {
		title := e.Title
		if e.IsDraft {
			title += " " + mutedStyle.Render("(draft)")
		}
		t.Row(
			e.ID,
			title,
			e.Category.Label(),
			strconv.Itoa(e.WordCount),
			collegeName(e, names),
			e.Deadline.String(),
			e.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	return t.String()
}

func collegeName(e core.Essay, names map[string]string) string {
	if !e.Assigned() {
		return ""
	}
	if name, ok := names[e.InstitutionRef]; ok {
		return name
	}
	return query.UnknownInstitution
}

func renderEssay(e core.Essay, college string) string {
	meta := newTable("Field", "Value").
		Row("ID", e.ID).
		Row("Category", e.Category.Label()).
		Row("Words", strconv.Itoa(e.WordCount)).
		Row("College", college).
		Row("Deadline", e.Deadline.String()).
		Row("Draft", strconv.FormatBool(e.IsDraft))
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(e.Title), meta.String(), "", e.Content)
}

func renderInstitutions(institutions []core.Institution, essayCounts map[string]int) string {
	if len(institutions) == 0 {
		return mutedStyle.Render("No colleges yet.")
	}
	t := newTable("ID", "Name", "Location", "Deadline", "Status", "Essays", "Next")
	for _, inst := range institutions {
		actions := inst.Status.Actions()
		next := make([]string, 0, len(actions))
		for _, action := range actions {
			next = append(next, toneStyles[action.Tone].Render(action.Label))
		}
		t.Row(
			inst.ID,
			inst.Name,
			inst.Location,
			inst.Deadline.String(),
			statusBadge(inst.Status),
			strconv.Itoa(essayCounts[inst.ID]),
			strings.Join(next, ", "),
		)
	}
	return t.String()
}

func renderReport(r feedback.Report) string {
	stats := fmt.Sprintf("%d words, %d sentences, %d paragraphs, %d words per sentence",
		r.Stats.Words, r.Stats.Sentences, r.Stats.Paragraphs, r.Stats.AvgWordsPerSentence)
	sections := []string{titleStyle.Render("Analysis"), stats}

	if r.TooShort {
		sections = append(sections, warnStyle.Render(
			fmt.Sprintf("Write at least %d characters to get detailed feedback.", feedback.MinContentLength)))
	}
	if len(r.Suggestions) > 0 {
		t := newTable("Kind", "Suggestion", "Hint")
		for _, s := range r.Suggestions {
			t.Row(string(s.Kind), s.Title+": "+s.Detail, s.Hint)
		}
		sections = append(sections, titleStyle.Render("Suggestions"), t.String())
	}
	if len(r.GrammarIssues) > 0 {
		t := newTable("Issue", "Hint")
		for _, issue := range r.GrammarIssues {
			t.Row(issue.Detail, issue.Hint)
		}
		sections = append(sections, titleStyle.Render("Grammar"), t.String())
	}
	if len(r.Enhancements) > 0 {
		t := newTable("Enhancement", "Example")
		for _, e := range r.Enhancements {
			t.Row(e.Title+": "+e.Detail, e.Example)
		}
		sections = append(sections, titleStyle.Render("Enhancements"), t.String())
	}
	if len(r.Tips) > 0 {
		lines := make([]string, 0, len(r.Tips))
		for _, tip := range r.Tips {
			lines = append(lines, "- "+tip)
		}
		sections = append(sections, titleStyle.Render("Tips"), strings.Join(lines, "\n"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
