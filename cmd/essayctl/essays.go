package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"essaycore/internal/core"
	"essaycore/internal/query"
	"essaycore/pkg/domain"
)

// essayAdd creates an essay, or edits the one named by -id.
func essayAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "essay add")
	id := fs.String("id", "", "existing essay id to update")
	title := fs.String("title", "", "essay title")
	category := fs.String("category", "", "personal|supplemental|scholarship|other")
	content := fs.String("content", "", "essay text")
	file := fs.String("file", "", "read the essay text from a file (- for stdin)")
	deadline := fs.String("deadline", "", "deadline as YYYY-MM-DD")
	college := fs.String("college", "", "institution id to assign")
	draft := fs.Bool("draft", false, "save as a draft")
	if err := parse(fs, args, false); err != nil {
		return err
	}

	text := *content
	if *file != "" {
		data, err := a.readInput(*file)
		if err != nil {
			return err
		}
		text = string(data)
	}
	due, err := domain.ParseDate(*deadline)
	if err != nil {
		return err
	}

	var draftEssay core.Essay
	if *id != "" {
		draftEssay, err = a.svc.GetEssay(ctx, *id)
		if err != nil {
			return err
		}
	}
	// An edit only touches the fields whose flags were given.
	set := visited(fs)
	changed := func(names ...string) bool {
		if *id == "" {
			return true
		}
		for _, n := range names {
			if set[n] {
				return true
			}
		}
		return false
	}
	if changed("title") {
		draftEssay.Title = *title
	}
	if changed("category") {
		draftEssay.Category = core.Category(*category)
	}
	if changed("content", "file") {
		draftEssay.Content = text
	}
	if changed("deadline") {
		draftEssay.Deadline = due
	}
	if changed("college") {
		draftEssay.InstitutionRef = *college
	}
	if changed("draft") {
		draftEssay.IsDraft = *draft
	}

	saved, res, err := a.svc.UpsertEssay(ctx, draftEssay)
	if err != nil {
		return err
	}
	a.warn(res)
	fmt.Fprintf(a.stdout, "saved essay %s (%d words)\n", saved.ID, saved.WordCount)
	return nil
}

func essayList(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "essay list")
	search := fs.String("search", "", "match title or content")
	category := fs.String("category", "", "only this category")
	college := fs.String("college", "", "only essays for this institution id")
	sortBy := fs.String("sort", string(query.SortUpdatedAt), "title|wordCount|updatedAt")
	if err := parse(fs, args, false); err != nil {
		return err
	}
	essays := a.svc.Filter(ctx, core.EssayFilter{
		Search:      *search,
		Category:    core.Category(*category),
		Institution: *college,
		Sort:        query.Criterion(*sortBy),
	})
	names := institutionNames(a.svc.ListInstitutions(ctx))
	fmt.Fprintln(a.stdout, renderEssays(essays, names))
	return nil
}

func essayShow(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "essay show")
	id := fs.String("id", "", "essay id")
	if err := parse(fs, args, false); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"id": *id}); err != nil {
		return err
	}
	essay, err := a.svc.GetEssay(ctx, *id)
	if err != nil {
		return err
	}
	college := ""
	inst, ok, err := a.svc.InstitutionFor(ctx, essay.ID)
	if err != nil {
		return err
	}
	switch {
	case ok:
		college = inst.Name
	case essay.Assigned():
		college = query.UnknownInstitution
	}
	fmt.Fprintln(a.stdout, renderEssay(essay, college))
	return nil
}

func essayDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "essay delete")
	id := fs.String("id", "", "essay id")
	if err := parse(fs, args, false); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"id": *id}); err != nil {
		return err
	}
	if _, err := a.svc.DeleteEssay(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "deleted essay %s\n", *id)
	return nil
}

func essayAssign(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "essay assign")
	id := fs.String("id", "", "essay id")
	college := fs.String("college", "", "institution id")
	if err := parse(fs, args, false); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"id": *id, "college": *college}); err != nil {
		return err
	}
	essay, res, err := a.svc.Assign(ctx, *id, *college)
	if err != nil {
		return err
	}
	a.warn(res)
	fmt.Fprintf(a.stdout, "assigned essay %s to %s\n", essay.ID, essay.InstitutionRef)
	return nil
}

func essayUnassign(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "essay unassign")
	id := fs.String("id", "", "essay id")
	if err := parse(fs, args, false); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"id": *id}); err != nil {
		return err
	}
	essay, res, err := a.svc.Unassign(ctx, *id)
	if err != nil {
		return err
	}
	a.warn(res)
	fmt.Fprintf(a.stdout, "unassigned essay %s\n", essay.ID)
	return nil
}

// readInput reads a named file, or stdin for "-".
func (a *app) readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(a.stdin)
	}
	return os.ReadFile(name) // #nosec G304: operator-supplied path
}

func visited(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func institutionNames(institutions []core.Institution) map[string]string {
	names := make(map[string]string, len(institutions))
	for _, inst := range institutions {
		names[inst.ID] = inst.Name
	}
	return names
}
