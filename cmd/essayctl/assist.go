package main

import (
	"context"
	"fmt"
	"strings"

	"essaycore/internal/core"
	"essaycore/internal/feedback"
	"essaycore/pkg/domain"
)

func analyzeCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "analyze")
	id := fs.String("id", "", "analyze a stored essay")
	file := fs.String("file", "", "analyze text from a file (- for stdin)")
	category := fs.String("category", string(domain.CategoryOther), "category for tips when analyzing a file")
	if err := parse(fs, args, false); err != nil {
		return err
	}
	if (*id == "") == (*file == "") {
		fmt.Fprintln(a.stderr, "analyze: exactly one of -id or -file is required")
		return errUsage
	}

	var (
		text string
		cat  = domain.Category(*category)
	)
	if *id != "" {
		essay, err := a.svc.GetEssay(ctx, *id)
		if err != nil {
			return err
		}
		text, cat = essay.Content, essay.Category
	} else {
		data, err := a.readInput(*file)
		if err != nil {
			return err
		}
		text = string(data)
	}
	fmt.Fprintln(a.stdout, renderReport(feedback.Analyze(text, cat)))
	return nil
}

func askCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "ask")
	id := fs.String("id", "", "essay the question is about")
	if err := parse(fs, args, true); err != nil {
		return err
	}
	message := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if message == "" {
		fmt.Fprintln(a.stderr, "ask: a message is required")
		return errUsage
	}

	var essay *core.Essay
	if *id != "" {
		e, err := a.svc.GetEssay(ctx, *id)
		if err != nil {
			return err
		}
		essay = &e
	}
	reply, err := feedback.NewAssistant(a.cfg.AssistantDelay).Ask(ctx, message, essay)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, reply.Text)
	return nil
}
