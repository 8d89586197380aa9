package main

import (
	"context"
	"fmt"

	"essaycore/internal/core"
	"essaycore/pkg/domain"
)

func collegeAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "college add")
	id := fs.String("id", "", "existing institution id to update")
	name := fs.String("name", "", "institution name")
	location := fs.String("location", "", "city or region")
	notes := fs.String("notes", "", "free-form notes")
	deadline := fs.String("deadline", "", "application deadline as YYYY-MM-DD")
	status := fs.String("status", string(domain.StatusNotStarted), "application status")
	if err := parse(fs, args, false); err != nil {
		return err
	}
	due, err := domain.ParseDate(*deadline)
	if err != nil {
		return err
	}

	var draft core.Institution
	if *id != "" {
		if draft, err = a.svc.GetInstitution(ctx, *id); err != nil {
			return err
		}
	}
	set := visited(fs)
	if *id == "" || set["name"] {
		draft.Name = *name
	}
	if *id == "" || set["location"] {
		draft.Location = *location
	}
	if *id == "" || set["notes"] {
		draft.Notes = *notes
	}
	if *id == "" || set["deadline"] {
		draft.Deadline = due
	}
	if *id == "" || set["status"] {
		draft.Status = core.ApplicationStatus(*status)
	}

	saved, res, err := a.svc.UpsertInstitution(ctx, draft)
	if err != nil {
		return err
	}
	a.warn(res)
	fmt.Fprintf(a.stdout, "saved college %s\n", saved.ID)
	return nil
}

func collegeList(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "college list")
	status := fs.String("status", "", "only institutions with this status")
	if err := parse(fs, args, false); err != nil {
		return err
	}
	institutions := a.svc.InstitutionsByStatus(ctx, core.ApplicationStatus(*status))
	counts := make(map[string]int, len(institutions))
	for _, inst := range institutions {
		counts[inst.ID] = len(a.svc.EssaysFor(ctx, inst.ID))
	}
	fmt.Fprintln(a.stdout, renderInstitutions(institutions, counts))
	return nil
}

func collegeStatus(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "college status")
	id := fs.String("id", "", "institution id")
	to := fs.String("to", "", "target status")
	if err := parse(fs, args, false); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"id": *id, "to": *to}); err != nil {
		return err
	}
	inst, res, err := a.svc.SetStatus(ctx, *id, core.ApplicationStatus(*to))
	if err != nil {
		return err
	}
	a.warn(res)
	fmt.Fprintf(a.stdout, "%s is now %s\n", inst.Name, statusBadge(inst.Status))
	return nil
}

func collegeDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "college delete")
	id := fs.String("id", "", "institution id")
	yes := fs.Bool("yes", false, "detach attached essays and delete")
	if err := parse(fs, args, false); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"id": *id}); err != nil {
		return err
	}
	attached := len(a.svc.EssaysFor(ctx, *id))
	if _, err := a.svc.DeleteInstitution(ctx, *id, *yes); err != nil {
		return err
	}
	if attached > 0 {
		fmt.Fprintf(a.stdout, "deleted college %s, %d essays unassigned\n", *id, attached)
		return nil
	}
	fmt.Fprintf(a.stdout, "deleted college %s\n", *id)
	return nil
}
