package domain

import "testing"

func TestTransitionTable(t *testing.T) {
	legal := map[ApplicationStatus][]ApplicationStatus{
		StatusNotStarted: {StatusInProgress},
		StatusInProgress: {StatusSubmitted},
		StatusSubmitted:  {StatusAccepted, StatusWaitlisted, StatusRejected},
		StatusAccepted:   {StatusSubmitted},
		StatusWaitlisted: {StatusAccepted, StatusRejected},
		StatusRejected:   {StatusSubmitted},
	}
	for _, from := range Statuses() {
		allowed := make(map[ApplicationStatus]bool)
		for _, to := range legal[from] {
			allowed[to] = true
		}
		for _, to := range Statuses() {
			if got := from.CanTransition(to); got != allowed[to] {
				t.Errorf("%s -> %s: expected %v, got %v", from, to, allowed[to], got)
			}
		}
	}
}

func TestEmptyStatusBehavesAsNotStarted(t *testing.T) {
	var empty ApplicationStatus
	if !empty.CanTransition(StatusInProgress) {
		t.Fatalf("expected unset status to start the application")
	}
	if empty.CanTransition(StatusSubmitted) {
		t.Fatalf("expected unset status not to jump to submitted")
	}
	if empty.Label() != "Not Started" {
		t.Fatalf("unexpected label %q", empty.Label())
	}
	if ApplicationStatus("bogus").Label() != "Not Started" {
		t.Fatalf("expected unknown status to read as Not Started")
	}
}

func TestActionsDeriveFromNext(t *testing.T) {
	for _, status := range Statuses() {
		actions := status.Actions()
		next := status.Next()
		if len(actions) != len(next) {
			t.Fatalf("%s: %d actions for %d transitions", status, len(actions), len(next))
		}
		for i, action := range actions {
			if action.Target != next[i] {
				t.Fatalf("%s: action %d targets %s, expected %s", status, i, action.Target, next[i])
			}
			if action.Label == "" {
				t.Fatalf("%s: empty label for %s", status, action.Target)
			}
		}
	}
}

func TestActionLabels(t *testing.T) {
	cases := []struct {
		from  ApplicationStatus
		label string
		tone  Tone
	}{
		{StatusNotStarted, "Start Application", ToneWarning},
		{StatusInProgress, "Mark Submitted", ToneSuccess},
		{StatusAccepted, "Back to Submitted", ToneNeutral},
		{StatusRejected, "Back to Submitted", ToneNeutral},
	}
	for _, tc := range cases {
		actions := tc.from.Actions()
		if len(actions) != 1 {
			t.Fatalf("%s: expected one action, got %d", tc.from, len(actions))
		}
		if actions[0].Label != tc.label || actions[0].Tone != tc.tone {
			t.Fatalf("%s: got %+v", tc.from, actions[0])
		}
	}
	submitted := StatusSubmitted.Actions()
	if submitted[0].Label != "Accepted" || submitted[1].Label != "Waitlisted" || submitted[2].Tone != ToneDanger {
		t.Fatalf("unexpected submitted actions %+v", submitted)
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses() {
		if !s.Valid() {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if ApplicationStatus("").Valid() || ApplicationStatus("pending").Valid() {
		t.Fatalf("expected empty and unknown statuses to be invalid")
	}
}
