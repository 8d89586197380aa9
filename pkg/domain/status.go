package domain

// ApplicationStatus is the progress of an application to an institution.
type ApplicationStatus string

// Application statuses. StatusNotStarted is the initial state.
const (
	StatusNotStarted ApplicationStatus = "not-started"
	StatusInProgress ApplicationStatus = "in-progress"
	StatusSubmitted  ApplicationStatus = "submitted"
	StatusAccepted   ApplicationStatus = "accepted"
	StatusWaitlisted ApplicationStatus = "waitlisted"
	StatusRejected   ApplicationStatus = "rejected"
)

// Statuses lists every application status in lifecycle order.
func Statuses() []ApplicationStatus {
	return []ApplicationStatus{
		StatusNotStarted,
		StatusInProgress,
		StatusSubmitted,
		StatusAccepted,
		StatusWaitlisted,
		StatusRejected,
	}
}

// Normalize maps the unset value to StatusNotStarted.
func (s ApplicationStatus) Normalize() ApplicationStatus {
	if s == "" {
		return StatusNotStarted
	}
	return s
}

// Valid reports whether s is an enumerated status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusSubmitted, StatusAccepted, StatusWaitlisted, StatusRejected:
		return true
	}
	return false
}

// Next returns the statuses reachable from s. This is the transition table;
// every other transition query derives from it.
func (s ApplicationStatus) Next() []ApplicationStatus {
	switch s.Normalize() {
	case StatusNotStarted:
		return []ApplicationStatus{StatusInProgress}
	case StatusInProgress:
		return []ApplicationStatus{StatusSubmitted}
	case StatusSubmitted:
		return []ApplicationStatus{StatusAccepted, StatusWaitlisted, StatusRejected}
	case StatusAccepted:
		return []ApplicationStatus{StatusSubmitted}
	case StatusWaitlisted:
		return []ApplicationStatus{StatusAccepted, StatusRejected}
	case StatusRejected:
		return []ApplicationStatus{StatusSubmitted}
	}
	return nil
}

// CanTransition reports whether moving from s to next is legal.
func (s ApplicationStatus) CanTransition(next ApplicationStatus) bool {
	for _, candidate := range s.Next() {
		if candidate == next {
			return true
		}
	}
	return false
}

// Label returns the display name. Unknown values read as "Not Started".
func (s ApplicationStatus) Label() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusSubmitted:
		return "Submitted"
	case StatusAccepted:
		return "Accepted"
	case StatusWaitlisted:
		return "Waitlisted"
	case StatusRejected:
		return "Rejected"
	}
	return "Not Started"
}

// Tone classifies an action for presentation.
type Tone string

// Action tones.
const (
	ToneNeutral Tone = "neutral"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
)

// StatusAction is a follow-up transition offered for the current status.
type StatusAction struct {
	Target ApplicationStatus `json:"target"`
	Label  string            `json:"label"`
	Tone   Tone              `json:"tone"`
}

// Actions lists the follow-up transitions available from s, one per entry
// of Next.
func (s ApplicationStatus) Actions() []StatusAction {
	next := s.Next()
	out := make([]StatusAction, 0, len(next))
	for _, target := range next {
		out = append(out, s.actionTo(target))
	}
	return out
}

func (s ApplicationStatus) actionTo(target ApplicationStatus) StatusAction {
	action := StatusAction{Target: target, Label: target.Label(), Tone: ToneNeutral}
	switch target {
	case StatusInProgress:
		action.Label, action.Tone = "Start Application", ToneWarning
	case StatusSubmitted:
		if s.Normalize() == StatusInProgress {
			action.Label, action.Tone = "Mark Submitted", ToneSuccess
		} else {
			action.Label = "Back to Submitted"
		}
	case StatusAccepted:
		action.Tone = ToneSuccess
	case StatusWaitlisted:
		action.Tone = ToneWarning
	case StatusRejected:
		action.Tone = ToneDanger
	}
	return action
}
