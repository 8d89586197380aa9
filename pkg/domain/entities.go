// Package domain defines the essay and institution records, value types, and
// rule evaluation primitives used by essaycore.
package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence keys.
const (
	// EntityEssay identifies an essay record.
	EntityEssay EntityType = "essay"
	// EntityInstitution identifies an institution (application target) record.
	EntityInstitution EntityType = "institution"
)

// Category enumerates the closed set of essay categories.
type Category string

// Essay categories.
const (
	CategoryPersonal     Category = "personal"
	CategorySupplemental Category = "supplemental"
	CategoryScholarship  Category = "scholarship"
	CategoryOther        Category = "other"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{CategoryPersonal, CategorySupplemental, CategoryScholarship, CategoryOther}
}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryPersonal, CategorySupplemental, CategoryScholarship, CategoryOther:
		return true
	}
	return false
}

// Label returns the human readable category name.
func (c Category) Label() string {
	switch c {
	case CategoryPersonal:
		return "Personal Statement"
	case CategorySupplemental:
		return "Supplemental"
	case CategoryScholarship:
		return "Scholarship"
	case CategoryOther:
		return "Other"
	}
	return string(c)
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn is reported to the caller but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Essay is a unit of written work with an optional institution link.
type Essay struct {
	Base
	Title          string   `json:"title" validate:"required,notblank"`
	Category       Category `json:"category" validate:"required_unless=IsDraft true,omitempty,essay_category"`
	Content        string   `json:"content" validate:"required,notblank"`
	Deadline       Date     `json:"deadline"`
	InstitutionRef string   `json:"institutionRef"`
	WordCount      int      `json:"wordCount"`
	IsDraft        bool     `json:"isDraft,omitempty"`
}

// Assigned reports whether the essay references an institution.
func (e Essay) Assigned() bool { return e.InstitutionRef != "" }

// UnmarshalJSON accepts the legacy collegeId field when institutionRef is absent.
func (e *Essay) UnmarshalJSON(data []byte) error {
	type essayAlias Essay
	aux := struct {
		*essayAlias
		CollegeID *string `json:"collegeId"`
	}{essayAlias: (*essayAlias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.InstitutionRef == "" && aux.CollegeID != nil {
		e.InstitutionRef = *aux.CollegeID
	}
	return nil
}

// Institution is an application target with a tracked status.
type Institution struct {
	Base
	Name     string            `json:"name" validate:"required,notblank"`
	Location string            `json:"location"`
	Notes    string            `json:"notes"`
	Deadline Date              `json:"deadline"`
	Status   ApplicationStatus `json:"status" validate:"required,application_status"`
}

// CountWords returns the number of whitespace-delimited tokens in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityWarn {
			out = append(out, v)
		}
	}
	return out
}
