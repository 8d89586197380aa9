package domain

import (
	"errors"
	"testing"
)

func TestValidateEssay(t *testing.T) {
	cases := []struct {
		name   string
		essay  Essay
		fields []string
	}{
		{"complete", Essay{Title: "t", Category: CategoryPersonal, Content: "c"}, nil},
		{"missing all", Essay{}, []string{"title", "category", "content"}},
		{"bad category", Essay{Title: "t", Category: "poetry", Content: "c"}, []string{"category"}},
		{"draft without category", Essay{Title: "t", Content: "c", IsDraft: true}, nil},
		{"draft without content", Essay{Title: "t", IsDraft: true}, []string{"content"}},
		{"blank title and content", Essay{Title: "   ", Category: CategoryPersonal, Content: "  \n\t "}, []string{"title", "content"}},
		{"blank draft", Essay{Title: "\t", Content: " ", IsDraft: true}, []string{"title", "content"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEssay(tc.essay)
			if len(tc.fields) == 0 {
				if err != nil {
					t.Fatalf("expected valid essay, got %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Fields) != len(tc.fields) {
				t.Fatalf("expected fields %v, got %+v", tc.fields, verr.Fields)
			}
			for _, f := range tc.fields {
				if _, ok := verr.Field(f); !ok {
					t.Fatalf("expected field %q in %+v", f, verr.Fields)
				}
			}
		})
	}
}

func TestValidateInstitution(t *testing.T) {
	err := ValidateInstitution(Institution{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if msg, ok := verr.Field("name"); !ok || msg != "this field is required" {
		t.Fatalf("unexpected name message %q", msg)
	}
	if _, ok := verr.Field("status"); !ok {
		t.Fatalf("expected status field error")
	}
	if err := ValidateInstitution(Institution{Name: "State U", Status: "pending"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected unknown status to fail validation, got %v", err)
	}
	err = ValidateInstitution(Institution{Name: "  ", Status: StatusNotStarted})
	if !errors.As(err, &verr) {
		t.Fatalf("expected blank name to fail validation, got %v", err)
	}
	if msg, ok := verr.Field("name"); !ok || msg != "this field is required" {
		t.Fatalf("unexpected blank name message %q", msg)
	}
	if err := ValidateInstitution(Institution{Name: "State U", Status: StatusNotStarted}); err != nil {
		t.Fatalf("expected valid institution, got %v", err)
	}
}
