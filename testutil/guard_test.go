package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestInternalImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"essaycore/internal/core", true},
		{"essaycore/pkg/domain", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestImportUnderPredicate(t *testing.T) {
	pred := ImportUnder("essaycore/internal/infra")
	cases := []struct {
		in   string
		want bool
	}{
		{"essaycore/internal/infra", true},
		{"essaycore/internal/infra/blob/s3", true},
		{"essaycore/internal/infrastructure", false},
		{"essaycore/internal/query", false},
	}
	for _, c := range cases {
		if got := pred(c.in); got != c.want {
			t.Fatalf("ImportUnder(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	src := "package x\n\nimport (\n\t\"fmt\"\n\t\"essaycore/internal/core\"\n)\n\nvar _ = fmt.Sprint\nvar _ = core.Service{}\n"
	if err := os.WriteFile(filepath.Join(dir, "x.go"), []byte(src), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "x_test.go"), []byte("package x\n\nimport _ \"essaycore/internal/blob\"\n"), 0o600); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 {
		t.Fatalf("expected one violation from non-test file, got %v", viols)
	}
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestFailIfDirectViolations(t *testing.T) {
	rec := &recordingFatal{}
	failIfDirectViolations(rec, "reason", nil)
	if rec.msg != "" {
		t.Fatalf("expected no failure for empty violations")
	}
	failIfDirectViolations(rec, "reason", []string{"a"})
	if rec.msg == "" {
		t.Fatalf("expected failure message")
	}
}
