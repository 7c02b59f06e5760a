package prompts_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/minutes-agent/internal/prompts"
)

func TestDefault_NonEmpty(t *testing.T) {
	s := prompts.Default()
	if strings.TrimSpace(s.Interview) == "" || strings.TrimSpace(s.Minutes) == "" {
		t.Fatalf("expected built-in prompts, got %+v", s)
	}
	if !strings.Contains(s.Minutes, "Meeting Minutes (MoM)") {
		t.Fatalf("minutes prompt missing heading")
	}
}

func TestLoad_OverridesOnlyGivenFiles(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "interview.txt")
	if err := os.WriteFile(p, []byte("ask about the budget"), 0o644); err != nil {
		t.Fatalf("prep: %v", err)
	}

	s, err := prompts.Load(p, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Interview != "ask about the budget" {
		t.Fatalf("interview not overridden: %q", s.Interview)
	}
	if s.Minutes != prompts.Default().Minutes {
		t.Fatalf("minutes changed unexpectedly")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := prompts.Load("", filepath.Join(t.TempDir(), "nope.md")); err == nil {
		t.Fatal("expected error for missing prompt file")
	}
}

func TestLoad_BlankFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "blank.md")
	if err := os.WriteFile(p, []byte(" \n\t"), 0o644); err != nil {
		t.Fatalf("prep: %v", err)
	}
	if _, err := prompts.Load(p, ""); err == nil {
		t.Fatal("expected error for blank prompt file")
	}
}

func TestMinutesInput(t *testing.T) {
	got := prompts.MinutesInput("Q: hi\nA: hello\n\n")
	want := "Here is the interview transcript:\n\nQ: hi\nA: hello\n\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestMinutesInput_NoEscaping(t *testing.T) {
	in := "Q: <b>&\"x\"\nA: ok\n\n"
	if got := prompts.MinutesInput(in); !strings.HasSuffix(got, in) {
		t.Fatalf("transcript altered: %q", got)
	}
}
