package console

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/quillcast/quillcast/internal/recovery"
	"github.com/quillcast/quillcast/pkg/types"
)

func promptSegment() types.Segment {
	return types.Segment{Source: "book.epub", Chapter: 1, Ordinal: 3, Raw: "Hi!", Text: "hi."}
}

var errBoom = errors.New("boom")

func TestPromptDecisions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  recovery.Decision
	}{
		{"retry short", "r\n", recovery.DecisionRetry},
		{"retry word", "retry\n", recovery.DecisionRetry},
		{"skip short", "s\n", recovery.DecisionSkip},
		{"skip uppercase", "S\n", recovery.DecisionSkip},
		{"edit", "e\n", recovery.DecisionEdit},
		{"abort", "abort\n", recovery.DecisionAbort},
		{"surrounding spaces", "  a  \n", recovery.DecisionAbort},
		{"no trailing newline", "a", recovery.DecisionAbort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := new(bytes.Buffer)
			p := NewPrompter(strings.NewReader(tt.input), out)
			got, err := p.Prompt(promptSegment(), errBoom)
			if err != nil {
				t.Fatalf("Prompt failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected decision %d, got %d", tt.want, got)
			}
			if !strings.Contains(out.String(), "1.3") {
				t.Errorf("Expected segment reference in prompt output, got %q", out.String())
			}
		})
	}
}

func TestPromptRepromptsOnGarbage(t *testing.T) {
	out := new(bytes.Buffer)
	p := NewPrompter(strings.NewReader("what\nskip\n"), out)

	got, err := p.Prompt(promptSegment(), errBoom)
	if err != nil {
		t.Fatalf("Prompt failed: %v", err)
	}
	if got != recovery.DecisionSkip {
		t.Errorf("Expected skip after reprompt, got %d", got)
	}
	if !strings.Contains(out.String(), "unrecognized choice") {
		t.Errorf("Expected reprompt message, got %q", out.String())
	}
}

func TestPromptEOF(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), new(bytes.Buffer))
	if _, err := p.Prompt(promptSegment(), errBoom); err == nil {
		t.Error("Expected error on EOF, got nil")
	}
}

func TestEditorDefaultsToVi(t *testing.T) {
	t.Setenv("EDITOR", "")
	if e := NewEditor(); e.command != "vi" {
		t.Errorf("Expected vi default, got %q", e.command)
	}
}

func TestEditorRoundTrip(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	t.Setenv("EDITOR", "true")

	got, err := NewEditor().Edit("unchanged text")
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if got != "unchanged text" {
		t.Errorf("Expected text back unchanged, got %q", got)
	}
}

func TestEditorCommandWithArguments(t *testing.T) {
	if _, err := exec.LookPath("sed"); err != nil {
		t.Skip("sed not available")
	}
	t.Setenv("EDITOR", "sed -i -e s/cold/warm/")

	got, err := NewEditor().Edit("cold text")
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if got != "warm text" {
		t.Errorf("Expected edited text, got %q", got)
	}
}

func TestEditorMissingBinary(t *testing.T) {
	t.Setenv("EDITOR", "/nonexistent/editor-xyz")

	if _, err := NewEditor().Edit("text"); err == nil {
		t.Error("Expected error for missing editor binary, got nil")
	}
}
