// Package console implements the interactive pieces of error recovery: a
// stdin prompter and an external $EDITOR round trip.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/quillcast/quillcast/internal/recovery"
	"github.com/quillcast/quillcast/pkg/types"
)

const defaultEditor = "vi"

// Prompter reads recovery decisions from an interactive stream, normally
// the terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Prompt describes the failure and asks until it gets a valid choice. A
// read error, including EOF on a closed stdin, is returned to the caller,
// which treats it as abort.
func (p *Prompter) Prompt(segment types.Segment, cause error) (recovery.Decision, error) {
	fmt.Fprintf(p.out, "synthesis failed for segment %s: %v\n", segment.Ref(), cause)
	fmt.Fprintf(p.out, "text: %s\n", segment.Text)

	for {
		fmt.Fprint(p.out, "[r]etry, [s]kip, [e]dit, [a]bort: ")
		line, err := p.in.ReadString('\n')
		choice := strings.ToLower(strings.TrimSpace(line))
		if d, ok := parseDecision(choice); ok {
			return d, nil
		}
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(p.out, "unrecognized choice %q\n", choice)
	}
}

func parseDecision(choice string) (recovery.Decision, bool) {
	switch choice {
	case "r", "retry":
		return recovery.DecisionRetry, true
	case "s", "skip":
		return recovery.DecisionSkip, true
	case "e", "edit":
		return recovery.DecisionEdit, true
	case "a", "abort":
		return recovery.DecisionAbort, true
	default:
		return 0, false
	}
}

// Editor rewrites text through an external editor. The command comes from
// $EDITOR and may carry arguments; it falls back to vi.
type Editor struct {
	command string
}

func NewEditor() *Editor {
	command := os.Getenv("EDITOR")
	if command == "" {
		command = defaultEditor
	}
	return &Editor{command: command}
}

// Edit writes text to a temp file, runs the editor on it and returns the
// file's content afterwards.
func (e *Editor) Edit(text string) (string, error) {
	parts := strings.Fields(e.command)
	if len(parts) == 0 {
		return "", errors.New("empty editor command")
	}

	dir, err := os.MkdirTemp("", "quillcast-edit-")
	if err != nil {
		return "", fmt.Errorf("create edit dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(path, []byte(text), 0600); err != nil {
		return "", fmt.Errorf("write edit file: %w", err)
	}

	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run editor %q: %w", e.command, err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read edited file: %w", err)
	}
	return string(edited), nil
}
