// Package recovery decides what happens to segments whose synthesis
// failed: retry them, rewrite them, skip them or abort the file.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quillcast/quillcast/internal/logging"
	"github.com/quillcast/quillcast/pkg/types"
)

// ErrAbortRequested signals that the operator chose to abandon the current
// file. Output produced so far is kept.
var ErrAbortRequested = errors.New("recovery: abort requested")

// State tracks a segment through synthesis and recovery.
type State int

const (
	StatePending State = iota
	StateSynthesizing
	StateFailed
	StateRetrying
	StateSkipped
	StateAborted
	StateSucceeded
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSynthesizing:
		return "synthesizing"
	case StateFailed:
		return "failed"
	case StateRetrying:
		return "retrying"
	case StateSkipped:
		return "skipped"
	case StateAborted:
		return "aborted"
	case StateSucceeded:
		return "succeeded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Strategy selects how failures are handled when the operator is not asked.
type Strategy string

const (
	// StrategyAsk prompts the operator for every failure.
	StrategyAsk Strategy = "ask"
	// StrategySkip drops failed segments and carries on.
	StrategySkip Strategy = "skip"
	// StrategyEdit opens the editor once and resubmits the rewritten text.
	StrategyEdit Strategy = "edit"
)

// ParseStrategy validates a strategy name from configuration.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(s)) {
	case StrategyAsk:
		return StrategyAsk, nil
	case StrategySkip:
		return StrategySkip, nil
	case StrategyEdit:
		return StrategyEdit, nil
	default:
		return "", fmt.Errorf("unknown error strategy %q (want ask, skip or edit)", s)
	}
}

// Decision is an interactive prompt choice.
type Decision int

const (
	DecisionRetry Decision = iota
	DecisionSkip
	DecisionEdit
	DecisionAbort
)

// Prompter asks the operator what to do with a failed segment.
type Prompter interface {
	Prompt(segment types.Segment, cause error) (Decision, error)
}

// Editor lets the operator rewrite a segment's text.
type Editor interface {
	Edit(text string) (string, error)
}

// SynthFunc resubmits a segment, usually with rewritten text.
type SynthFunc func(ctx context.Context, segment types.Segment) (*types.Audio, error)

// Resolution is the outcome of recovering one failed segment.
type Resolution struct {
	// State is StateSucceeded, StateSkipped, never anything else.
	State State
	// Segment carries the final text, which may have been edited.
	Segment types.Segment
	// Audio is set when recovery produced a clip.
	Audio *types.Audio
	// Cause is the last failure, set when the segment was skipped.
	Cause error
}

// Controller routes synthesis failures through the configured strategy.
type Controller struct {
	strategy Strategy
	prompter Prompter
	editor   Editor
}

// New builds a controller. The ask strategy needs both a prompter and an
// editor, edit needs just the editor.
func New(strategy Strategy, prompter Prompter, editor Editor) (*Controller, error) {
	switch strategy {
	case StrategyAsk:
		if prompter == nil {
			return nil, errors.New("ask strategy requires a prompter")
		}
		if editor == nil {
			return nil, errors.New("ask strategy requires an editor")
		}
	case StrategyEdit:
		if editor == nil {
			return nil, errors.New("edit strategy requires an editor")
		}
	case StrategySkip:
	default:
		return nil, fmt.Errorf("unknown error strategy %q", strategy)
	}
	return &Controller{strategy: strategy, prompter: prompter, editor: editor}, nil
}

// Strategy returns the configured strategy name.
func (c *Controller) Strategy() Strategy { return c.strategy }

// Resolve handles one failed segment. It returns ErrAbortRequested when the
// operator abandons the file and the context error when the run is
// cancelled; any other outcome is a Resolution.
func (c *Controller) Resolve(ctx context.Context, segment types.Segment, cause error, synthesize SynthFunc) (*Resolution, error) {
	switch c.strategy {
	case StrategySkip:
		logging.Warnf("[recovery] segment %s: %s, skipping: %v", segment.Ref(), StateSkipped, cause)
		return &Resolution{State: StateSkipped, Segment: segment, Cause: cause}, nil
	case StrategyEdit:
		return c.editOnce(ctx, segment, cause, synthesize)
	default:
		return c.ask(ctx, segment, cause, synthesize)
	}
}

// editOnce opens the editor and resubmits the rewritten text exactly once.
// A second failure skips the segment instead of looping back into the
// editor.
func (c *Controller) editOnce(ctx context.Context, segment types.Segment, cause error, synthesize SynthFunc) (*Resolution, error) {
	edited, err := c.editor.Edit(segment.Text)
	if err != nil {
		return nil, fmt.Errorf("edit segment %s: %w", segment.Ref(), err)
	}
	edited = strings.TrimSpace(edited)
	if edited == "" {
		logging.Warnf("[recovery] segment %s: edited text is empty, skipping", segment.Ref())
		return &Resolution{State: StateSkipped, Segment: segment, Cause: cause}, nil
	}

	rewritten := segment.WithText(edited)
	logging.Infof("[recovery] segment %s: %s with edited text", segment.Ref(), StateRetrying)
	audio, err := synthesize(ctx, rewritten)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Warnf("[recovery] segment %s: edited text failed too, skipping: %v", segment.Ref(), err)
		return &Resolution{State: StateSkipped, Segment: rewritten, Cause: err}, nil
	}
	return &Resolution{State: StateSucceeded, Segment: rewritten, Audio: audio}, nil
}

// ask loops on the prompter until the segment succeeds, is skipped or the
// file is aborted. A prompter read failure, typically EOF on a closed
// stdin, aborts.
func (c *Controller) ask(ctx context.Context, segment types.Segment, cause error, synthesize SynthFunc) (*Resolution, error) {
	current := segment
	lastErr := cause

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		decision, err := c.prompter.Prompt(current, lastErr)
		if err != nil {
			logging.Warnf("[recovery] prompt failed, aborting file: %v", err)
			return nil, ErrAbortRequested
		}

		switch decision {
		case DecisionAbort:
			logging.Infof("[recovery] segment %s: %s", current.Ref(), StateAborted)
			return nil, ErrAbortRequested

		case DecisionSkip:
			logging.Warnf("[recovery] segment %s: %s: %v", current.Ref(), StateSkipped, lastErr)
			return &Resolution{State: StateSkipped, Segment: current, Cause: lastErr}, nil

		case DecisionEdit:
			edited, err := c.editor.Edit(current.Text)
			if err != nil {
				logging.Warnf("[recovery] editor failed: %v", err)
				continue
			}
			edited = strings.TrimSpace(edited)
			if edited == "" {
				logging.Warnf("[recovery] edited text is empty, nothing to retry")
				continue
			}
			current = current.WithText(edited)

		case DecisionRetry:
		}

		logging.Infof("[recovery] segment %s: %s", current.Ref(), StateRetrying)
		audio, err := synthesize(ctx, current)
		if err == nil {
			return &Resolution{State: StateSucceeded, Segment: current, Audio: audio}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		logging.Warnf("[recovery] segment %s: %s again: %v", current.Ref(), StateFailed, err)
	}
}
