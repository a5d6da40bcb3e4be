// Package synth converts text segments into audio through pluggable
// speech engines.
package synth

import (
	"context"
	"fmt"

	"github.com/quillcast/quillcast/pkg/types"
)

// Engine turns one text segment into encoded audio. Implementations are
// created through the registry, hold any connections for the lifetime of a
// conversion run, and are released with Close when the run ends.
type Engine interface {
	// Name returns the registry name of the engine.
	Name() string

	// Synthesize renders the segment's text as audio. The returned audio
	// carries its encoding format so the assembler knows how to decode it.
	Synthesize(ctx context.Context, segment types.Segment) (*types.Audio, error)

	// Close releases connections held by the engine.
	Close() error
}

// SynthesisError reports a failed synthesis call for one segment. It is
// recoverable: the conversion pipeline routes it through error recovery
// instead of aborting the run.
type SynthesisError struct {
	Segment types.Segment
	Cause   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize segment %s: %v", e.Segment.Ref(), e.Cause)
}

func (e *SynthesisError) Unwrap() error { return e.Cause }
