package synth

import (
	"context"
	"fmt"
	"sync"

	goaudio "github.com/go-audio/audio"

	"github.com/quillcast/quillcast/internal/audio"
	"github.com/quillcast/quillcast/pkg/types"
)

// stubFrames is 50ms at the stub sample rate.
const (
	stubSampleRate = 24000
	stubFrames     = 1200
)

func init() {
	Register("stub", func(cfg types.SynthesisConfig) (Engine, error) {
		return NewStub(), nil
	})
}

// Stub fabricates short silent clips instead of calling a speech service.
// It backs the "stub" registry entry for dry runs, and tests script it:
// failures can be queued per segment reference.
type Stub struct {
	mu       sync.Mutex
	failures map[string]int
	calls    []string
	closed   bool
}

func NewStub() *Stub {
	return &Stub{failures: make(map[string]int)}
}

// FailSegment queues times failing calls for the segment reference ref.
func (s *Stub) FailSegment(ref string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[ref] = times
}

// Calls returns the text of every synthesis call in order.
func (s *Stub) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Closed reports whether Close has been called.
func (s *Stub) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Stub) Name() string { return "stub" }

func (s *Stub) Synthesize(ctx context.Context, segment types.Segment) (*types.Audio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.calls = append(s.calls, segment.Text)
	if n := s.failures[segment.Ref()]; n > 0 {
		s.failures[segment.Ref()] = n - 1
		s.mu.Unlock()
		return nil, fmt.Errorf("scripted failure for segment %s", segment.Ref())
	}
	s.mu.Unlock()

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: stubSampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, stubFrames),
	}
	data, err := audio.EncodeWAV(buf)
	if err != nil {
		return nil, err
	}
	return &types.Audio{Data: data, Format: types.FormatWAV}, nil
}

func (s *Stub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
