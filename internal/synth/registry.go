package synth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/quillcast/quillcast/pkg/types"
)

// Factory builds an engine from synthesis configuration.
type Factory func(cfg types.SynthesisConfig) (Engine, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// Register makes an engine factory available under name. Engines register
// themselves from init, a later registration under the same name wins.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Names returns the registered engine names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds the engine named by cfg.Engine and wraps it with the
// configured text length guard and request rate limit.
func Create(cfg types.SynthesisConfig) (Engine, error) {
	registryMu.RLock()
	factory, ok := factories[cfg.Engine]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown synthesis engine %q (available: %s)", cfg.Engine, strings.Join(Names(), ", "))
	}

	engine, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s engine: %w", cfg.Engine, err)
	}
	if cfg.MaxChars > 0 {
		engine = &lengthGuard{Engine: engine, maxChars: cfg.MaxChars}
	}
	return Limit(engine, cfg.RateLimit), nil
}

// lengthGuard rejects over-length segments before they reach the network.
type lengthGuard struct {
	Engine
	maxChars int
}

func (g *lengthGuard) Synthesize(ctx context.Context, segment types.Segment) (*types.Audio, error) {
	if n := utf8.RuneCountInString(segment.Text); n > g.maxChars {
		return nil, fmt.Errorf("text too long: %d chars (limit %d)", n, g.maxChars)
	}
	return g.Engine.Synthesize(ctx, segment)
}
