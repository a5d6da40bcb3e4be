package synth

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/quillcast/quillcast/pkg/types"
)

// Limit caps the engine's synthesis calls at perSecond requests. A zero or
// negative rate returns the engine unchanged.
func Limit(engine Engine, perSecond float64) Engine {
	if perSecond <= 0 {
		return engine
	}
	return &limitedEngine{
		Engine:  engine,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

type limitedEngine struct {
	Engine
	limiter *rate.Limiter
}

func (l *limitedEngine) Synthesize(ctx context.Context, segment types.Segment) (*types.Audio, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.Engine.Synthesize(ctx, segment)
}
