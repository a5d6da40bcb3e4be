package synth

import (
	"context"
	"errors"
	"fmt"

	edge_tts "github.com/wujunwei928/edge-tts-go/edge_tts"

	"github.com/quillcast/quillcast/internal/logging"
	"github.com/quillcast/quillcast/pkg/types"
)

const defaultEdgeVoice = "en-US-AriaNeural"

func init() {
	Register("edge", newEdgeEngine)
}

// edgeEngine synthesizes through the Microsoft Edge read-aloud service. The
// model name selects the voice; language is carried by the voice name, and
// speaker cloning is not available.
type edgeEngine struct {
	voice   string
	rateOpt string
	volume  string
	pitch   string
	timeout int
}

func newEdgeEngine(cfg types.SynthesisConfig) (Engine, error) {
	if cfg.SpeakerWav != "" {
		return nil, errors.New("edge engine does not support speaker cloning, unset speaker_wav or switch to the xtts engine")
	}
	voice := cfg.Model
	if voice == "" {
		voice = defaultEdgeVoice
	}
	return &edgeEngine{
		voice:   voice,
		rateOpt: cfg.Options["rate"],
		volume:  cfg.Options["volume"],
		pitch:   cfg.Options["pitch"],
		timeout: cfg.TimeoutSeconds,
	}, nil
}

func (e *edgeEngine) Name() string { return "edge" }

func (e *edgeEngine) Synthesize(ctx context.Context, segment types.Segment) (*types.Audio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := []edge_tts.CommunicateOption{edge_tts.SetVoice(e.voice)}
	if e.rateOpt != "" {
		opts = append(opts, edge_tts.SetRate(e.rateOpt))
	}
	if e.volume != "" {
		opts = append(opts, edge_tts.SetVolume(e.volume))
	}
	if e.pitch != "" {
		opts = append(opts, edge_tts.SetPitch(e.pitch))
	}
	if e.timeout > 0 {
		opts = append(opts, edge_tts.SetReceiveTimeout(e.timeout))
	}

	conn, err := edge_tts.NewCommunicate(segment.Text, opts...)
	if err != nil {
		return nil, fmt.Errorf("open edge session: %w", err)
	}
	data, err := conn.Stream()
	if err != nil {
		return nil, fmt.Errorf("stream edge audio: %w", err)
	}
	logging.Debugf("[synth-edge] segment %s: %d bytes", segment.Ref(), len(data))
	return &types.Audio{Data: data, Format: types.FormatMP3}, nil
}

func (e *edgeEngine) Close() error { return nil }
