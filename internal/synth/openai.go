package synth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/quillcast/quillcast/internal/logging"
	"github.com/quillcast/quillcast/pkg/types"
)

func init() {
	Register("openai", newOpenAIEngine)
}

// openaiEngine synthesizes through the OpenAI speech API or any
// API-compatible server reachable at options.base_url. WAV output is
// requested so chapter assembly does not need a second decode step.
type openaiEngine struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
}

func newOpenAIEngine(cfg types.SynthesisConfig) (Engine, error) {
	if cfg.SpeakerWav != "" {
		return nil, errors.New("openai engine does not support speaker cloning, unset speaker_wav or switch to the xtts engine")
	}

	apiKey := cfg.Options["api_key"]
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("openai engine requires an API key (options.api_key or OPENAI_API_KEY)")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if base := cfg.Options["base_url"]; base != "" {
		clientCfg.BaseURL = base
	}
	if cfg.TimeoutSeconds > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.TTSModel1)
	}
	voice := cfg.Options["voice"]
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}

	return &openaiEngine{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.SpeechModel(model),
		voice:  openai.SpeechVoice(voice),
	}, nil
}

func (o *openaiEngine) Name() string { return "openai" }

func (o *openaiEngine) Synthesize(ctx context.Context, segment types.Segment) (*types.Audio, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          o.model,
		Input:          segment.Text,
		Voice:          o.voice,
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return nil, fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	logging.Debugf("[synth-openai] segment %s: %d bytes", segment.Ref(), len(data))
	return &types.Audio{Data: data, Format: types.FormatWAV}, nil
}

func (o *openaiEngine) Close() error { return nil }
