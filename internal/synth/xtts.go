package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/quillcast/quillcast/internal/logging"
	"github.com/quillcast/quillcast/pkg/types"
)

const (
	defaultXTTSEndpoint = "http://localhost:8020"
	defaultXTTSLanguage = "en"
	defaultXTTSTimeout  = 300 * time.Second
)

func init() {
	Register("xtts", newXTTSEngine)
}

// xttsEngine talks to a Coqui XTTS API server. It supports voice cloning
// from a reference recording: speaker_wav names a sample the server can
// read. Responses are raw WAV.
type xttsEngine struct {
	endpoint   string
	speakerWav string
	language   string
	apiKey     string
	httpClient *http.Client
}

func newXTTSEngine(cfg types.SynthesisConfig) (Engine, error) {
	endpoint := cfg.Options["endpoint"]
	if endpoint == "" {
		endpoint = defaultXTTSEndpoint
	}
	language := cfg.Language
	if language == "" {
		language = defaultXTTSLanguage
	}
	timeout := defaultXTTSTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return &xttsEngine{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		speakerWav: cfg.SpeakerWav,
		language:   language,
		apiKey:     cfg.Options["api_key"],
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (x *xttsEngine) Name() string { return "xtts" }

// xttsRequest is the tts_to_audio request body.
type xttsRequest struct {
	Text       string `json:"text"`
	SpeakerWav string `json:"speaker_wav,omitempty"`
	Language   string `json:"language"`
}

// xttsErrorResponse is the error shape the server returns on failures.
type xttsErrorResponse struct {
	Detail string `json:"detail"`
}

func (x *xttsEngine) Synthesize(ctx context.Context, segment types.Segment) (*types.Audio, error) {
	jsonData, err := json.Marshal(xttsRequest{
		Text:       segment.Text,
		SpeakerWav: x.speakerWav,
		Language:   x.language,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := x.endpoint + "/tts_to_audio/"
	logging.Debugf("[synth-xtts] Request: POST %s segment=%s input_length=%d chars", endpoint, segment.Ref(), len(segment.Text))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+x.apiKey)
	}

	startTime := time.Now()
	resp, err := x.httpClient.Do(httpReq)
	duration := time.Since(startTime)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	logging.Debugf("[synth-xtts] Response: %d %s (took %v)", resp.StatusCode, resp.Status, duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp xttsErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail != "" {
			return nil, fmt.Errorf("server error (status %d): %s", resp.StatusCode, errResp.Detail)
		}
		return nil, fmt.Errorf("server error (status %d): %s", resp.StatusCode, truncateString(string(body), 500))
	}

	logging.Debugf("[synth-xtts] Response payload: audio_size=%d bytes", len(body))
	return &types.Audio{Data: body, Format: types.FormatWAV}, nil
}

func (x *xttsEngine) Close() error {
	x.httpClient.CloseIdleConnections()
	return nil
}

// truncateString truncates a string to the specified length.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "... (truncated)"
}
