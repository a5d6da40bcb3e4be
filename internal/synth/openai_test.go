package synth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quillcast/quillcast/pkg/types"
)

func TestOpenAISynthesize(t *testing.T) {
	fakeWAV := []byte("RIFF openai wav payload")
	var got struct {
		Model          string `json:"model"`
		Input          string `json:"input"`
		Voice          string `json:"voice"`
		ResponseFormat string `json:"response_format"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("Expected path /audio/speech, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write(fakeWAV)
	}))
	defer srv.Close()

	engine, err := Create(types.SynthesisConfig{
		Engine: "openai",
		Model:  "tts-1-hd",
		Options: map[string]string{
			"api_key":  "test-key",
			"base_url": srv.URL,
			"voice":    "nova",
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer engine.Close()

	out, err := engine.Synthesize(context.Background(), testSegment("good evening."))
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if got.Model != "tts-1-hd" {
		t.Errorf("Expected model 'tts-1-hd', got %q", got.Model)
	}
	if got.Input != "good evening." {
		t.Errorf("Expected input 'good evening.', got %q", got.Input)
	}
	if got.Voice != "nova" {
		t.Errorf("Expected voice 'nova', got %q", got.Voice)
	}
	if got.ResponseFormat != "wav" {
		t.Errorf("Expected wav response format, got %q", got.ResponseFormat)
	}
	if out.Format != types.FormatWAV {
		t.Errorf("Expected wav format, got %q", out.Format)
	}
	if string(out.Data) != string(fakeWAV) {
		t.Error("Expected response bytes passed through unchanged")
	}
}

func TestOpenAIDefaults(t *testing.T) {
	engine, err := newOpenAIEngine(types.SynthesisConfig{
		Options: map[string]string{"api_key": "test-key"},
	})
	if err != nil {
		t.Fatalf("newOpenAIEngine failed: %v", err)
	}
	o := engine.(*openaiEngine)
	if string(o.model) != "tts-1" {
		t.Errorf("Expected default model 'tts-1', got %q", o.model)
	}
	if string(o.voice) != "alloy" {
		t.Errorf("Expected default voice 'alloy', got %q", o.voice)
	}
}

func TestOpenAIRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := newOpenAIEngine(types.SynthesisConfig{})
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Errorf("Expected API key error, got %v", err)
	}
}

func TestOpenAIRejectsSpeakerWav(t *testing.T) {
	_, err := newOpenAIEngine(types.SynthesisConfig{
		SpeakerWav: "voice.wav",
		Options:    map[string]string{"api_key": "test-key"},
	})
	if err == nil || !strings.Contains(err.Error(), "speaker") {
		t.Errorf("Expected speaker cloning error, got %v", err)
	}
}

func TestEdgeRejectsSpeakerWav(t *testing.T) {
	_, err := newEdgeEngine(types.SynthesisConfig{SpeakerWav: "voice.wav"})
	if err == nil || !strings.Contains(err.Error(), "speaker") {
		t.Errorf("Expected speaker cloning error, got %v", err)
	}
}

func TestEdgeDefaults(t *testing.T) {
	engine, err := newEdgeEngine(types.SynthesisConfig{})
	if err != nil {
		t.Fatalf("newEdgeEngine failed: %v", err)
	}
	e := engine.(*edgeEngine)
	if e.voice != defaultEdgeVoice {
		t.Errorf("Expected default voice %q, got %q", defaultEdgeVoice, e.voice)
	}
}
