package audio

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	goaudio "github.com/go-audio/audio"

	"github.com/quillcast/quillcast/pkg/types"
)

func testClip(frames, value int) *goaudio.IntBuffer {
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 24000},
		SourceBitDepth: 16,
		Data:           make([]int, frames),
	}
	for i := range buf.Data {
		buf.Data[i] = value
	}
	return buf
}

func TestSilence(t *testing.T) {
	ref := testClip(10, 1)

	s := Silence(1.5, ref)
	if len(s.Data) != 36000 {
		t.Errorf("Expected 36000 samples for 1.5s mono at 24kHz, got %d", len(s.Data))
	}
	for i, v := range s.Data {
		if v != 0 {
			t.Fatalf("Expected silence, got %d at sample %d", v, i)
		}
	}
	if s.Format.SampleRate != 24000 || s.Format.NumChannels != 1 {
		t.Errorf("Expected parameters copied from reference, got %dHz/%dch", s.Format.SampleRate, s.Format.NumChannels)
	}

	ref.Format.NumChannels = 2
	if got := len(Silence(0.5, ref).Data); got != 24000 {
		t.Errorf("Expected 24000 samples for 0.5s stereo at 24kHz, got %d", got)
	}
	if got := len(Silence(0, ref).Data); got != 0 {
		t.Errorf("Expected no samples for zero duration, got %d", got)
	}
}

func TestConcatInsertsGapsBetweenClipsOnly(t *testing.T) {
	clips := []*goaudio.IntBuffer{testClip(10, 1), testClip(10, 2), testClip(10, 3)}

	out, err := Concat(clips, 0.001)
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}

	gap := 24 // 0.001s at 24kHz
	if len(out.Data) != 30+2*gap {
		t.Fatalf("Expected %d samples, got %d", 30+2*gap, len(out.Data))
	}
	checkRun := func(offset, n, want int) {
		t.Helper()
		for i := offset; i < offset+n; i++ {
			if out.Data[i] != want {
				t.Fatalf("Expected %d at sample %d, got %d", want, i, out.Data[i])
			}
		}
	}
	checkRun(0, 10, 1)
	checkRun(10, gap, 0)
	checkRun(10+gap, 10, 2)
	checkRun(20+gap, gap, 0)
	checkRun(20+2*gap, 10, 3)
}

func TestConcatWithoutGap(t *testing.T) {
	out, err := Concat([]*goaudio.IntBuffer{testClip(5, 1), testClip(5, 2)}, 0)
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}
	want := []int{1, 1, 1, 1, 1, 2, 2, 2, 2, 2}
	if !reflect.DeepEqual(out.Data, want) {
		t.Errorf("Expected %v, got %v", want, out.Data)
	}
}

func TestConcatRejectsMismatchedParameters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*goaudio.IntBuffer)
	}{
		{"sample rate", func(b *goaudio.IntBuffer) { b.Format.SampleRate = 22050 }},
		{"channels", func(b *goaudio.IntBuffer) { b.Format.NumChannels = 2 }},
		{"bit depth", func(b *goaudio.IntBuffer) { b.SourceBitDepth = 24 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			second := testClip(5, 2)
			tt.mutate(second)
			if _, err := Concat([]*goaudio.IntBuffer{testClip(5, 1), second}, 0); err == nil {
				t.Error("Expected error for mismatched parameters, got nil")
			}
		})
	}
}

func TestConcatEmpty(t *testing.T) {
	if _, err := Concat(nil, 1.5); err == nil {
		t.Error("Expected error for empty clip list, got nil")
	}
}

func TestEncodeWAVRoundTrip(t *testing.T) {
	clip := testClip(100, 0)
	for i := range clip.Data {
		clip.Data[i] = i*300 - 15000
	}

	data, err := EncodeWAV(clip)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	decoded, err := Decode(&types.Audio{Data: data, Format: types.FormatWAV})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Format.SampleRate != 24000 || decoded.Format.NumChannels != 1 {
		t.Errorf("Expected 24000Hz mono, got %dHz/%dch", decoded.Format.SampleRate, decoded.Format.NumChannels)
	}
	if !reflect.DeepEqual(decoded.Data, clip.Data) {
		t.Error("Expected decoded samples to match encoded samples")
	}
}

func TestWriteWAVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	clip := testClip(2400, 42)

	if err := WriteWAVFile(path, clip); err != nil {
		t.Fatalf("WriteWAVFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav file: %v", err)
	}
	decoded, err := Decode(&types.Audio{Data: data, Format: types.FormatWAV})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := Duration(decoded); got != 0.1 {
		t.Errorf("Expected 0.1s duration, got %v", got)
	}
	if !reflect.DeepEqual(decoded.Data, clip.Data) {
		t.Error("Expected decoded samples to match written samples")
	}
}

func TestDuration(t *testing.T) {
	mono := testClip(24000, 0)
	if got := Duration(mono); got != 1.0 {
		t.Errorf("Expected 1.0s, got %v", got)
	}
	stereo := testClip(48000, 0)
	stereo.Format.NumChannels = 2
	if got := Duration(stereo); got != 1.0 {
		t.Errorf("Expected 1.0s for stereo, got %v", got)
	}
	if got := Duration(nil); got != 0 {
		t.Errorf("Expected 0 for nil clip, got %v", got)
	}
}

func TestDecodeRejectsUnknownFormat(t *testing.T) {
	if _, err := Decode(&types.Audio{Data: []byte("x"), Format: "ogg"}); err == nil {
		t.Error("Expected error for unknown format, got nil")
	}
}

func TestDecodeRejectsGarbageWAV(t *testing.T) {
	if _, err := Decode(&types.Audio{Data: []byte("definitely not a wav"), Format: types.FormatWAV}); err == nil {
		t.Error("Expected error for garbage input, got nil")
	}
}
