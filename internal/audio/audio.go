// Package audio decodes synthesized clips, assembles chapters from them
// and renders the result to disk.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/quillcast/quillcast/pkg/types"
)

// Decode parses an encoded clip into PCM samples.
func Decode(a *types.Audio) (*goaudio.IntBuffer, error) {
	switch a.Format {
	case types.FormatWAV:
		return decodeWAV(a.Data)
	case types.FormatMP3:
		return decodeMP3(a.Data)
	default:
		return nil, fmt.Errorf("unsupported audio format %q", a.Format)
	}
}

func decodeWAV(data []byte) (*goaudio.IntBuffer, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate == 0 || buf.Format.NumChannels == 0 {
		return nil, errors.New("decode wav: missing stream parameters")
	}
	if buf.SourceBitDepth == 0 {
		buf.SourceBitDepth = int(d.BitDepth)
	}
	return buf, nil
}

// decodeMP3 produces 16-bit stereo PCM, the decoder's fixed output shape.
func decodeMP3(data []byte) (*goaudio.IntBuffer, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}
	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: d.SampleRate()},
		SourceBitDepth: 16,
		Data:           make([]int, 0, len(pcm)/2),
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		buf.Data = append(buf.Data, int(int16(binary.LittleEndian.Uint16(pcm[i:]))))
	}
	return buf, nil
}

// Silence returns seconds of zero samples matching the reference clip's
// stream parameters.
func Silence(seconds float64, ref *goaudio.IntBuffer) *goaudio.IntBuffer {
	frames := int(float64(ref.Format.SampleRate) * seconds)
	if frames < 0 {
		frames = 0
	}
	return &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: ref.Format.NumChannels,
			SampleRate:  ref.Format.SampleRate,
		},
		SourceBitDepth: ref.SourceBitDepth,
		Data:           make([]int, frames*ref.Format.NumChannels),
	}
}

// Concat joins clips in order, inserting gapSeconds of silence between
// consecutive clips but not before the first or after the last. Stream
// parameters come from the first clip, a clip that disagrees is an error.
func Concat(clips []*goaudio.IntBuffer, gapSeconds float64) (*goaudio.IntBuffer, error) {
	if len(clips) == 0 {
		return nil, errors.New("concat: no clips")
	}

	first := clips[0]
	if first.Format == nil {
		return nil, errors.New("concat: first clip has no stream parameters")
	}
	out := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: first.Format.NumChannels,
			SampleRate:  first.Format.SampleRate,
		},
		SourceBitDepth: first.SourceBitDepth,
	}

	var gap []int
	if gapSeconds > 0 {
		gap = Silence(gapSeconds, first).Data
	}

	for i, c := range clips {
		if c.Format == nil || c.Format.SampleRate != first.Format.SampleRate ||
			c.Format.NumChannels != first.Format.NumChannels || c.SourceBitDepth != first.SourceBitDepth {
			return nil, fmt.Errorf("concat: clip %d stream parameters differ from first (%s vs %s)",
				i+1, describe(c), describe(first))
		}
		if i > 0 {
			out.Data = append(out.Data, gap...)
		}
		out.Data = append(out.Data, c.Data...)
	}
	return out, nil
}

func describe(buf *goaudio.IntBuffer) string {
	if buf == nil || buf.Format == nil {
		return "unknown"
	}
	return fmt.Sprintf("%dHz/%dch/%dbit", buf.Format.SampleRate, buf.Format.NumChannels, buf.SourceBitDepth)
}

// Duration returns the clip length in seconds.
func Duration(buf *goaudio.IntBuffer) float64 {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels == 0 || buf.Format.SampleRate == 0 {
		return 0
	}
	frames := len(buf.Data) / buf.Format.NumChannels
	return float64(frames) / float64(buf.Format.SampleRate)
}

// EncodeWAV renders the buffer to WAV bytes.
func EncodeWAV(buf *goaudio.IntBuffer) ([]byte, error) {
	if buf == nil || buf.Format == nil {
		return nil, errors.New("encode wav: no stream parameters")
	}
	ws := &memWriteSeeker{}
	if err := encodeTo(ws, buf); err != nil {
		return nil, err
	}
	return ws.Bytes(), nil
}

// WriteWAVFile renders the buffer to a WAV file at path.
func WriteWAVFile(path string, buf *goaudio.IntBuffer) error {
	if buf == nil || buf.Format == nil {
		return errors.New("write wav: no stream parameters")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := encodeTo(f, buf); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func encodeTo(ws io.WriteSeeker, buf *goaudio.IntBuffer) error {
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	enc := wav.NewEncoder(ws, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// memWriteSeeker adapts a byte slice to the encoder's io.WriteSeeker, which
// it needs to patch chunk sizes into the header.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.buf) {
		m.buf = append(m.buf, make([]byte, need-len(m.buf))...)
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = m.pos + int(offset)
	case io.SeekEnd:
		next = len(m.buf) + int(offset)
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if next < 0 {
		return 0, errors.New("seek: negative position")
	}
	m.pos = next
	return int64(next), nil
}

func (m *memWriteSeeker) Bytes() []byte { return m.buf }
