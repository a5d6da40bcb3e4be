package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"

	"github.com/quillcast/quillcast/internal/logging"
	"github.com/quillcast/quillcast/internal/util"
	"github.com/quillcast/quillcast/pkg/types"
)

// Gap policies for skipped segments.
const (
	GapOmit    = "omit"    // adjacent chunks join across the gap
	GapSilence = "silence" // an extra gap where the segment would have been
)

// Writer assembles a chapter's synthesized chunks into one audio file inside
// a staging directory.
type Writer struct {
	dir     string
	format  string
	bitrate string
	gap     float64
	skipGap string
}

// NewWriter creates a writer that places chapter files in dir according to
// the output configuration.
func NewWriter(dir string, cfg types.OutputConfig) *Writer {
	w := &Writer{
		dir:     dir,
		format:  cfg.Format,
		bitrate: cfg.Bitrate,
		gap:     cfg.SilenceSeconds,
		skipGap: cfg.SkipGap,
	}
	if w.format == "" {
		w.format = types.FormatMP3
	}
	if w.bitrate == "" {
		w.bitrate = DefaultBitrate
	}
	if w.skipGap == "" {
		w.skipGap = GapOmit
	}
	return w
}

// WriteChapter decodes the ordered chunks, joins them with the configured
// inter-chunk silence, and writes the chapter file named after the chapter's
// track number. Returns the file name relative to the staging directory.
// Chunks must share audio parameters; the chapter must have at least one.
func (w *Writer) WriteChapter(ctx context.Context, book *types.Book, chapter types.Chapter, chunks []types.Chunk, skipped []types.SkipRecord) (string, error) {
	if len(chunks) == 0 {
		return "", fmt.Errorf("chapter %d has no audio chunks", chapter.Index)
	}

	clips := make([]*goaudio.IntBuffer, len(chunks))
	for i, chunk := range chunks {
		clip, err := Decode(&chunk.Audio)
		if err != nil {
			return "", fmt.Errorf("decode segment %s: %w", chunk.Segment.Ref(), err)
		}
		clips[i] = clip
	}

	pieces := make([]*goaudio.IntBuffer, 0, 2*len(clips))
	for i, clip := range clips {
		if i > 0 && w.gap > 0 {
			units := 1
			if w.skipGap == GapSilence {
				units += skipsBetween(skipped, chapter.Index, chunks[i-1].Segment.Ordinal, chunks[i].Segment.Ordinal)
			}
			pieces = append(pieces, Silence(w.gap*float64(units), clips[0]))
		}
		pieces = append(pieces, clip)
	}

	combined, err := Concat(pieces, 0)
	if err != nil {
		return "", fmt.Errorf("assemble chapter %d: %w", chapter.Index, err)
	}
	logging.Debugf("[audio] chapter %d assembled: %d chunks, %.1fs", chapter.Index, len(chunks), Duration(combined))

	name := util.ChapterFileName(chapter.Index, w.format)
	full := filepath.Join(w.dir, name)

	if w.format == types.FormatWAV {
		if err := WriteWAVFile(full, combined); err != nil {
			return "", fmt.Errorf("write chapter %d: %w", chapter.Index, err)
		}
		return name, nil
	}

	wavTmp := filepath.Join(w.dir, util.ChapterFileName(chapter.Index, types.FormatWAV))
	if err := WriteWAVFile(wavTmp, combined); err != nil {
		return "", fmt.Errorf("write chapter %d: %w", chapter.Index, err)
	}
	defer os.Remove(wavTmp)

	if err := EncodeMP3(ctx, wavTmp, full, w.bitrate); err != nil {
		return "", fmt.Errorf("encode chapter %d: %w", chapter.Index, err)
	}

	tags := Tags{
		Title:  chapter.Title,
		Artist: book.Creator,
		Album:  book.Title,
		Track:  chapter.Index,
		Total:  len(book.Chapters),
	}
	if err := WriteID3(full, tags); err != nil {
		return "", fmt.Errorf("tag chapter %d: %w", chapter.Index, err)
	}
	return name, nil
}

// skipsBetween counts the chapter's skipped ordinals strictly between two
// written ordinals.
func skipsBetween(skipped []types.SkipRecord, chapter, lo, hi int) int {
	n := 0
	for _, s := range skipped {
		if s.Chapter == chapter && s.Ordinal > lo && s.Ordinal < hi {
			n++
		}
	}
	return n
}
