package types

import (
	"fmt"
	"time"
)

// Book is the extraction result for one EPub input: ordered chapters of
// ordered segments plus the package-document metadata used for tagging.
type Book struct {
	Source   string    `json:"source"`
	Title    string    `json:"title"`
	Creator  string    `json:"creator"`
	Chapters []Chapter `json:"chapters"`
}

// SegmentCount returns the total number of segments across all chapters.
func (b *Book) SegmentCount() int {
	n := 0
	for _, c := range b.Chapters {
		n += len(c.Segments)
	}
	return n
}

// Chapter holds one content document's segments in extraction order.
// Index is the 1-based position within the filtered spine; a chapter with no
// segments keeps its index (and its track number) but produces no audio.
type Chapter struct {
	Index    int       `json:"index"`
	Title    string    `json:"title"` // text of the document's <title>, may be empty
	Segments []Segment `json:"segments"`
}

// Segment is one unit of speakable text. Segments are immutable: identity is
// (Chapter, Ordinal) and ordinals are strictly increasing within a chapter.
// The edit recovery action replaces the text through WithText rather than
// mutating in place.
type Segment struct {
	Source  string `json:"source"`  // input file the segment came from
	Chapter int    `json:"chapter"` // 1-based filtered spine position
	Ordinal int    `json:"ordinal"` // 1-based position within the chapter
	Raw     string `json:"raw"`     // original block text, whitespace-trimmed
	Text    string `json:"text"`    // normalized, synthesis-ready text
}

// WithText returns a copy of the segment carrying replacement text under the
// same identity.
func (s Segment) WithText(text string) Segment {
	s.Text = text
	return s
}

// Ref renders the segment identity for logs and prompts, e.g. "3.12".
func (s Segment) Ref() string {
	return fmt.Sprintf("%d.%d", s.Chapter, s.Ordinal)
}

// VoiceConfig holds the synthesis parameters for a run. Constructed once from
// configuration and shared read-only across all synthesis calls.
type VoiceConfig struct {
	Model      string `json:"model"`                 // model or voice name, engine-specific
	SpeakerWav string `json:"speaker_wav,omitempty"` // reference voice audio path
	Language   string `json:"language,omitempty"`
}

// Audio formats produced by synthesis engines.
const (
	FormatWAV = "wav"
	FormatMP3 = "mp3"
)

// Audio is a synthesized audio buffer plus its container format.
type Audio struct {
	Data   []byte
	Format string // "wav" or "mp3"
}

// Chunk pairs a segment with its synthesized audio, ordered within a chapter.
type Chunk struct {
	Segment Segment
	Audio   Audio
}

// SkipRecord documents a segment that was dropped during conversion.
type SkipRecord struct {
	Chapter int    `json:"chapter"`
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text"` // text at the time of the final failure
	Cause   string `json:"cause"`
}

// ChapterResult summarizes one chapter's conversion.
type ChapterResult struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	Segments    int    `json:"segments"`
	Synthesized int    `json:"synthesized"`
	Skipped     int    `json:"skipped"`
	File        string `json:"file,omitempty"` // written audio file, empty when no audio was produced
}

// Conversion terminal statuses.
const (
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
)

// ConversionOutcome is the per-input-file result: what was written, what was
// skipped and why, and whether the run finished or was aborted. Serialized as
// report.json next to the chapter audio.
type ConversionOutcome struct {
	RunID      string          `json:"run_id"`
	Input      string          `json:"input"`
	BookDir    string          `json:"book_dir"`
	Title      string          `json:"title"`
	Creator    string          `json:"creator,omitempty"`
	Engine     string          `json:"engine"`
	Voice      VoiceConfig     `json:"voice"`
	Status     string          `json:"status"` // "completed" or "aborted"
	Chapters   []ChapterResult `json:"chapters"`
	Skipped    []SkipRecord    `json:"skipped"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// Completed reports whether every chapter was traversed without an abort.
func (o *ConversionOutcome) Completed() bool {
	return o.Status == StatusCompleted
}
