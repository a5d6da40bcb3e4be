// Package pipeline drives the conversion of EPub files into audiobooks:
// extraction, sequential synthesis with error recovery, chapter assembly
// and publishing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/quillcast/quillcast/internal/audio"
	"github.com/quillcast/quillcast/internal/extract"
	"github.com/quillcast/quillcast/internal/logging"
	"github.com/quillcast/quillcast/internal/packaging"
	"github.com/quillcast/quillcast/internal/recovery"
	"github.com/quillcast/quillcast/internal/storage"
	"github.com/quillcast/quillcast/internal/synth"
	"github.com/quillcast/quillcast/internal/util"
	"github.com/quillcast/quillcast/pkg/types"
)

// Pipeline converts input files one at a time. Segments within a file are
// synthesized strictly sequentially: the engine handle is exclusively owned
// and chunk order must follow extraction order.
type Pipeline struct {
	cfg        *types.Config
	extractor  *extract.Extractor
	controller *recovery.Controller
	publisher  *storage.Publisher
	packager   *packaging.Service

	// NewEngine builds the synthesis engine for a run. It defaults to the
	// engine registry; tests install scripted engines here.
	NewEngine func() (synth.Engine, error)
}

// New wires a pipeline from its collaborators. The storage adapter receives
// the finished book directories; the controller decides what happens to
// failed segments.
func New(cfg *types.Config, controller *recovery.Controller, store storage.Adapter) *Pipeline {
	publisher := storage.NewPublisher(store, storage.PublishOptions{
		Concurrency: cfg.Pipeline.UploadConcurrency,
		Overwrite:   cfg.Output.Overwrite,
		Report:      cfg.Output.Report,
	})
	return &Pipeline{
		cfg:        cfg,
		extractor:  extract.New(),
		controller: controller,
		publisher:  publisher,
		packager:   packaging.NewService(store),
		NewEngine: func() (synth.Engine, error) {
			return synth.Create(cfg.Synthesis)
		},
	}
}

// Run converts every input file in order. The engine is acquired once for
// the whole run and released on return. A failure on one file never stops
// the others: Run always returns the outcomes of the files that got past
// extraction, plus the joined per-file errors. A cancelled context stops
// the run after the file in flight.
func (p *Pipeline) Run(ctx context.Context, inputs []string) ([]types.ConversionOutcome, error) {
	if len(inputs) == 0 {
		return nil, errors.New("pipeline: no input files")
	}

	engine, err := p.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	defer engine.Close()

	runID := uuid.NewString()
	logging.Infof("[pipeline] run %s: %d file(s), engine %s, on-error %s",
		runID, len(inputs), engine.Name(), p.controller.Strategy())

	var (
		outcomes []types.ConversionOutcome
		errs     []error
	)
	for _, input := range inputs {
		outcome, err := p.convert(ctx, engine, runID, input)
		if err != nil {
			logging.Errorf("[pipeline] %s failed: %v", input, err)
			errs = append(errs, fmt.Errorf("%s: %w", input, err))
		} else {
			outcomes = append(outcomes, *outcome)
		}
		if ctx.Err() != nil {
			logging.Warnf("[pipeline] run %s cancelled, %d file(s) not processed",
				runID, len(inputs)-len(outcomes)-len(errs))
			break
		}
	}
	return outcomes, errors.Join(errs...)
}

// convert runs one input file end to end: extract, synthesize chapter by
// chapter, assemble, publish. An abort keeps everything produced so far and
// marks the outcome aborted.
func (p *Pipeline) convert(ctx context.Context, engine synth.Engine, runID, input string) (*types.ConversionOutcome, error) {
	book, err := p.extractor.Extract(input)
	if err != nil {
		return nil, err
	}

	bookDir := util.BookDirName(book.Title, book.Source)
	logging.Infof("[pipeline] %s: %q by %q, %d chapter(s), %d segment(s) -> %s",
		input, book.Title, book.Creator, len(book.Chapters), book.SegmentCount(), bookDir)

	if err := p.publisher.CheckDestination(ctx, bookDir); err != nil {
		return nil, err
	}

	staging, err := os.MkdirTemp(p.cfg.Pipeline.TempDir, util.TempDirPrefix)
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	writer := audio.NewWriter(staging, p.cfg.Output)

	outcome := &types.ConversionOutcome{
		RunID:     runID,
		Input:     input,
		BookDir:   bookDir,
		Title:     book.Title,
		Creator:   book.Creator,
		Engine:    engine.Name(),
		Voice:     p.cfg.Synthesis.Voice(),
		Status:    types.StatusCompleted,
		StartedAt: time.Now().UTC(),
	}

	aborted := false
	for _, chapter := range book.Chapters {
		chunks, skips, chapterAborted, err := p.convertChapter(ctx, engine, chapter)
		if err != nil {
			return nil, err
		}

		result := types.ChapterResult{
			Index:       chapter.Index,
			Title:       chapter.Title,
			Segments:    len(chapter.Segments),
			Synthesized: len(chunks),
			Skipped:     len(skips),
		}
		if len(chunks) > 0 {
			// On abort the partial chapter is still written.
			name, err := writer.WriteChapter(ctx, book, chapter, chunks, skips)
			if err != nil {
				return nil, err
			}
			result.File = name
		} else {
			logging.Warnf("[pipeline] chapter %d has no audio, keeping track number without a file", chapter.Index)
		}
		outcome.Chapters = append(outcome.Chapters, result)
		outcome.Skipped = append(outcome.Skipped, skips...)

		if chapterAborted {
			aborted = true
			break
		}
	}

	if aborted {
		outcome.Status = types.StatusAborted
	}
	outcome.FinishedAt = time.Now().UTC()

	// Publishing runs detached from the run context so an operator abort
	// still lands the partial output and its report.
	publishCtx := context.WithoutCancel(ctx)
	stored, err := p.publisher.PublishBook(publishCtx, staging, bookDir, outcome)
	if err != nil {
		return nil, fmt.Errorf("publish %s: %w", bookDir, err)
	}
	logging.Infof("[pipeline] %s: %s, %d object(s) published, %d segment(s) skipped",
		input, outcome.Status, stored, len(outcome.Skipped))

	if p.cfg.Output.Package {
		bundle, err := p.packager.WriteBundle(publishCtx, outcome)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", bookDir, err)
		}
		logging.Infof("[pipeline] %s: bundle %s", input, bundle)
	}
	return outcome, nil
}

// convertChapter synthesizes one chapter's segments in order. It returns the
// produced chunks, the skip records, and whether the file must stop here.
func (p *Pipeline) convertChapter(ctx context.Context, engine synth.Engine, chapter types.Chapter) ([]types.Chunk, []types.SkipRecord, bool, error) {
	var (
		chunks []types.Chunk
		skips  []types.SkipRecord
	)
	for _, segment := range chapter.Segments {
		// Cancellation granularity is per segment: an in-flight call is
		// never interrupted from here, the file aborts before the next one.
		if ctx.Err() != nil {
			logging.Warnf("[pipeline] cancelled before segment %s, aborting file", segment.Ref())
			return chunks, skips, true, nil
		}

		clip, err := engine.Synthesize(ctx, segment)
		if err == nil {
			chunks = append(chunks, types.Chunk{Segment: segment, Audio: *clip})
			logging.Debugf("[pipeline] segment %s synthesized (%d bytes)", segment.Ref(), len(clip.Data))
			continue
		}
		if ctx.Err() != nil {
			return chunks, skips, true, nil
		}

		synthErr := &synth.SynthesisError{Segment: segment, Cause: err}
		logging.Warnf("[pipeline] %v", synthErr)

		resolution, err := p.controller.Resolve(ctx, segment, synthErr, engine.Synthesize)
		if err != nil {
			if errors.Is(err, recovery.ErrAbortRequested) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return chunks, skips, true, nil
			}
			return nil, nil, false, err
		}

		switch resolution.State {
		case recovery.StateSucceeded:
			chunks = append(chunks, types.Chunk{Segment: resolution.Segment, Audio: *resolution.Audio})
		case recovery.StateSkipped:
			skips = append(skips, types.SkipRecord{
				Chapter: resolution.Segment.Chapter,
				Ordinal: resolution.Segment.Ordinal,
				Text:    resolution.Segment.Text,
				Cause:   causeString(resolution.Cause),
			})
		default:
			return nil, nil, false, fmt.Errorf("unexpected recovery state %s for segment %s", resolution.State, segment.Ref())
		}
	}
	return chunks, skips, false, nil
}

// causeString reports why a segment failed without the identity prefix that
// SynthesisError adds, the skip record already names the segment.
func causeString(err error) string {
	var synthErr *synth.SynthesisError
	if errors.As(err, &synthErr) {
		return synthErr.Cause.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
