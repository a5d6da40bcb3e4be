package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/quillcast/quillcast/internal/logging"
	"github.com/quillcast/quillcast/internal/util"
	"github.com/quillcast/quillcast/pkg/types"
)

const defaultUploadConcurrency = 4

// ReportFileName is the per-book conversion report written next to the
// chapter audio.
const ReportFileName = "report.json"

// PublishOptions configures a Publisher for a run.
type PublishOptions struct {
	Concurrency int  // parallel uploads, <=0 uses the default
	Overwrite   bool // replace an existing book prefix
	Report      bool // write report.json alongside the audio
}

// Publisher copies finished book directories from their staging area into a
// storage backend.
type Publisher struct {
	store Adapter
	opts  PublishOptions
}

// NewPublisher creates a publisher that uploads through store.
func NewPublisher(store Adapter, opts PublishOptions) *Publisher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultUploadConcurrency
	}
	return &Publisher{store: store, opts: opts}
}

// CheckDestination reports an error when the book prefix already holds
// objects and overwrite is off. Called before synthesis starts so a doomed
// conversion fails fast.
func (p *Publisher) CheckDestination(ctx context.Context, bookDir string) error {
	existing, err := p.store.List(ctx, bookDir+"/")
	if err != nil {
		return fmt.Errorf("failed to list destination %q: %w", bookDir, err)
	}
	if len(existing) > 0 && !p.opts.Overwrite {
		return fmt.Errorf("destination %q already holds %d objects (enable overwrite to replace)", bookDir, len(existing))
	}
	return nil
}

// PublishBook uploads every file under stagingDir to the book prefix and
// writes the conversion report. Returns the number of objects stored.
// Staging subdirectories holding intermediate chunks are not uploaded.
func (p *Publisher) PublishBook(ctx context.Context, stagingDir, bookDir string, outcome *types.ConversionOutcome) (int, error) {
	existing, err := p.store.List(ctx, bookDir+"/")
	if err != nil {
		return 0, fmt.Errorf("failed to list destination %q: %w", bookDir, err)
	}
	if len(existing) > 0 {
		if !p.opts.Overwrite {
			return 0, fmt.Errorf("destination %q already holds %d objects (enable overwrite to replace)", bookDir, len(existing))
		}
		for _, key := range existing {
			if err := p.store.Delete(ctx, key); err != nil {
				return 0, fmt.Errorf("failed to delete stale object %q: %w", key, err)
			}
		}
		logging.Debugf("[publish] deleted %d stale objects under %q", len(existing), bookDir)
	}

	var files []string
	err = filepath.Walk(stagingDir, func(fp string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			// The staging root itself carries the temp prefix, only
			// nested chunk directories are skipped.
			if fp != stagingDir && strings.HasPrefix(info.Name(), util.TempDirPrefix) {
				return filepath.SkipDir
			}
			return nil
		}
		files = append(files, fp)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk %q: %w", stagingDir, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for _, file := range files {
		file := file
		g.Go(func() error {
			rel, err := filepath.Rel(stagingDir, file)
			if err != nil {
				return fmt.Errorf("failed to resolve %q: %w", file, err)
			}
			key := path.Join(bookDir, filepath.ToSlash(rel))

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open %q: %w", file, err)
			}
			defer f.Close()

			if err := p.store.Put(gctx, key, f); err != nil {
				return fmt.Errorf("failed to upload %q: %w", key, err)
			}
			logging.Debugf("[publish] uploaded %s", key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	stored := len(files)

	if p.opts.Report && outcome != nil {
		data, err := json.MarshalIndent(outcome, "", "  ")
		if err != nil {
			return stored, fmt.Errorf("failed to marshal report: %w", err)
		}
		key := path.Join(bookDir, ReportFileName)
		if err := p.store.Put(ctx, key, bytes.NewReader(data)); err != nil {
			return stored, fmt.Errorf("failed to upload report: %w", err)
		}
		stored++
	}
	return stored, nil
}
