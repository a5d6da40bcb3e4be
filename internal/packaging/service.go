// Package packaging builds single-file audiobook bundles: a zip archive
// holding the chapter audio plus a manifest describing the book.
package packaging

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/quillcast/quillcast/internal/storage"
	"github.com/quillcast/quillcast/pkg/types"
)

// Service handles audiobook packaging into ZIP archives
type Service struct {
	store storage.Adapter
}

// NewService creates a new packaging service reading and writing through the
// given storage adapter.
func NewService(store storage.Adapter) *Service {
	return &Service{store: store}
}

// Manifest represents the top-level bundle manifest
type Manifest struct {
	RunID     string             `json:"run_id"`
	Source    string             `json:"source"`
	Title     string             `json:"title"`
	Creator   string             `json:"creator,omitempty"`
	Engine    string             `json:"engine"`
	Voice     types.VoiceConfig  `json:"voice"`
	Status    string             `json:"status"`
	Chapters  []ManifestChapter  `json:"chapters"`
	Skipped   []types.SkipRecord `json:"skipped"`
	CreatedAt time.Time          `json:"created_at"`
	Version   string             `json:"version"`
}

// ManifestChapter represents one chapter in the manifest
type ManifestChapter struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	File        string `json:"file,omitempty"` // audio file within the bundle
	Segments    int    `json:"segments"`
	Synthesized int    `json:"synthesized"`
	Skipped     int    `json:"skipped"`
}

// Bundle creates a ZIP archive for a converted book, reading the published
// chapter audio back through the storage adapter.
func (s *Service) Bundle(ctx context.Context, outcome *types.ConversionOutcome) (io.Reader, error) {
	// Create ZIP in memory
	buf := new(bytes.Buffer)
	zipWriter := zip.NewWriter(buf)

	manifest := s.generateManifest(outcome)
	if err := s.addJSONFile(zipWriter, "manifest.json", manifest); err != nil {
		return nil, fmt.Errorf("failed to add manifest: %w", err)
	}

	for _, chapter := range outcome.Chapters {
		if chapter.File == "" {
			// Chapter produced no audio, manifest entry only
			continue
		}

		reader, err := s.store.Get(ctx, path.Join(outcome.BookDir, chapter.File))
		if err != nil {
			return nil, fmt.Errorf("failed to get chapter audio %s: %w", chapter.File, err)
		}
		if err := s.addFileFromReader(zipWriter, chapter.File, reader); err != nil {
			reader.Close()
			return nil, fmt.Errorf("failed to add chapter audio %s: %w", chapter.File, err)
		}
		reader.Close()
	}

	// Close ZIP writer
	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip: %w", err)
	}

	return bytes.NewReader(buf.Bytes()), nil
}

// WriteBundle builds the archive and stores it as "<bookdir>.zip" next to the
// book directory, returning the bundle path.
func (s *Service) WriteBundle(ctx context.Context, outcome *types.ConversionOutcome) (string, error) {
	bundle, err := s.Bundle(ctx, outcome)
	if err != nil {
		return "", err
	}

	bundlePath := outcome.BookDir + ".zip"
	if err := s.store.Put(ctx, bundlePath, bundle); err != nil {
		return "", fmt.Errorf("failed to store bundle: %w", err)
	}
	return bundlePath, nil
}

// generateManifest creates the manifest file
func (s *Service) generateManifest(outcome *types.ConversionOutcome) *Manifest {
	chapters := make([]ManifestChapter, 0, len(outcome.Chapters))
	for _, c := range outcome.Chapters {
		chapters = append(chapters, ManifestChapter{
			Index:       c.Index,
			Title:       c.Title,
			File:        c.File,
			Segments:    c.Segments,
			Synthesized: c.Synthesized,
			Skipped:     c.Skipped,
		})
	}

	skipped := outcome.Skipped
	if skipped == nil {
		skipped = []types.SkipRecord{}
	}

	return &Manifest{
		RunID:     outcome.RunID,
		Source:    outcome.Input,
		Title:     outcome.Title,
		Creator:   outcome.Creator,
		Engine:    outcome.Engine,
		Voice:     outcome.Voice,
		Status:    outcome.Status,
		Chapters:  chapters,
		Skipped:   skipped,
		CreatedAt: time.Now(),
		Version:   "1.0",
	}
}

// addJSONFile adds a JSON file to the ZIP
func (s *Service) addJSONFile(zipWriter *zip.Writer, path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	writer, err := zipWriter.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	if _, err := writer.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	return nil
}

// addFileFromReader adds a file from an io.Reader to the ZIP
func (s *Service) addFileFromReader(zipWriter *zip.Writer, path string, reader io.Reader) error {
	writer, err := zipWriter.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	if _, err := io.Copy(writer, reader); err != nil {
		return fmt.Errorf("failed to copy data: %w", err)
	}

	return nil
}
