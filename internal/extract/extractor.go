// Package extract turns EPub containers into books of ordered,
// synthesis-ready text segments.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quillcast/quillcast/internal/epub"
	"github.com/quillcast/quillcast/internal/logging"
	"github.com/quillcast/quillcast/pkg/types"
)

const xhtmlMediaType = "application/xhtml+xml"

// ParseError reports an input file that could not be turned into segments.
// It is fatal for that file only, a conversion run continues with the next
// input.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Path, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Extractor reads EPub files and produces speakable segments.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract opens the container at path and returns its readable spine content
// as a book. Chapters keep their spine order and segments their document
// order, so repeated runs over the same file yield identical books.
func (e *Extractor) Extract(path string) (*types.Book, error) {
	f, err := epub.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()
	return e.extract(f, path)
}

func (e *Extractor) extract(f *epub.File, path string) (*types.Book, error) {
	book := &types.Book{
		Source:  path,
		Title:   f.Title(),
		Creator: f.Creator(),
	}

	index := 0
	for _, item := range f.Spine() {
		if !isReadableChapter(item) {
			continue
		}
		index++

		data, err := f.ReadItem(item.Href)
		if err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		doc, err := parseDocument(data)
		if err != nil {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("%s: %w", item.Href, err)}
		}

		chapter := types.Chapter{Index: index, Title: doc.title}
		for _, block := range doc.blocks {
			text := Normalize(block)
			if text == "" {
				continue
			}
			chapter.Segments = append(chapter.Segments, types.Segment{
				Source:  path,
				Chapter: index,
				Ordinal: len(chapter.Segments) + 1,
				Raw:     collapseWhitespace(block),
				Text:    text,
			})
		}
		logging.Debugf("[extract] %s chapter %d (%q): %d segments", path, index, chapter.Title, len(chapter.Segments))
		book.Chapters = append(book.Chapters, chapter)
	}

	if len(book.Chapters) == 0 {
		return nil, &ParseError{Path: path, Err: errors.New("no readable chapters in spine")}
	}
	return book, nil
}

// isReadableChapter keeps linear XHTML spine entries and drops navigation
// documents.
func isReadableChapter(item epub.SpineItem) bool {
	if !item.Linear || item.MediaType != xhtmlMediaType {
		return false
	}
	for _, p := range strings.Fields(item.Properties) {
		if p == "nav" {
			return false
		}
	}
	return true
}
