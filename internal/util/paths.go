package util

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// TempDirPrefix marks per-chapter staging directories so leftovers from
// crashed runs are recognizable.
const TempDirPrefix = ".quillcast-tmp-"

var bookDirUnsafe = regexp.MustCompile(`[^a-zA-Z0-9'"\-_ ]`)

// BookDirName derives the output directory name for a book from its title,
// falling back to the input file's stem when the title is missing. Characters
// that are awkward in directory names are dropped.
func BookDirName(title, source string) string {
	name := title
	if name == "" {
		name = InputStem(source)
	}
	name = strings.TrimSpace(bookDirUnsafe.ReplaceAllString(name, ""))
	if name == "" {
		name = strings.TrimSpace(bookDirUnsafe.ReplaceAllString(InputStem(source), ""))
	}
	if name == "" {
		name = "book"
	}
	return name
}

// InputStem returns the file name without directory or extension.
func InputStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ChapterFileName names a finished chapter file, zero padded so shell globs
// sort in reading order.
func ChapterFileName(index int, format string) string {
	return fmt.Sprintf("%04d.%s", index, format)
}

// ChunkFileName names an intermediate per-segment clip inside the staging
// directory.
func ChunkFileName(ordinal int, format string) string {
	return fmt.Sprintf("%06d.%s", ordinal, format)
}
