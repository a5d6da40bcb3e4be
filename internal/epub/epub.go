// Package epub reads EPub containers: mimetype verification, rootfile
// resolution through META-INF/container.xml, package-document metadata, and
// spine-ordered access to content documents. Archive members are read with
// decompression limits and path-traversal checks; the package performs no
// markup interpretation beyond the OPF itself.
package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strings"
)

const expectedMimetype = "application/epub+zip"

// SpineItem is a reading-order entry resolved against the manifest.
type SpineItem struct {
	ManifestItem
	Linear bool
}

// File is an open EPub container.
type File struct {
	zr     *zip.Reader
	closer io.Closer

	// member lookup: exact path first, lowercase fallback
	exact map[string]*zip.File
	lower map[string]*zip.File

	opfPath string
	doc     *PackageDoc
	spine   []SpineItem
}

// Open opens the EPub at path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("epub: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("epub: stat %s: %w", path, err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("epub: %s is not a zip archive: %w", path, ErrInvalidEPub)
	}

	ef, err := initFile(zr, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return ef, nil
}

// NewReader opens an EPub from an in-memory or otherwise seekable source.
func NewReader(r io.ReaderAt, size int64) (*File, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("epub: not a zip archive: %w", ErrInvalidEPub)
	}
	return initFile(zr, nil)
}

func initFile(zr *zip.Reader, closer io.Closer) (*File, error) {
	f := &File{zr: zr, closer: closer}
	f.buildIndex()

	if err := f.verifyMimetype(); err != nil {
		return nil, err
	}

	cf := f.findFile(containerPath)
	if cf == nil {
		return nil, fmt.Errorf("epub: missing %s: %w", containerPath, ErrInvalidEPub)
	}
	opfPath, err := parseContainer(cf)
	if err != nil {
		return nil, err
	}
	f.opfPath = opfPath

	of := f.findFile(opfPath)
	if of == nil {
		return nil, fmt.Errorf("epub: package document %s: %w", opfPath, ErrItemNotFound)
	}
	data, err := readZipFile(of)
	if err != nil {
		return nil, err
	}
	doc, err := parseOPF(data)
	if err != nil {
		return nil, err
	}
	f.doc = doc

	// Resolve the spine eagerly so dangling idrefs fail at open time.
	for _, ref := range doc.Spine {
		item, ok := doc.Manifest[ref.IDRef]
		if !ok {
			return nil, fmt.Errorf("epub: spine references unknown item %q: %w", ref.IDRef, ErrInvalidEPub)
		}
		f.spine = append(f.spine, SpineItem{ManifestItem: item, Linear: ref.Linear})
	}

	return f, nil
}

// verifyMimetype requires the well-known mimetype member with the exact EPub
// media type.
func (f *File) verifyMimetype() error {
	mf := f.findFile("mimetype")
	if mf == nil {
		return fmt.Errorf("epub: missing mimetype entry: %w", ErrInvalidEPub)
	}
	data, err := readZipFile(mf)
	if err != nil {
		return err
	}
	if string(data) != expectedMimetype {
		return fmt.Errorf("epub: mimetype is %q, want %q: %w", strings.TrimSpace(string(data)), expectedMimetype, ErrInvalidEPub)
	}
	return nil
}

func (f *File) buildIndex() {
	f.exact = make(map[string]*zip.File, len(f.zr.File))
	f.lower = make(map[string]*zip.File, len(f.zr.File))
	for _, zf := range f.zr.File {
		f.exact[zf.Name] = zf
		key := strings.ToLower(zf.Name)
		if _, ok := f.lower[key]; !ok {
			f.lower[key] = zf
		}
	}
}

func (f *File) findFile(name string) *zip.File {
	if zf, ok := f.exact[name]; ok {
		return zf
	}
	if zf, ok := f.lower[strings.ToLower(name)]; ok {
		return zf
	}
	return nil
}

// Title returns the first dc:title, or "".
func (f *File) Title() string { return f.doc.Title }

// Creator returns the first dc:creator, or "".
func (f *File) Creator() string { return f.doc.Creator }

// Spine returns the resolved reading order as declared by the package
// document. The slice is shared; callers must not modify it.
func (f *File) Spine() []SpineItem { return f.spine }

// ReadItem reads a manifest member. The href is resolved relative to the
// package document, matching how manifest hrefs are declared.
func (f *File) ReadItem(href string) ([]byte, error) {
	resolved := resolveRelativePath(f.opfPath, href)
	if resolved == "" {
		return nil, fmt.Errorf("epub: href %q: %w", href, ErrUnsafePath)
	}
	zf := f.findFile(resolved)
	if zf == nil {
		return nil, fmt.Errorf("epub: %s: %w", resolved, ErrItemNotFound)
	}
	return readZipFile(zf)
}

// Close releases the underlying file, if any.
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}
