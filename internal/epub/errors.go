package epub

import "errors"

var (
	// ErrInvalidEPub indicates the file is not a usable EPub container
	// (bad mimetype, missing container.xml, malformed package document).
	ErrInvalidEPub = errors.New("epub: invalid epub file")

	// ErrMissingRootfile indicates container.xml names no usable rootfile.
	ErrMissingRootfile = errors.New("epub: missing rootfile")

	// ErrItemNotFound indicates a manifest href does not resolve to an
	// archive member.
	ErrItemNotFound = errors.New("epub: item not found")

	// ErrUnsafePath indicates an archive path that escapes the container
	// root.
	ErrUnsafePath = errors.New("epub: unsafe path")
)
