package archive

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrUnsupportedFormat is returned when Tar, Gz or Zst is handed a file of another format.
	ErrUnsupportedFormat = errors.New("unsupported archive format")

	// ErrCorruptArchive is returned when a compression or tar reader rejects the content.
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrFileSystem is returned for missing paths and read, write or create failures.
	ErrFileSystem = errors.New("filesystem error")

	// ErrDepthExceeded is returned when nested archives go deeper than Options.MaxDepth.
	ErrDepthExceeded = errors.New("maximum nesting depth exceeded")
)

// Error records a failed extraction step. It matches its category sentinel
// and its cause with errors.Is.
type Error struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func unsupportedFormat(op, path string) error {
	return &Error{Op: op, Path: path, Kind: ErrUnsupportedFormat}
}

// corrupt classifies err as a corrupt archive unless it already carries a
// category, such as a filesystem read failure surfacing through a decompressor.
func corrupt(op, path string, err error) error {
	var archiveErr *Error
	if errors.As(err, &archiveErr) {
		return err
	}
	return &Error{Op: op, Path: path, Kind: ErrCorruptArchive, Err: err}
}

// fsError classifies err as a filesystem failure unless it already carries
// a category from a deeper layer.
func fsError(op, path string, err error) error {
	var archiveErr *Error
	if errors.As(err, &archiveErr) {
		return err
	}
	return &Error{Op: op, Path: path, Kind: ErrFileSystem, Err: err}
}

// corruptReader tags non-EOF read errors from the decompressor or tar layer
// as ErrCorruptArchive so that io.Copy failures can be told apart from write
// failures. Errors already tagged by fsReader keep their category.
type corruptReader struct {
	r    io.Reader
	path string
}

func (c *corruptReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if err != nil && err != io.EOF {
		return n, corrupt("read", c.path, err)
	}
	return n, err
}

// fsReader sits directly on the archive file and tags its read errors as
// ErrFileSystem before any decompressor sees them.
type fsReader struct {
	r    io.Reader
	path string
}

func (f *fsReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err != nil && err != io.EOF {
		return n, fsError("read", f.path, err)
	}
	return n, err
}
