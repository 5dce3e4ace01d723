package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultMaxDepth is the nesting limit used when Options.MaxDepth is not set.
const DefaultMaxDepth = 16

// Options controls where archives are extracted and how nested archives are handled.
type Options struct {
	// ExtractTo is the parent directory for the top-level destination.
	// Empty means the directory holding the archive. ExtractTree ignores it.
	ExtractTo string

	// Recursive extracts archives found among the extracted files.
	Recursive bool

	// DeleteNested removes nested archives once they are extracted.
	// The archive passed to Extract is never removed.
	DeleteNested bool

	// CreateDir gives nested tar archives their own destination directory.
	// When false their members are written next to the archive.
	CreateDir bool

	// GzCreateDir gives nested single-stream archives (.gz, .zst) their own
	// destination directory. When false the decompressed file is written next
	// to the archive.
	GzCreateDir bool

	// MaxDepth bounds how many levels of nested archives are followed.
	MaxDepth int
}

// DefaultOptions returns recursive extraction that cleans up nested archives,
// puts nested tars in their own directories and decompresses nested .gz files in place.
func DefaultOptions() Options {
	return Options{
		Recursive:    true,
		DeleteNested: true,
		CreateDir:    true,
		GzCreateDir:  false,
		MaxDepth:     DefaultMaxDepth,
	}
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Result describes a finished extraction.
type Result struct {
	// Root is the top-level destination: a directory for tar archives, the
	// decompressed file for single-stream archives, or the input path itself
	// when it was not an archive.
	Root string `json:"root"`

	// Extracted lists every archive that was extracted, in order.
	Extracted []string `json:"extracted"`

	// Files counts the regular files written.
	Files int `json:"files"`
}

// Extractor unpacks archives on a filesystem.
type Extractor struct {
	fs     afero.Fs
	logger *zap.Logger
}

// New creates an extractor working on fsys.
func New(logger *zap.Logger, fsys afero.Fs) *Extractor {
	return &Extractor{
		fs:     fsys,
		logger: logger,
	}
}

// Fs returns the filesystem the extractor works on.
func (e *Extractor) Fs() afero.Fs {
	return e.fs
}

// Tar extracts a tar archive, optionally gzip, bzip2 or zstd compressed, into a
// new uniquely named directory and returns that directory.
func (e *Extractor) Tar(ctx context.Context, path string, opts Options) (string, error) {
	format := DetectFormat(path)
	if !format.IsTar() {
		return "", unsupportedFormat("tar", path)
	}
	if err := e.checkFile(path); err != nil {
		return "", err
	}

	dest, _, err := e.extractTar(ctx, path, format, e.parentDir(path, opts), true)
	return dest, err
}

// Gz decompresses a plain .gz file into a new uniquely named directory and
// returns the path of the decompressed file.
func (e *Extractor) Gz(ctx context.Context, path string, opts Options) (string, error) {
	return e.single(ctx, "gz", FormatGzip, path, opts)
}

// Zst decompresses a plain .zst file the same way Gz handles .gz files.
func (e *Extractor) Zst(ctx context.Context, path string, opts Options) (string, error) {
	return e.single(ctx, "zst", FormatZstd, path, opts)
}

func (e *Extractor) single(ctx context.Context, op string, want Format, path string, opts Options) (string, error) {
	if DetectFormat(path) != want {
		return "", unsupportedFormat(op, path)
	}
	if err := e.checkFile(path); err != nil {
		return "", err
	}
	return e.extractStream(ctx, path, want, e.parentDir(path, opts), true)
}

// Extract dispatches path by extension. Files that are not archives are left
// alone and returned as the result root. With opts.Recursive set, archives
// among the extracted files are extracted too, until none are left.
func (e *Extractor) Extract(ctx context.Context, path string, opts Options) (Result, error) {
	format := DetectFormat(path)
	if !format.IsArchive() {
		if _, err := e.fs.Stat(path); err != nil {
			return Result{}, fsError("stat", path, err)
		}
		e.logger.Debug("not an archive, nothing to extract", zap.String("path", path))
		return Result{Root: path}, nil
	}
	if err := e.checkFile(path); err != nil {
		return Result{}, err
	}

	root, produced, files, err := e.extractOne(ctx, path, format, e.parentDir(path, opts), true)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Root:      root,
		Extracted: []string{path},
		Files:     files,
	}

	if !opts.Recursive {
		return result, nil
	}

	w := newWorklist(opts.maxDepth())
	w.visit(path)
	w.pushArchives(produced, 1)

	if err := e.drain(ctx, w, opts, &result); err != nil {
		return result, err
	}

	return result, nil
}

// ExtractPath extracts a directory with ExtractTree and anything else with Extract.
func (e *Extractor) ExtractPath(ctx context.Context, path string, opts Options) (Result, error) {
	info, err := e.fs.Stat(path)
	if err != nil {
		return Result{}, fsError("stat", path, err)
	}
	if info.IsDir() {
		return e.ExtractTree(ctx, path, opts)
	}
	return e.Extract(ctx, path, opts)
}

// ExtractTree walks dir and extracts every archive found, handling each one the
// way nested archives are handled by Extract. opts.ExtractTo is not used:
// every archive is extracted next to itself.
func (e *Extractor) ExtractTree(ctx context.Context, dir string, opts Options) (Result, error) {
	info, err := e.fs.Stat(dir)
	if err != nil {
		return Result{}, fsError("stat", dir, err)
	}
	if !info.IsDir() {
		return Result{}, fsError("walk", dir, fmt.Errorf("not a directory"))
	}

	var found []string
	err = afero.Walk(e.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() && DetectFormat(path).IsArchive() {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return Result{}, fsError("walk", dir, err)
	}

	result := Result{Root: dir}
	w := newWorklist(opts.maxDepth())
	w.pushArchives(found, 0)

	if err := e.drain(ctx, w, opts, &result); err != nil {
		return result, err
	}

	return result, nil
}

// drain extracts queued nested archives until the queue is empty.
func (e *Extractor) drain(ctx context.Context, w *worklist, opts Options, result *Result) error {
	for w.len() > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("extraction cancelled: %w", err)
		}

		item := w.pop()
		if w.visited(item.path) {
			continue
		}
		w.visit(item.path)

		if item.depth > w.limit {
			return &Error{Op: "extract", Path: item.path, Kind: ErrDepthExceeded, Err: fmt.Errorf("depth %d > %d", item.depth, w.limit)}
		}

		format := DetectFormat(item.path)
		createDir := opts.CreateDir
		if !format.IsTar() {
			createDir = opts.GzCreateDir
		}

		_, produced, files, err := e.extractOne(ctx, item.path, format, filepath.Dir(item.path), createDir)
		if err != nil {
			return err
		}
		result.Extracted = append(result.Extracted, item.path)
		result.Files += files

		if opts.DeleteNested {
			if err := e.fs.Remove(item.path); err != nil {
				return fsError("remove", item.path, err)
			}
			e.logger.Debug("removed nested archive", zap.String("path", item.path))
		}

		if opts.Recursive {
			w.pushArchives(produced, item.depth+1)
		}
	}
	return nil
}

// extractOne extracts a single archive and returns its output path, the
// regular files it produced and how many there were.
func (e *Extractor) extractOne(ctx context.Context, path string, format Format, parent string, createDir bool) (string, []string, int, error) {
	if format.IsTar() {
		dest, produced, err := e.extractTar(ctx, path, format, parent, createDir)
		return dest, produced, len(produced), err
	}

	out, err := e.extractStream(ctx, path, format, parent, createDir)
	if err != nil {
		return "", nil, 0, err
	}
	return out, []string{out}, 1, nil
}

func (e *Extractor) parentDir(path string, opts Options) string {
	if opts.ExtractTo != "" {
		return opts.ExtractTo
	}
	return filepath.Dir(path)
}

func (e *Extractor) checkFile(path string) error {
	info, err := e.fs.Stat(path)
	if err != nil {
		return fsError("stat", path, err)
	}
	if info.IsDir() {
		return fsError("open", path, errors.New("is a directory"))
	}
	return nil
}

// destination picks the directory members are written to.
func (e *Extractor) destination(path, parent string, createDir bool) (string, error) {
	if !createDir {
		if err := e.fs.MkdirAll(parent, 0o755); err != nil {
			return "", fsError("mkdir", parent, err)
		}
		return parent, nil
	}

	dest, err := CreateUniqueDirectory(e.fs, filepath.Join(parent, TrimExtension(path)))
	if err != nil {
		return "", err
	}
	e.logger.Debug("created destination directory", zap.String("destination", dest))
	return dest, nil
}
