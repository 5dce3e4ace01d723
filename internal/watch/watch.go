// Package watch extracts archives as they are dropped into a directory.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/infracollect/rextract/internal/archive"
)

// DefaultSettleDelay is how long a file must go without writes before it is extracted.
const DefaultSettleDelay = 500 * time.Millisecond

// Extractor is the part of archive.Extractor the watcher needs. Directory
// listings and stats go through its Fs. Events still come from the OS, so
// the Fs must map paths onto the real directory.
type Extractor interface {
	Extract(ctx context.Context, path string, opts archive.Options) (archive.Result, error)
	Fs() afero.Fs
}

type Option func(*Watcher)

// WithSettleDelay sets how long to wait after the last write to a file.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.settle = d
	}
}

// WithExisting extracts archives already present in the directory on start.
func WithExisting() Option {
	return func(w *Watcher) {
		w.existing = true
	}
}

// WithOnExtract registers a callback run after every extraction attempt.
func WithOnExtract(fn func(path string, result archive.Result, err error)) Option {
	return func(w *Watcher) {
		w.onExtract = fn
	}
}

// Watcher extracts archives created in a single directory. Subdirectories are
// not watched, so the watcher's own output does not feed back into it.
type Watcher struct {
	logger    *zap.Logger
	extractor Extractor
	dir       string
	opts      archive.Options
	settle    time.Duration
	existing  bool
	onExtract func(path string, result archive.Result, err error)

	pending map[string]time.Time
	done    map[string]struct{}
}

func New(logger *zap.Logger, extractor Extractor, dir string, opts archive.Options, options ...Option) *Watcher {
	w := &Watcher{
		logger:    logger,
		extractor: extractor,
		dir:       filepath.Clean(dir),
		opts:      opts,
		settle:    DefaultSettleDelay,
		pending:   make(map[string]time.Time),
		done:      make(map[string]struct{}),
	}

	for _, opt := range options {
		opt(w)
	}

	return w
}

// Run watches the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", w.dir, err)
	}

	w.logger.Info("watching directory", zap.String("dir", w.dir))

	if w.existing {
		if err := w.queueExisting(); err != nil {
			return err
		}
	}

	tick := w.settle / 2
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped", zap.String("dir", w.dir))
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) queueExisting() error {
	entries, err := afero.ReadDir(w.extractor.Fs(), w.dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", w.dir, err)
	}

	for _, entry := range entries {
		if entry.Mode().IsRegular() && archive.DetectFormat(entry.Name()).IsArchive() {
			w.pending[filepath.Join(w.dir, entry.Name())] = time.Time{}
		}
	}
	return nil
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !archive.DetectFormat(event.Name).IsArchive() {
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if _, seen := w.done[event.Name]; seen {
			return
		}
		w.pending[event.Name] = time.Now()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, event.Name)
		delete(w.done, event.Name)
	}
}

// flush extracts every pending file that has not been written to for the settle delay.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	for path, last := range w.pending {
		if now.Sub(last) < w.settle {
			continue
		}
		delete(w.pending, path)

		info, err := w.extractor.Fs().Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		w.done[path] = struct{}{}
		result, err := w.extractor.Extract(ctx, path, w.opts)
		if err != nil {
			w.logger.Error("failed to extract archive", zap.String("path", path), zap.Error(err))
		} else {
			w.logger.Info("archive extracted",
				zap.String("path", path),
				zap.String("root", result.Root),
				zap.Int("files", result.Files),
			)
		}

		if w.onExtract != nil {
			w.onExtract(path, result, err)
		}
	}
}
