package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"
)

// extractStream decompresses a single-stream archive (.gz, .zst) and returns
// the path of the decompressed file. The output is named after the archive
// without its extension and never overwrites an existing file.
func (e *Extractor) extractStream(ctx context.Context, path string, format Format, parent string, createDir bool) (out string, err error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("extraction cancelled: %w", err)
	}

	f, err := e.fs.Open(path)
	if err != nil {
		return "", fsError("open", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	dr, err := newDecompressor(&fsReader{r: f, path: path}, format.Compression())
	if err != nil {
		return "", corrupt("open", path, err)
	}
	defer func() {
		err = errors.Join(err, dr.Close())
	}()

	dest, err := e.destination(path, parent, createDir)
	if err != nil {
		return "", err
	}

	w, err := CreateUniqueFile(e.fs, filepath.Join(dest, TrimExtension(path)), 0o644)
	if err != nil {
		return "", err
	}
	out = w.Name()
	defer func() {
		err = errors.Join(err, w.Close())
	}()

	logger := e.logger.With(zap.String("path", path), zap.String("destination", out))
	logger.Info("decompressing file", zap.Stringer("format", format))

	n, err := io.Copy(w, &corruptReader{r: dr, path: path})
	if err != nil {
		return out, fsError("write", out, err)
	}

	logger.Info("decompression done", zap.Int64("bytes", n))
	return out, nil
}
