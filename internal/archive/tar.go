package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// extractTar writes every member of the tar archive at path below a
// destination directory and returns it together with the regular files written.
func (e *Extractor) extractTar(ctx context.Context, path string, format Format, parent string, createDir bool) (dest string, produced []string, err error) {
	f, err := e.fs.Open(path)
	if err != nil {
		return "", nil, fsError("open", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	dr, err := newDecompressor(&fsReader{r: f, path: path}, format.Compression())
	if err != nil {
		return "", nil, corrupt("open", path, err)
	}
	defer func() {
		err = errors.Join(err, dr.Close())
	}()

	dest, err = e.destination(path, parent, createDir)
	if err != nil {
		return "", nil, err
	}

	logger := e.logger.With(zap.String("path", path), zap.String("destination", dest))
	logger.Info("extracting archive", zap.Stringer("format", format))

	tr := tar.NewReader(&corruptReader{r: dr, path: path})
	for {
		if err := ctx.Err(); err != nil {
			return dest, produced, fmt.Errorf("extraction cancelled: %w", err)
		}

		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		// memberPath below does its own containment check.
		if err != nil && !(errors.Is(err, tar.ErrInsecurePath) && header != nil) {
			return dest, produced, corrupt("read header", path, err)
		}

		target, err := memberPath(dest, header.Name)
		if err != nil {
			logger.Warn("skipping member outside destination", zap.String("member", header.Name), zap.Error(err))
			continue
		}
		if err := checkNoSymlinks(e.fs, dest, target); err != nil {
			logger.Warn("skipping member behind a symlink", zap.String("member", header.Name), zap.Error(err))
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := e.fs.MkdirAll(target, 0o755); err != nil {
				return dest, produced, fsError("mkdir", target, err)
			}
		case tar.TypeReg:
			written, err := e.writeMember(path, target, header, &corruptReader{r: tr, path: path})
			if err != nil {
				return dest, produced, err
			}
			if written != target {
				logger.Info("member would overwrite the archive being read, renamed",
					zap.String("member", header.Name),
					zap.String("written", written),
				)
			}
			produced = append(produced, written)
		case tar.TypeSymlink:
			e.writeSymlink(logger, dest, target, header)
		default:
			logger.Debug("skipping unsupported member type",
				zap.String("member", header.Name),
				zap.String("type", string(header.Typeflag)),
			)
		}
	}

	logger.Info("extraction done", zap.Int("files", len(produced)))
	return dest, produced, nil
}

// writeMember copies one member's content and returns the path written. r must
// tag read errors as corrupt so that they are not reported as write failures.
// A member that lands on the archive being read gets a fresh unique name
// instead of truncating its own source.
func (e *Extractor) writeMember(archivePath, target string, header *tar.Header, r io.Reader) (written string, err error) {
	if err := e.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fsError("mkdir", filepath.Dir(target), err)
	}

	mode := header.FileInfo().Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}

	var out afero.File
	if filepath.Clean(target) == filepath.Clean(archivePath) {
		out, err = CreateUniqueFile(e.fs, target, mode)
		if err != nil {
			return "", err
		}
	} else {
		out, err = e.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
		if err != nil {
			return "", fsError("create", target, err)
		}
	}
	written = out.Name()
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	if _, err := io.Copy(out, r); err != nil {
		return written, fsError("write", written, err)
	}
	return written, nil
}

func (e *Extractor) writeSymlink(logger *zap.Logger, dest, target string, header *tar.Header) {
	linker, ok := e.fs.(afero.Linker)
	if !ok {
		logger.Debug("filesystem does not support symlinks, skipping", zap.String("member", header.Name))
		return
	}
	if !linkTargetWithin(dest, target, header.Linkname) {
		logger.Warn("skipping symlink pointing outside destination",
			zap.String("member", header.Name),
			zap.String("link", header.Linkname),
		)
		return
	}
	if err := e.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		logger.Warn("failed to create symlink parent", zap.String("member", header.Name), zap.Error(err))
		return
	}
	if err := linker.SymlinkIfPossible(header.Linkname, target); err != nil {
		logger.Warn("failed to create symlink", zap.String("member", header.Name), zap.Error(err))
	}
}
