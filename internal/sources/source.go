package sources

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/infracollect/rextract/internal/archive"
)

// Source makes an archive available on a local filesystem.
type Source interface {
	Name() string
	Kind() string

	// Fetch returns the path of the archive on fsys. Remote sources download
	// into workDir; local sources return their path as is.
	Fetch(ctx context.Context, fsys afero.Fs, workDir string) (string, error)
}

// Config holds the settings for remote sources.
type Config struct {
	S3   S3Config
	HTTP HTTPConfig
}

// Resolve picks the source for ref by scheme: s3://bucket/key, http(s)://...,
// anything else is a local path.
func Resolve(ctx context.Context, logger *zap.Logger, ref string, cfg Config) (Source, error) {
	switch {
	case strings.HasPrefix(ref, "s3://"):
		bucket, key, err := ParseS3URI(ref)
		if err != nil {
			return nil, err
		}
		return NewS3Source(ctx, logger.Named("s3"), cfg.S3, bucket, key)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return NewHTTPSource(logger.Named("http"), ref, cfg.HTTP)
	default:
		return NewLocalSource(ref), nil
	}
}

// ParseS3URI splits s3://bucket/key into its parts.
func ParseS3URI(ref string) (bucket, key string, err error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse s3 uri '%s': %w", ref, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("s3 uri must use the s3 scheme, got: %s", u.Scheme)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri '%s' must name a bucket and a key", ref)
	}
	return u.Host, key, nil
}

// downloadName picks the local file name for a remote object. The extension is
// kept so that format detection still works on the downloaded copy.
func downloadName(remotePath string) (string, error) {
	name := path.Base(remotePath)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("cannot derive a file name from '%s'", remotePath)
	}
	if !archive.DetectFormat(name).IsArchive() {
		return "", fmt.Errorf("'%s' does not have a recognized archive extension", name)
	}
	return name, nil
}

// createDownload opens a file for a download inside a fresh directory under
// workDir, so repeated downloads of the same object keep their names.
func createDownload(fsys afero.Fs, workDir, remotePath string) (afero.File, error) {
	name, err := downloadName(remotePath)
	if err != nil {
		return nil, err
	}
	dir, err := archive.CreateUniqueDirectory(fsys, filepath.Join(workDir, "download"))
	if err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	return archive.CreateUniqueFile(fsys, filepath.Join(dir, name), 0o644)
}
