package sources

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

type LocalSource struct {
	path string
}

func NewLocalSource(path string) *LocalSource {
	return &LocalSource{path: filepath.Clean(path)}
}

func (s *LocalSource) Name() string {
	return fmt.Sprintf("local(%s)", s.path)
}

func (s *LocalSource) Kind() string {
	return "local"
}

func (s *LocalSource) Fetch(_ context.Context, fsys afero.Fs, _ string) (string, error) {
	if _, err := fsys.Stat(s.path); err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", s.path, err)
	}
	return s.path, nil
}
