package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// memberPath joins a member name onto the destination directory and rejects
// names that would land outside of it.
func memberPath(destination, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty member name")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("absolute member path: %s", name)
	}

	cleanDest := filepath.Clean(destination)
	target := filepath.Join(cleanDest, filepath.FromSlash(name))

	rel, err := filepath.Rel(cleanDest, target)
	if err != nil {
		return "", fmt.Errorf("member path %s: %w", name, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path outside destination directory: %s", name)
	}

	return target, nil
}

// linkTargetWithin reports whether a symlink at linkPath pointing to target
// resolves inside destination.
func linkTargetWithin(destination, linkPath, target string) bool {
	if filepath.IsAbs(target) {
		return false
	}
	resolved := filepath.Join(filepath.Dir(linkPath), filepath.FromSlash(target))
	rel, err := filepath.Rel(filepath.Clean(destination), resolved)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// checkNoSymlinks fails when any existing component between destination and
// target, target included, is a symlink. Writes that follow such a link could
// land outside destination even though the member name is clean.
func checkNoSymlinks(fsys afero.Fs, destination, target string) error {
	lstater, ok := fsys.(afero.Lstater)
	if !ok {
		return nil
	}

	rel, err := filepath.Rel(filepath.Clean(destination), target)
	if err != nil {
		return err
	}
	if rel == "." {
		return nil
	}

	current := filepath.Clean(destination)
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		info, _, err := lstater.LstatIfPossible(current)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("path goes through symlink %s", current)
		}
	}
	return nil
}
